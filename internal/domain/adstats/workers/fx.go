package workers

import (
	"context"

	"go.uber.org/fx"
)

// Module provides scanner workers for fx DI
var Module = fx.Module("adstats-workers",
	fx.Provide(NewScannerWorker),
	fx.Invoke(registerLifecycle),
)

// registerLifecycle registers the scanner worker with fx.Lifecycle
func registerLifecycle(lc fx.Lifecycle, w *ScannerWorker) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			w.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			w.Stop()
			return nil
		},
	})
}
