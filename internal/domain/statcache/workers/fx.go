package workers

import (
	"context"

	"go.uber.org/fx"
)

// Module provides cache workers for fx DI
var Module = fx.Module("statcache-workers",
	fx.Provide(NewReaperWorker),
	fx.Invoke(registerLifecycle),
)

// registerLifecycle registers the reaper worker with fx.Lifecycle
func registerLifecycle(lc fx.Lifecycle, w *ReaperWorker) {
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
