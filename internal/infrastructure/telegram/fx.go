package telegram

import (
	"context"

	"go.uber.org/fx"
)

// Module provides MTProto infrastructure for fx DI
var Module = fx.Module("telegram",
	fx.Provide(
		NewManager,
		NewStatsClientProvider,
		NewCollector,
	),
	fx.Invoke(registerLifecycle),
)

// registerLifecycle disconnects all cached handles on shutdown
func registerLifecycle(lc fx.Lifecycle, m *Manager) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			m.CloseAll(ctx)
			return nil
		},
	})
}
