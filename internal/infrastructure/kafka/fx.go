package kafka

import (
	"context"

	"go.uber.org/fx"

	"github.com/novabot/stats-service/internal/domain/adstats/deps"
)

// Module provides Kafka infrastructure for fx DI
var Module = fx.Module("kafka",
	fx.Provide(NewProducer),
	fx.Invoke(registerLifecycle),
)

// registerLifecycle closes the producer on shutdown
func registerLifecycle(lc fx.Lifecycle, publisher deps.EventPublisher) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return publisher.Close()
		},
	})
}
