package main

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/novabot/stats-service/config"
	"github.com/novabot/stats-service/internal/app"
)

func main() {
	fx.New(
		app.CreateApp(),
		fx.Invoke(run),
	).Run()
}

func run(
	lc fx.Lifecycle,
	cfg *config.Config,
	logger zerolog.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info().
				Str("service", cfg.Service.Name).
				Str("port", cfg.Service.Port).
				Msg("Starting stats service")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("Stats service stopped")
			return nil
		},
	})
}
