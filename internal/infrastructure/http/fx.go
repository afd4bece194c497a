package http

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/novabot/stats-service/config"
	deliveryhttp "github.com/novabot/stats-service/internal/delivery/http"
	"github.com/novabot/stats-service/internal/domain/adstats/deps"
	"github.com/novabot/stats-service/internal/infrastructure/http/server"
)

// Module provides HTTP server for fx DI
var Module = fx.Module("http",
	fx.Provide(NewServerFx),
	fx.Invoke(registerRoutes),
)

// NewServerFx creates HTTP server with lifecycle hooks for fx DI
func NewServerFx(
	lc fx.Lifecycle,
	serviceCfg *config.ServiceConfig,
	logger zerolog.Logger,
) *server.Server {
	srv := server.NewServer(serviceCfg.Name, serviceCfg.Port, logger)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return srv.Start()
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})

	return srv
}

// registerRoutes mounts the metrics and health endpoints. Running as an
// fx.Invoke also forces the server into the dependency graph so it is
// constructed and started.
func registerRoutes(srv *server.Server, db *gorm.DB, publisher deps.EventPublisher, logger zerolog.Logger) {
	srv.RegisterMetrics()

	healthHandler := deliveryhttp.NewHealthHandler(db, publisher, logger)
	srv.Router.GET("/health", fasthttpadaptor.NewFastHTTPHandler(healthHandler))
}
