package statcache

import (
	"go.uber.org/fx"

	"github.com/novabot/stats-service/internal/domain/statcache/repository/postgres"
	"github.com/novabot/stats-service/internal/domain/statcache/usecase/business"
	"github.com/novabot/stats-service/internal/domain/statcache/workers"
)

// Module provides stats cache domain components for fx DI
var Module = fx.Module("statcache",
	fx.Provide(
		postgres.NewRepository,
		business.NewUseCase,
	),
	workers.Module,
)
