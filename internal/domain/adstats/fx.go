package adstats

import (
	"go.uber.org/fx"

	"github.com/novabot/stats-service/internal/domain/adstats/repository/postgres"
	"github.com/novabot/stats-service/internal/domain/adstats/usecase/business"
	"github.com/novabot/stats-service/internal/domain/adstats/workers"
)

// Module provides ad-attribution domain components for fx DI
var Module = fx.Module("adstats",
	fx.Provide(
		postgres.NewRepository,
		business.NewScanner,
	),
	workers.Module,
)
