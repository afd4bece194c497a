package app

import (
	"go.uber.org/fx"

	"github.com/novabot/stats-service/config"
	"github.com/novabot/stats-service/internal/domain/adstats"
	"github.com/novabot/stats-service/internal/domain/clientpool"
	"github.com/novabot/stats-service/internal/domain/statcache"
	"github.com/novabot/stats-service/internal/infrastructure"
)

// CreateApp creates the fx application options
func CreateApp() fx.Option {
	return fx.Options(
		fx.Provide(
			config.Out,
		),
		infrastructure.Module,
		// Domain modules
		clientpool.Module,
		statcache.Module, // Must be after clientpool (collector uses the selector)
		adstats.Module,
	)
}
