package clientpool

import (
	"go.uber.org/fx"

	"github.com/novabot/stats-service/internal/domain/clientpool/repository/postgres"
	"github.com/novabot/stats-service/internal/domain/clientpool/usecase/business"
)

// Module provides client pool components for fx DI
var Module = fx.Module("clientpool",
	fx.Provide(
		postgres.NewClientRepository,
		postgres.NewBindingRepository,
		postgres.NewChannelDirectory,
		business.NewSelector,
		business.NewLifecycle,
	),
)
