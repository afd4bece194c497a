package infrastructure

import (
	"go.uber.org/fx"

	"github.com/novabot/stats-service/internal/infrastructure/database"
	httpfx "github.com/novabot/stats-service/internal/infrastructure/http"
	"github.com/novabot/stats-service/internal/infrastructure/kafka"
	"github.com/novabot/stats-service/internal/infrastructure/logger"
	"github.com/novabot/stats-service/internal/infrastructure/metrics"
	"github.com/novabot/stats-service/internal/infrastructure/telegram"
)

// Module aggregates all infrastructure modules
var Module = fx.Module("infrastructure",
	logger.Module,
	database.Module, // Must be before telegram (telegram depends on *gorm.DB)
	metrics.Module,
	telegram.Module,
	kafka.Module,
	httpfx.Module,
)
