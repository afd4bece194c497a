package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// KafkaHealthChecker reports whether the attribution producer can reach
// the broker
type KafkaHealthChecker interface {
	IsHealthy() bool
}

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth represents health status of a single component
type ComponentHealth struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the JSON response for health check
type HealthResponse struct {
	Status     HealthStatus      `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components []ComponentHealth `json:"components"`
}

// HealthHandler handles HTTP health check requests
type HealthHandler struct {
	db            *gorm.DB
	kafkaProducer KafkaHealthChecker
	logger        zerolog.Logger
}

// NewHealthHandler creates a new health check handler
func NewHealthHandler(db *gorm.DB, kafkaProducer KafkaHealthChecker, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		db:            db,
		kafkaProducer: kafkaProducer,
		logger:        logger,
	}
}

// ServeHTTP implements http.Handler interface
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	components := h.checkComponents(ctx)
	status := h.determineOverallStatus(components)

	response := HealthResponse{
		Status:     status,
		Timestamp:  time.Now(),
		Components: components,
	}

	statusCode := http.StatusOK
	if status == HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode health check response")
		return
	}
}

// checkComponents checks health of all service components
func (h *HealthHandler) checkComponents(ctx context.Context) []ComponentHealth {
	components := make([]ComponentHealth, 0, 2)

	dbHealthy := h.checkDatabase(ctx)
	dbMsg := ""
	if !dbHealthy {
		dbMsg = "Database is not reachable"
	}
	components = append(components, ComponentHealth{
		Name:    "database",
		Healthy: dbHealthy,
		Message: dbMsg,
	})

	producerHealthy := h.kafkaProducer.IsHealthy()
	producerMsg := ""
	if !producerHealthy {
		producerMsg = "Kafka producer is not healthy"
	}
	components = append(components, ComponentHealth{
		Name:    "kafka_producer",
		Healthy: producerHealthy,
		Message: producerMsg,
	})

	return components
}

func (h *HealthHandler) checkDatabase(ctx context.Context) bool {
	if h.db == nil {
		return false
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.PingContext(ctx) == nil
}

// determineOverallStatus determines overall health status based on component health
func (h *HealthHandler) determineOverallStatus(components []ComponentHealth) HealthStatus {
	allHealthy := true
	anyHealthy := false

	for _, component := range components {
		if !component.Healthy {
			allHealthy = false
		} else {
			anyHealthy = true
		}
	}

	if allHealthy {
		return HealthStatusHealthy
	} else if anyHealthy {
		return HealthStatusDegraded
	}

	return HealthStatusUnhealthy
}
