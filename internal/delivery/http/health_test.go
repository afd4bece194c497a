package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

// mockKafkaHealthChecker implements KafkaHealthChecker for testing
type mockKafkaHealthChecker struct {
	healthy bool
}

func (m *mockKafkaHealthChecker) IsHealthy() bool {
	return m.healthy
}

func TestHealthHandler_DegradedWhenDatabaseDown(t *testing.T) {
	// A nil gorm.DB reads as an unreachable database; Kafka stays healthy.
	logger := zerolog.Nop()
	handler := NewHealthHandler(nil, &mockKafkaHealthChecker{healthy: true}, logger)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d for degraded state, got %d", http.StatusOK, w.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.Status != HealthStatusDegraded {
		t.Errorf("Expected status %s, got %s", HealthStatusDegraded, response.Status)
	}

	if len(response.Components) != 2 {
		t.Errorf("Expected 2 components, got %d", len(response.Components))
	}
}

func TestHealthHandler_UnhealthyReturns503(t *testing.T) {
	logger := zerolog.Nop()
	handler := NewHealthHandler(nil, &mockKafkaHealthChecker{healthy: false}, logger)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.Status != HealthStatusUnhealthy {
		t.Errorf("Expected status %s, got %s", HealthStatusUnhealthy, response.Status)
	}
}

func TestHealthHandler_MethodNotAllowed(t *testing.T) {
	logger := zerolog.Nop()
	handler := NewHealthHandler(nil, &mockKafkaHealthChecker{healthy: true}, logger)

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status %d, got %d", http.StatusMethodNotAllowed, w.Code)
	}
}
