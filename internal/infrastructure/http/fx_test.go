package http

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/novabot/stats-service/internal/domain/adstats/entities"
	"github.com/novabot/stats-service/internal/infrastructure/http/server"
)

type stubPublisher struct{}

func (stubPublisher) PublishLead(ctx context.Context, channelID, userID int64, attribution *entities.Attribution, inviteLink string) error {
	return nil
}

func (stubPublisher) PublishSubscriptionStatus(ctx context.Context, channelID, userID int64, status entities.SubscriptionStatus) error {
	return nil
}

func (stubPublisher) IsHealthy() bool { return true }

func (stubPublisher) Close() error { return nil }

func TestRegisterRoutes(t *testing.T) {
	srv := server.NewServer("test", "0", zerolog.Nop())

	registerRoutes(srv, nil, stubPublisher{}, zerolog.Nop())

	for _, path := range []string{"/health", "/metrics"} {
		handler, _ := srv.Router.Lookup("GET", path, &fasthttp.RequestCtx{})
		if handler == nil {
			t.Errorf("expected %s to be registered", path)
		}
	}
}
