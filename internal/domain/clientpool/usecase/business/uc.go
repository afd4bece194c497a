package business

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/novabot/stats-service/internal/domain/clientpool/deps"
	"github.com/novabot/stats-service/internal/domain/clientpool/entities"
	"github.com/novabot/stats-service/internal/infrastructure/metrics"
)

// Selector implements the client dispatch policy: round-robin over the
// internal pool, least-used over the external pool.
//
// Selection itself never persists anything. The round-robin cursor is
// advanced by the caller through AdvanceCursor after a successful
// operation only, so a failed attempt does not burn a ring position.
type Selector struct {
	clients  deps.ClientRepository
	channels deps.ChannelDirectory
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewSelector(
	clients deps.ClientRepository,
	channels deps.ChannelDirectory,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Selector {
	return &Selector{
		clients:  clients,
		channels: channels,
		metrics:  m,
		logger:   logger.With().Str("component", "client_selector").Logger(),
	}
}

// NextInternalClient returns the next internal client for the channel in
// round-robin order, or nil when the pool is empty. An empty pool is a
// normal retry-later condition, not an error.
func (s *Selector) NextInternalClient(ctx context.Context, channelID int64) (*entities.ClientRecord, error) {
	ring, err := s.clients.ListActiveInternal(ctx)
	if err != nil {
		return nil, fmt.Errorf("list internal clients: %w", err)
	}
	if len(ring) == 0 {
		s.logger.Debug().Int64("channel_id", channelID).Msg("internal pool is empty")
		return nil, nil
	}

	lastID, err := s.channels.LastClientID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("read round-robin cursor: %w", err)
	}
	if lastID == 0 {
		return &ring[0], nil
	}

	// Locate the previously used client in the current ring. When it has
	// been deactivated or removed the ring restarts at index 0.
	next := 0
	for i := range ring {
		if ring[i].ID == lastID {
			next = (i + 1) % len(ring)
			break
		}
	}

	return &ring[next], nil
}

// NextExternalClient returns the least-used usable external client, or nil
// when the pool is empty.
func (s *Selector) NextExternalClient(ctx context.Context) (*entities.ClientRecord, error) {
	clients, err := s.clients.ListActiveExternal(ctx)
	if err != nil {
		return nil, fmt.Errorf("list external clients: %w", err)
	}
	if len(clients) == 0 {
		s.logger.Debug().Msg("external pool is empty")
		return nil, nil
	}
	return &clients[0], nil
}

// RecordUsage must be called after every completed operation through a
// client, success or failure, to keep the least-used ordering meaningful.
func (s *Selector) RecordUsage(ctx context.Context, clientID int64) error {
	if err := s.clients.IncrementUsage(ctx, clientID); err != nil {
		return fmt.Errorf("increment usage for client %d: %w", clientID, err)
	}
	return nil
}

// RecordFailure records a transient API error against the client. The
// client stays in the pool; flipping its status is a health-check
// decision, not an automatic one.
func (s *Selector) RecordFailure(ctx context.Context, clientID int64, code string) error {
	s.metrics.ClientErrors.WithLabelValues(code).Inc()
	if err := s.clients.RecordError(ctx, clientID, code); err != nil {
		return fmt.Errorf("record error for client %d: %w", clientID, err)
	}
	return nil
}

// AdvanceCursor persists the round-robin cursor after a successful
// operation through the given client.
func (s *Selector) AdvanceCursor(ctx context.Context, channelID, clientID int64) error {
	if err := s.channels.SetLastClientID(ctx, channelID, clientID); err != nil {
		return fmt.Errorf("advance cursor for channel %d: %w", channelID, err)
	}
	return nil
}
