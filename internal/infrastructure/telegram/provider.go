package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	addeps "github.com/novabot/stats-service/internal/domain/adstats/deps"
	adentities "github.com/novabot/stats-service/internal/domain/adstats/entities"
	pooldeps "github.com/novabot/stats-service/internal/domain/clientpool/deps"
	"github.com/novabot/stats-service/internal/domain/clientpool/entities"
	"github.com/novabot/stats-service/internal/infrastructure/metrics"
)

// StatsClientProvider resolves a connected handle for a channel. The
// binding flagged preferred_for_stats is tried first, then any other
// binding whose client record is usable.
type StatsClientProvider struct {
	bindings pooldeps.BindingRepository
	clients  pooldeps.ClientRepository
	channels pooldeps.ChannelDirectory
	manager  *Manager
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewStatsClientProvider(
	bindings pooldeps.BindingRepository,
	clients pooldeps.ClientRepository,
	channels pooldeps.ChannelDirectory,
	manager *Manager,
	m *metrics.Metrics,
	logger zerolog.Logger,
) addeps.ClientProvider {
	return &StatsClientProvider{
		bindings: bindings,
		clients:  clients,
		channels: channels,
		manager:  manager,
		metrics:  m,
		logger:   logger.With().Str("component", "stats_client_provider").Logger(),
	}
}

// StatsClient returns a handle bound to the channel, or nil when no
// usable client exists right now.
func (p *StatsClientProvider) StatsClient(ctx context.Context, channelID int64) (addeps.ClientHandle, int64, error) {
	record, err := p.pickRecord(ctx, channelID)
	if err != nil {
		return nil, 0, err
	}
	if record == nil {
		p.metrics.PoolExhaustions.WithLabelValues("stats").Inc()
		return nil, 0, nil
	}

	accessHash, err := p.channels.AccessHash(ctx, channelID)
	if err != nil {
		return nil, 0, fmt.Errorf("access hash for channel %d: %w", channelID, err)
	}

	handle, err := p.manager.Handle(ctx, record)
	if err != nil {
		return nil, 0, err
	}

	p.metrics.ClientSelections.WithLabelValues(string(record.PoolType)).Inc()
	return &boundHandle{handle: handle, accessHash: accessHash}, record.ID, nil
}

// pickRecord walks the channel's bindings, preferred one first, and
// returns the first usable client record
func (p *StatsClientProvider) pickRecord(ctx context.Context, channelID int64) (*entities.ClientRecord, error) {
	now := time.Now()

	preferred, err := p.bindings.PreferredForStats(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if preferred != nil {
		record, err := p.clients.Get(ctx, preferred.ClientID)
		if err == nil && record.Usable(now) {
			return record, nil
		}
		p.logger.Warn().
			Int64("channel_id", channelID).
			Int64("client_id", preferred.ClientID).
			Msg("preferred stats client is not usable, falling back")
	}

	bindings, err := p.bindings.ListForChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	for i := range bindings {
		if preferred != nil && bindings[i].ClientID == preferred.ClientID {
			continue
		}
		if !bindings[i].IsMember {
			continue
		}
		record, err := p.clients.Get(ctx, bindings[i].ClientID)
		if err != nil {
			continue
		}
		if record.Usable(now) {
			return record, nil
		}
	}
	return nil, nil
}

// boundHandle pairs a connected handle with the channel access hash so
// the scanner can call the admin log without touching MTProto details
type boundHandle struct {
	handle     *Handle
	accessHash int64
}

func (b *boundHandle) AdminLog(ctx context.Context, channelID, minID int64) ([]adentities.AdminLogEvent, error) {
	return b.handle.AdminLog(ctx, channelID, b.accessHash, minID)
}
