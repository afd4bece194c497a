package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"

	pooldeps "github.com/novabot/stats-service/internal/domain/clientpool/deps"
	poolbusiness "github.com/novabot/stats-service/internal/domain/clientpool/usecase/business"
	cachedeps "github.com/novabot/stats-service/internal/domain/statcache/deps"
	"github.com/novabot/stats-service/internal/infrastructure/metrics"
)

const historyPagesPerCollect = 5

// channelOverview is the cached statistics blob for one (channel, horizon)
type channelOverview struct {
	ChannelID         int64   `json:"channelId"`
	ParticipantsCount int     `json:"participantsCount"`
	HorizonHours      int     `json:"horizonHours"`
	MessageCount      int     `json:"messageCount"`
	TotalViews        int64   `json:"totalViews"`
	AvgViews          float64 `json:"avgViews"`
	CollectedAt       int64   `json:"collectedAt"`
}

// Collector computes channel statistics over a live MTProto client picked
// from the external pool
type Collector struct {
	selector *poolbusiness.Selector
	channels pooldeps.ChannelDirectory
	manager  *Manager
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewCollector(
	selector *poolbusiness.Selector,
	channels pooldeps.ChannelDirectory,
	manager *Manager,
	m *metrics.Metrics,
	logger zerolog.Logger,
) cachedeps.StatsCollector {
	return &Collector{
		selector: selector,
		channels: channels,
		manager:  manager,
		metrics:  m,
		logger:   logger.With().Str("component", "stats_collector").Logger(),
	}
}

// Collect resolves the identifier through a least-used external client and
// assembles the overview blob. Every attempt counts toward the client's
// usage, success or failure.
func (c *Collector) Collect(ctx context.Context, identifier string, horizon int) (json.RawMessage, error) {
	record, err := c.selector.NextExternalClient(ctx)
	if err != nil {
		return nil, err
	}
	if record == nil {
		c.metrics.PoolExhaustions.WithLabelValues("external").Inc()
		return nil, fmt.Errorf("no usable external client")
	}
	c.metrics.ClientSelections.WithLabelValues("external").Inc()

	handle, err := c.manager.Handle(ctx, record)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := c.selector.RecordUsage(context.WithoutCancel(ctx), record.ID); err != nil {
			c.logger.Error().Err(err).Int64("client_id", record.ID).Msg("failed to record client usage")
		}
	}()

	input, err := c.resolveIdentifier(ctx, handle, record.ID, identifier)
	if err != nil {
		return nil, err
	}

	full, err := handle.FullChannel(ctx, input)
	if err != nil {
		c.recordFailure(ctx, record.ID, "GET_FULL_CHANNEL_FAILED")
		return nil, err
	}

	since := time.Now().Add(-time.Duration(horizon) * time.Hour).Unix()
	messages, err := handle.RecentMessages(ctx, input, since, historyPagesPerCollect)
	if err != nil {
		c.recordFailure(ctx, record.ID, "GET_HISTORY_FAILED")
		return nil, err
	}

	overview := channelOverview{
		ChannelID:         input.ChannelID,
		ParticipantsCount: full.ParticipantsCount,
		HorizonHours:      horizon,
		MessageCount:      len(messages),
		CollectedAt:       time.Now().Unix(),
	}
	for _, message := range messages {
		overview.TotalViews += int64(message.Views)
	}
	if overview.MessageCount > 0 {
		overview.AvgViews = float64(overview.TotalViews) / float64(overview.MessageCount)
	}

	blob, err := json.Marshal(overview)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal overview: %w", err)
	}

	c.logger.Debug().
		Str("identifier", identifier).
		Int("horizon", horizon).
		Int("messages", overview.MessageCount).
		Msg("collected channel statistics")
	return blob, nil
}

// resolveIdentifier turns a normalized identifier into an InputChannel.
// Numeric identifiers need the stored access hash; usernames go through
// the resolver.
func (c *Collector) resolveIdentifier(ctx context.Context, handle *Handle, clientID int64, identifier string) (*tg.InputChannel, error) {
	if channelID, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		accessHash, err := c.channels.AccessHash(ctx, channelID)
		if err != nil {
			return nil, fmt.Errorf("access hash for channel %d: %w", channelID, err)
		}
		return &tg.InputChannel{ChannelID: channelID, AccessHash: accessHash}, nil
	}

	input, err := handle.ResolveChannel(ctx, identifier)
	if err != nil {
		c.recordFailure(ctx, clientID, "RESOLVE_FAILED")
		return nil, err
	}
	return input, nil
}

// recordFailure stamps the error onto the client record; the collect error
// itself is what propagates to the caller.
func (c *Collector) recordFailure(ctx context.Context, clientID int64, code string) {
	if err := c.selector.RecordFailure(context.WithoutCancel(ctx), clientID, code); err != nil {
		c.logger.Error().Err(err).Int64("client_id", clientID).Msg("failed to record client error")
	}
}
