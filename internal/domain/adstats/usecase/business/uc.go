package business

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/novabot/stats-service/config"
	"github.com/novabot/stats-service/internal/domain/adstats/deps"
	"github.com/novabot/stats-service/internal/domain/adstats/entities"
	"github.com/novabot/stats-service/internal/infrastructure/metrics"
	"github.com/novabot/stats-service/pkg/tglink"
)

// Scanner walks channel admin logs and attributes membership changes to
// ad purchases. Each cycle covers every channel that has at least one
// trackable link mapping; channels fail independently of each other.
type Scanner struct {
	repo      deps.Repository
	clients   deps.ClientProvider
	publisher deps.EventPublisher
	cfg       *config.ScannerConfig
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewScanner(
	repo deps.Repository,
	clients deps.ClientProvider,
	publisher deps.EventPublisher,
	cfg *config.ScannerConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Scanner {
	return &Scanner{
		repo:      repo,
		clients:   clients,
		publisher: publisher,
		cfg:       cfg,
		metrics:   m,
		logger:    logger.With().Str("component", "ad_scanner").Logger(),
	}
}

// RunCycle performs one full scan over all channels with trackable
// mappings. A failing channel is logged and skipped; it does not abort
// the cycle and its cursors stay where they were.
func (s *Scanner) RunCycle(ctx context.Context) error {
	started := time.Now()

	grouped, err := s.repo.TrackableMappingsByChannel(ctx)
	if err != nil {
		return err
	}

	s.logger.Debug().Int("channels", len(grouped)).Msg("scan cycle started")

	for channelID, mappings := range grouped {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		channelCtx, cancel := context.WithTimeout(ctx, s.cfg.ChannelTimeout)
		err := s.scanChannel(channelCtx, channelID, mappings)
		cancel()

		if err != nil {
			s.metrics.ScanChannelErrors.Inc()
			s.logger.Error().Err(err).
				Int64("channel_id", channelID).
				Msg("channel scan failed")
		}
	}

	s.metrics.ScanCycles.Inc()
	s.metrics.ScanCycleDuration.Observe(time.Since(started).Seconds())
	s.logger.Debug().
		Dur("elapsed", time.Since(started)).
		Msg("scan cycle finished")
	return nil
}

// scanChannel fetches admin log events past the channel's slowest cursor
// and applies them in ascending id order. Cursors advance only after an
// event is fully applied, so a crash mid-channel replays events instead
// of losing them.
func (s *Scanner) scanChannel(ctx context.Context, channelID int64, mappings []entities.LinkMapping) error {
	handle, clientID, err := s.clients.StatsClient(ctx, channelID)
	if err != nil {
		return err
	}
	if handle == nil {
		s.logger.Warn().Int64("channel_id", channelID).Msg("no usable client, skipping channel")
		return nil
	}

	minID := slowestCursor(mappings)

	events, err := handle.AdminLog(ctx, channelID, minID)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	s.logger.Debug().
		Int64("channel_id", channelID).
		Int64("client_id", clientID).
		Int64("min_id", minID).
		Int("events", len(events)).
		Msg("processing admin log events")

	for i := range events {
		if err := s.applyEvent(ctx, channelID, &events[i], mappings); err != nil {
			return err
		}
		if err := s.advanceCursors(ctx, mappings, events[i].ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) applyEvent(ctx context.Context, channelID int64, event *entities.AdminLogEvent, mappings []entities.LinkMapping) error {
	s.metrics.EventsProcessed.WithLabelValues(string(event.Action)).Inc()

	switch event.Action {
	case entities.ActionJoinByInvite:
		return s.applyJoin(ctx, channelID, event, mappings)
	case entities.ActionLeft, entities.ActionMemberKicked:
		return s.applyLeave(ctx, channelID, event)
	default:
		// Invited-by-admin and anything unrecognized only moves the cursor.
		return nil
	}
}

func (s *Scanner) applyJoin(ctx context.Context, channelID int64, event *entities.AdminLogEvent, mappings []entities.LinkMapping) error {
	link := matchInviteLink(event.InviteLink, mappings)
	if link == "" {
		return nil
	}

	attribution, err := s.repo.ProcessJoinEvent(ctx, channelID, event.UserID, link)
	if err != nil {
		return err
	}
	if attribution == nil {
		return nil
	}

	s.metrics.LeadsAttributed.Inc()
	s.logger.Info().
		Int64("channel_id", channelID).
		Int64("user_id", event.UserID).
		Int64("ad_purchase_id", attribution.AdPurchaseID).
		Bool("subscribed", attribution.Subscribed).
		Msg("join attributed to ad purchase")

	if err := s.publisher.PublishLead(ctx, channelID, event.UserID, attribution, link); err != nil {
		s.logger.Error().Err(err).
			Int64("user_id", event.UserID).
			Msg("failed to publish lead event")
	}
	return nil
}

func (s *Scanner) applyLeave(ctx context.Context, channelID int64, event *entities.AdminLogEvent) error {
	status := entities.SubscriptionLeft
	if event.Action == entities.ActionMemberKicked {
		status = entities.SubscriptionKicked
	}

	if err := s.repo.UpdateSubscriptionStatus(ctx, event.UserID, channelID, status); err != nil {
		return err
	}
	s.metrics.SubscriptionsLeft.Inc()

	if err := s.publisher.PublishSubscriptionStatus(ctx, channelID, event.UserID, status); err != nil {
		s.logger.Error().Err(err).
			Int64("user_id", event.UserID).
			Msg("failed to publish subscription status")
	}
	return nil
}

// advanceCursors moves every mapping whose cursor lags behind eventID.
// Mappings already ahead are untouched.
func (s *Scanner) advanceCursors(ctx context.Context, mappings []entities.LinkMapping, eventID int64) error {
	for i := range mappings {
		if mappings[i].LastScannedID >= eventID {
			continue
		}
		if err := s.repo.AdvanceCursor(ctx, mappings[i].ID, eventID); err != nil {
			return err
		}
		mappings[i].LastScannedID = eventID
	}
	return nil
}

// slowestCursor returns the minimum last_scanned_id across the channel's
// mappings, so a freshly added mapping re-reads older events it missed.
func slowestCursor(mappings []entities.LinkMapping) int64 {
	if len(mappings) == 0 {
		return 0
	}
	min := mappings[0].LastScannedID
	for _, m := range mappings[1:] {
		if m.LastScannedID < min {
			min = m.LastScannedID
		}
	}
	return min
}

// matchInviteLink finds the mapping invite link matching the event's
// link after normalization. The stored form is returned so the repo
// lookup hits the exact row.
func matchInviteLink(eventLink string, mappings []entities.LinkMapping) string {
	if eventLink == "" {
		return ""
	}
	normalized := tglink.NormalizeInviteLink(eventLink)
	for i := range mappings {
		if mappings[i].InviteLink == "" {
			continue
		}
		if tglink.NormalizeInviteLink(mappings[i].InviteLink) == normalized {
			return mappings[i].InviteLink
		}
	}
	return ""
}
