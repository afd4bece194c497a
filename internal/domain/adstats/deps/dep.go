package deps

import (
	"context"

	"github.com/novabot/stats-service/internal/domain/adstats/entities"
)

// Repository defines storage for link mappings, leads and subscriptions
type Repository interface {
	// TrackableMappingsByChannel groups all trackable mappings
	// (CHANNEL target, tracking enabled) by target channel id.
	TrackableMappingsByChannel(ctx context.Context) (map[int64][]entities.LinkMapping, error)

	// UpsertMapping creates a mapping or replaces the target fields of an
	// existing (purchase, slot) mapping.
	UpsertMapping(ctx context.Context, mapping *entities.LinkMapping) (*entities.LinkMapping, error)

	// AdvanceCursor moves a mapping's high-water mark forward. A cursor
	// already at or past eventID is left untouched, never regressed.
	AdvanceCursor(ctx context.Context, mappingID, eventID int64) error

	// ProcessJoinEvent attributes a join to the mapping holding the
	// invite link. Idempotent: replays of the same event change nothing.
	// Returns nil when no mapping matches the link.
	ProcessJoinEvent(ctx context.Context, channelID, userID int64, inviteLink string) (*entities.Attribution, error)

	// UpdateSubscriptionStatus flips the status for every subscription of
	// (user, channel) across all purchases.
	UpdateSubscriptionStatus(ctx context.Context, userID, channelID int64, status entities.SubscriptionStatus) error
}

// ClientHandle is a live, connected MTProto session scoped to read
// operations the scanner needs.
type ClientHandle interface {
	// AdminLog returns membership events with id > minID in ascending
	// id order.
	AdminLog(ctx context.Context, channelID, minID int64) ([]entities.AdminLogEvent, error)
}

// ClientProvider resolves a usable client for a channel, preferring the
// binding flagged for stats. A nil handle with nil error means no client
// can serve the channel right now; the caller skips it this cycle.
type ClientProvider interface {
	StatsClient(ctx context.Context, channelID int64) (ClientHandle, int64, error)
}

// EventPublisher pushes attribution outcomes to the surrounding platform
type EventPublisher interface {
	PublishLead(ctx context.Context, channelID, userID int64, attribution *entities.Attribution, inviteLink string) error
	PublishSubscriptionStatus(ctx context.Context, channelID, userID int64, status entities.SubscriptionStatus) error
	IsHealthy() bool
	Close() error
}
