package deps

import (
	"context"

	"github.com/novabot/stats-service/internal/domain/clientpool/entities"
)

// ClientRepository defines storage for MTProto client identities
type ClientRepository interface {
	Create(ctx context.Context, record *entities.ClientRecord) (*entities.ClientRecord, error)
	Get(ctx context.Context, clientID int64) (*entities.ClientRecord, error)
	ListByPool(ctx context.Context, pool entities.PoolType) ([]entities.ClientRecord, error)

	// ListActiveInternal returns usable internal clients ordered by id,
	// forming the stable round-robin ring.
	ListActiveInternal(ctx context.Context) ([]entities.ClientRecord, error)

	// ListActiveExternal returns usable external clients ordered by
	// usage_count then last_used_at, least used first.
	ListActiveExternal(ctx context.Context) ([]entities.ClientRecord, error)

	// IncrementUsage bumps usage_count and stamps last_used_at in a single
	// atomic update.
	IncrementUsage(ctx context.Context, clientID int64) error

	UpdateStatus(ctx context.Context, clientID int64, status entities.ClientStatus, isActive bool) error
	RecordError(ctx context.Context, clientID int64, code string) error
	RecordSelfCheck(ctx context.Context, clientID int64) error
	SetFloodWait(ctx context.Context, clientID int64, until int64) error
}

// BindingRepository defines storage for client-channel bindings
type BindingRepository interface {
	GetOrCreate(ctx context.Context, clientID, channelID int64) (*entities.ChannelBinding, error)
	ListForChannel(ctx context.Context, channelID int64) ([]entities.ChannelBinding, error)
	SetMembership(ctx context.Context, clientID, channelID int64, upd entities.BindingUpdate) error
	PreferredForStats(ctx context.Context, channelID int64) (*entities.ChannelBinding, error)
	PreferredForStories(ctx context.Context, channelID int64) (*entities.ChannelBinding, error)
	AnyForChannel(ctx context.Context, channelID int64) (*entities.ChannelBinding, error)
	ListByClient(ctx context.Context, clientID int64) ([]entities.ChannelBinding, error)
	DeleteByClient(ctx context.Context, clientID int64) error
}

// ChannelDirectory exposes the slice of the channels table this service
// touches: the round-robin cursor and the MTProto access hash.
type ChannelDirectory interface {
	// LastClientID returns the round-robin cursor, 0 when unset.
	LastClientID(ctx context.Context, channelID int64) (int64, error)
	SetLastClientID(ctx context.Context, channelID, clientID int64) error
	AccessHash(ctx context.Context, channelID int64) (int64, error)
}
