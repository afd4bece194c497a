package deps

import (
	"context"
	"encoding/json"
	"time"

	"github.com/novabot/stats-service/internal/domain/statcache/entities"
)

// CacheRepository defines storage for per-(channel, horizon) statistics
type CacheRepository interface {
	// Get returns the entry or nil when absent.
	Get(ctx context.Context, identifier string, horizon int) (*entities.Entry, error)

	// IsFresh reports whether the entry exists and was computed strictly
	// less than maxAge ago.
	IsFresh(ctx context.Context, identifier string, horizon int, maxAge time.Duration) (bool, error)

	// SetValue upserts a successfully computed value, stamps updated_at
	// and clears the refresh flag and error message.
	SetValue(ctx context.Context, identifier string, horizon int, value json.RawMessage) (*entities.Entry, error)

	// SetError records a failed refresh: clears the refresh flag and
	// stores the message, keeping the last good value and updated_at.
	SetError(ctx context.Context, identifier string, horizon int, message string) (*entities.Entry, error)

	// MarkRefreshInProgress sets or clears the single-flight flag. When
	// setting, it reports whether this caller won the flag; a placeholder
	// row (updated_at 0) is created when the key has never been computed.
	MarkRefreshInProgress(ctx context.Context, identifier string, horizon int, inProgress bool) (bool, error)

	// ClearStaleRefreshFlags force-clears flags older than maxAge and
	// rewrites their error message to a timeout marker. Returns the
	// number of rows released.
	ClearStaleRefreshFlags(ctx context.Context, maxAge time.Duration) (int64, error)
}

// StatsCollector computes the statistics blob for a channel and horizon.
// Implemented against a live MTProto client outside this package.
type StatsCollector interface {
	Collect(ctx context.Context, identifier string, horizon int) (json.RawMessage, error)
}
