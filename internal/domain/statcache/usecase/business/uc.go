package business

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/novabot/stats-service/config"
	"github.com/novabot/stats-service/internal/domain/statcache/deps"
	"github.com/novabot/stats-service/internal/domain/statcache/entities"
	cacheerrors "github.com/novabot/stats-service/internal/domain/statcache/errors"
	"github.com/novabot/stats-service/internal/infrastructure/metrics"
	"github.com/novabot/stats-service/pkg/tglink"
)

// UseCase serves possibly-stale channel statistics fast and guarantees at
// most one in-flight recomputation per (channel, horizon) key.
type UseCase struct {
	repo      deps.CacheRepository
	collector deps.StatsCollector
	maxAge    time.Duration
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewUseCase(
	repo deps.CacheRepository,
	collector deps.StatsCollector,
	cfg *config.CacheConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *UseCase {
	return &UseCase{
		repo:      repo,
		collector: collector,
		maxAge:    cfg.FreshnessMaxAge,
		metrics:   m,
		logger:    logger.With().Str("component", "stats_cache").Logger(),
	}
}

// Lookup returns the cached entry (possibly nil) and whether it is fresh.
func (uc *UseCase) Lookup(ctx context.Context, identifier string, horizon int) (*entities.Entry, bool, error) {
	key, err := uc.cacheKey(identifier, horizon)
	if err != nil {
		return nil, false, err
	}

	entry, err := uc.repo.Get(ctx, key, horizon)
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup: %w", err)
	}

	fresh := entry.Fresh(time.Now(), uc.maxAge)
	if fresh {
		uc.metrics.CacheHits.Inc()
	} else {
		uc.metrics.CacheMisses.Inc()
	}
	return entry, fresh, nil
}

// Refresh recomputes the entry unless it is already fresh or another
// refresh is in flight. Losing the single-flight flag is not an error: the
// current entry is returned untouched and the caller retries later.
func (uc *UseCase) Refresh(ctx context.Context, identifier string, horizon int) (*entities.Entry, error) {
	key, err := uc.cacheKey(identifier, horizon)
	if err != nil {
		return nil, err
	}

	entry, err := uc.repo.Get(ctx, key, horizon)
	if err != nil {
		return nil, fmt.Errorf("cache lookup: %w", err)
	}
	if entry.Fresh(time.Now(), uc.maxAge) {
		return entry, nil
	}

	won, err := uc.repo.MarkRefreshInProgress(ctx, key, horizon, true)
	if err != nil {
		return nil, fmt.Errorf("acquire refresh flag: %w", err)
	}
	if !won {
		uc.metrics.RefreshLost.Inc()
		uc.logger.Debug().
			Str("identifier", key).
			Int("horizon", horizon).
			Msg("Refresh already in flight, serving current entry")
		return uc.repo.Get(ctx, key, horizon)
	}
	uc.metrics.RefreshWon.Inc()

	started := time.Now()
	value, collectErr := uc.collector.Collect(ctx, key, horizon)
	uc.metrics.RefreshDuration.Observe(time.Since(started).Seconds())
	if collectErr != nil {
		uc.logger.Warn().Err(collectErr).
			Str("identifier", key).
			Int("horizon", horizon).
			Msg("Stats collection failed")
		// Failure is recorded on the row, never propagated: readers see
		// the error message next to the last good value.
		return uc.repo.SetError(ctx, key, horizon, collectErr.Error())
	}

	updated, err := uc.repo.SetValue(ctx, key, horizon, value)
	if err != nil {
		return nil, fmt.Errorf("store refreshed stats: %w", err)
	}

	uc.logger.Info().
		Str("identifier", key).
		Int("horizon", horizon).
		Msg("Channel stats refreshed")
	return updated, nil
}

// ReapStaleFlags releases refresh flags stuck past maxAge.
func (uc *UseCase) ReapStaleFlags(ctx context.Context, maxAge time.Duration) (int64, error) {
	released, err := uc.repo.ClearStaleRefreshFlags(ctx, maxAge)
	if err != nil {
		return 0, fmt.Errorf("clear stale refresh flags: %w", err)
	}
	if released > 0 {
		uc.metrics.StaleFlagsReaped.Add(float64(released))
		uc.logger.Warn().Int64("released", released).Msg("Released stuck refresh flags")
	}
	return released, nil
}

func (uc *UseCase) cacheKey(identifier string, horizon int) (string, error) {
	if !entities.ValidHorizon(horizon) {
		return "", cacheerrors.ErrInvalidHorizon
	}
	key := tglink.NormalizeIdentifier(identifier)
	if key == "" {
		return "", cacheerrors.ErrInvalidIdentifier
	}
	return key, nil
}
