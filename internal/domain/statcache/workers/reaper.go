package workers

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/novabot/stats-service/config"
	"github.com/novabot/stats-service/internal/domain/statcache/usecase/business"
)

// ReaperWorker periodically releases refresh flags left set by crashed or
// abandoned recomputations. It runs on its own timer, decoupled from any
// request path, so a stuck flag can never survive past its timeout.
type ReaperWorker struct {
	cache    *business.UseCase
	interval time.Duration
	maxAge   time.Duration
	logger   zerolog.Logger

	done   chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewReaperWorker creates a new stale-refresh-flag reaper
func NewReaperWorker(
	cache *business.UseCase,
	cacheCfg *config.CacheConfig,
	logger zerolog.Logger,
) *ReaperWorker {
	ctx, cancel := context.WithCancel(context.Background())

	return &ReaperWorker{
		cache:    cache,
		interval: cacheCfg.ReaperInterval,
		maxAge:   cacheCfg.StaleFlagTimeout,
		logger:   logger.With().Str("component", "cache_reaper").Logger(),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the reaper loop
func (w *ReaperWorker) Start() {
	w.logger.Info().
		Dur("interval", w.interval).
		Dur("max_age", w.maxAge).
		Msg("Starting cache reaper worker")

	w.wg.Add(1)
	go w.run()
}

// Stop gracefully stops the reaper loop
func (w *ReaperWorker) Stop() {
	w.logger.Info().Msg("Stopping cache reaper worker")

	w.cancel()
	close(w.done)
	w.wg.Wait()

	w.logger.Info().Msg("Cache reaper worker stopped")
}

func (w *ReaperWorker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.reap()
		}
	}
}

func (w *ReaperWorker) reap() {
	ctx, cancel := context.WithTimeout(w.ctx, 30*time.Second)
	defer cancel()

	if _, err := w.cache.ReapStaleFlags(ctx, w.maxAge); err != nil {
		if ctx.Err() != nil {
			w.logger.Warn().Err(err).Msg("Reaper cycle cancelled or timed out")
		} else {
			w.logger.Error().Err(err).Msg("Reaper cycle failed")
		}
	}
}
