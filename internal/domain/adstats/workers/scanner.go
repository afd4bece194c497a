package workers

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/novabot/stats-service/config"
	"github.com/novabot/stats-service/internal/domain/adstats/usecase/business"
)

// ScannerWorker drives ad-attribution scan cycles on a fixed interval.
// One cycle runs immediately on start so a restarted service does not
// wait a full interval before catching up on admin logs.
type ScannerWorker struct {
	scanner  *business.Scanner
	interval time.Duration
	logger   zerolog.Logger

	done   chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScannerWorker creates a new ad-attribution scanner worker
func NewScannerWorker(
	scanner *business.Scanner,
	scannerCfg *config.ScannerConfig,
	logger zerolog.Logger,
) *ScannerWorker {
	ctx, cancel := context.WithCancel(context.Background())

	return &ScannerWorker{
		scanner:  scanner,
		interval: scannerCfg.Interval,
		logger:   logger.With().Str("component", "scanner_worker").Logger(),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the scan loop
func (w *ScannerWorker) Start() {
	w.logger.Info().
		Dur("interval", w.interval).
		Msg("Starting ad-attribution scanner worker")

	w.wg.Add(1)
	go w.run()
}

// Stop gracefully stops the scan loop
func (w *ScannerWorker) Stop() {
	w.logger.Info().Msg("Stopping ad-attribution scanner worker")

	w.cancel()
	close(w.done)
	w.wg.Wait()

	w.logger.Info().Msg("Ad-attribution scanner worker stopped")
}

func (w *ScannerWorker) run() {
	defer w.wg.Done()

	w.scan()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.scan()
		}
	}
}

func (w *ScannerWorker) scan() {
	if err := w.scanner.RunCycle(w.ctx); err != nil {
		if w.ctx.Err() != nil {
			w.logger.Warn().Err(err).Msg("Scan cycle cancelled")
		} else {
			w.logger.Error().Err(err).Msg("Scan cycle failed")
		}
	}
}
