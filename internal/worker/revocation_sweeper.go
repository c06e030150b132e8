package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/taskflow/internal/observability/metrics"
)

// Purger drops expired entries and reports what is left
type Purger interface {
	Purge() int
	Len() int
}

// RevocationSweeper periodically trims expired token revocations from the
// in-process list. Redis entries expire on their own TTL.
type RevocationSweeper struct {
	list     Purger
	logger   *slog.Logger
	interval time.Duration
}

// NewRevocationSweeper creates a new sweeper
func NewRevocationSweeper(list Purger, logger *slog.Logger, interval time.Duration) *RevocationSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &RevocationSweeper{
		list:     list,
		logger:   logger,
		interval: interval,
	}
}

// Start runs the sweep loop until ctx is cancelled
func (w *RevocationSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("revocation sweeper started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("revocation sweeper stopped")
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep runs one pass and returns the number of entries removed
func (w *RevocationSweeper) Sweep() int {
	removed := w.list.Purge()
	remaining := w.list.Len()
	metrics.SetRevocationEntries(remaining)

	if removed > 0 {
		w.logger.Debug("expired revocations purged",
			slog.Int("removed", removed),
			slog.Int("remaining", remaining),
		)
	}
	return removed
}
