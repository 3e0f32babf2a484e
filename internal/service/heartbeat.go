package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StatsStore accumulates the persisted counters.
type StatsStore interface {
	Add(ctx context.Context, scannedDelta, uptimeDelta int64) error
}

// ScanCounter drains the number of threads processed since the last call.
type ScanCounter interface {
	TakeScanned() int64
}

// Heartbeat periodically folds the in-memory scan counter and elapsed
// uptime into the stats row, and once more on shutdown so restarts lose
// at most one interval.
type Heartbeat struct {
	stats   StatsStore
	counter ScanCounter
	logger  *zap.Logger

	mu   sync.Mutex
	last time.Time
}

func NewHeartbeat(stats StatsStore, counter ScanCounter, logger *zap.Logger) *Heartbeat {
	return &Heartbeat{
		stats:   stats,
		counter: counter,
		logger:  logger,
		last:    time.Now(),
	}
}

// Flush persists the deltas accumulated since the previous flush.
func (h *Heartbeat) Flush(ctx context.Context) error {
	h.mu.Lock()
	now := time.Now()
	uptime := int64(now.Sub(h.last).Seconds())
	h.last = now
	h.mu.Unlock()

	scanned := h.counter.TakeScanned()
	if err := h.stats.Add(ctx, scanned, uptime); err != nil {
		return err
	}

	h.logger.Debug("Stats flushed",
		zap.Int64("scanned_delta", scanned),
		zap.Int64("uptime_delta", uptime),
	)
	return nil
}
