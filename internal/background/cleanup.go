package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Purger drops expired entries from a store
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// PurgeRecorder receives the number of entries removed per store
type PurgeRecorder interface {
	RecordPurged(store string, count int64)
}

// CleanupManager periodically purges expired banned tokens and 2FA challenges.
// Stores that expire entries on their own (Redis) are simply not registered.
type CleanupManager struct {
	purgers  map[string]Purger
	recorder PurgeRecorder
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewCleanupManager creates a new cleanup manager. recorder may be nil.
func NewCleanupManager(
	purgers map[string]Purger,
	recorder PurgeRecorder,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		purgers:  purgers,
		recorder: recorder,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup task and blocks until stopped
func (cm *CleanupManager) Start(ctx context.Context) {
	if len(cm.purgers) == 0 {
		return
	}

	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// runCleanup purges every registered store. One failing store does not stop the others.
func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for name, purger := range cm.purgers {
		purged, err := purger.PurgeExpired(cleanupCtx)
		if err != nil {
			cm.logger.Error("failed to purge expired entries", slog.String("store", name), slog.Any("error", err))
			continue
		}

		if cm.recorder != nil {
			cm.recorder.RecordPurged(name, purged)
		}
		if purged > 0 {
			cm.logger.Info("expired entries purged", slog.String("store", name), slog.Int64("purged", purged))
		}
	}
}

// Stop signals the cleanup manager to stop. Safe to call more than once.
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
