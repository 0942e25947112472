package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"confronto/internal/core"
	"confronto/internal/services"
	"confronto/internal/storage"
)

// Syncer mirrors the upstream window around a reference date.
type Syncer interface {
	Sync(ctx context.Context, ref core.Date) (storage.SyncRun, error)
}

// Invalidator drops cached source responses for a range.
type Invalidator interface {
	Invalidate(start, end core.Date)
}

// SyncWorker keeps the SQLite mirror fresh between comparison requests.
type SyncWorker struct {
	syncer      Syncer
	invalidator Invalidator
	today       func() core.Date
}

// NewSyncWorker creates a sync worker. invalidator may be nil; when set, its
// cached responses for the synced window are dropped after each sync.
func NewSyncWorker(syncer Syncer, invalidator Invalidator) *SyncWorker {
	return &SyncWorker{syncer: syncer, invalidator: invalidator, today: core.Today}
}

// WithClock replaces the source of "today".
func (w *SyncWorker) WithClock(today func() core.Date) *SyncWorker {
	w.today = today
	return w
}

// SyncNow mirrors the window around today.
func (w *SyncWorker) SyncNow(ctx context.Context) error {
	ref := w.today()
	run, err := w.syncer.Sync(ctx, ref)
	if err != nil {
		return fmt.Errorf("sync mirror: %w", err)
	}
	if w.invalidator != nil {
		start, end := services.SyncRange(ref)
		w.invalidator.Invalidate(start, end)
	}
	slog.InfoContext(ctx, "Mirror refreshed",
		"sync_id", run.ID.String(),
		"stored", run.Stored)
	return nil
}

// Run syncs once at start-up and then every interval until ctx is done.
// Failures are logged and retried on the next tick.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) {
	slog.InfoContext(ctx, "Performing startup sync")
	if err := w.SyncNow(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup sync failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.SyncNow(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic sync failed", "error", err)
			}
		}
	}
}

// Start runs Run in the background. The returned stop cancels it and blocks
// until any in-flight sync has returned.
func (w *SyncWorker) Start(ctx context.Context, interval time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx, interval)
	}()
	return func() {
		cancel()
		<-done
	}
}
