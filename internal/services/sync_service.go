package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"confronto/internal/core"
	"confronto/internal/sources"
	"confronto/internal/storage"
)

// SyncRecorder is implemented by mirrors that keep a sync history.
type SyncRecorder interface {
	RecordSync(ctx context.Context, run storage.SyncRun) error
}

// SyncService copies the transactions a comparison needs from an upstream
// source into a local mirror.
type SyncService struct {
	upstream sources.TransactionSource
	mirror   sources.TransactionWriter
	now      func() time.Time
}

func NewSyncService(upstream sources.TransactionSource, mirror sources.TransactionWriter) *SyncService {
	return &SyncService{upstream: upstream, mirror: mirror, now: time.Now}
}

// SyncRange returns the range a sync for ref covers: the whole previous
// month and the whole month of ref.
func SyncRange(ref core.Date) (core.Date, core.Date) {
	return core.CalculateBoundaries(ref).StartOfPreviousMonth, ref.EndOfMonth()
}

// Sync mirrors the previous and current month of ref.
func (s *SyncService) Sync(ctx context.Context, ref core.Date) (storage.SyncRun, error) {
	if err := ref.Validate(); err != nil {
		return storage.SyncRun{}, fmt.Errorf("%w: reference date: %v", core.ErrInvalidInput, err)
	}
	start, end := SyncRange(ref)
	run := storage.SyncRun{ID: uuid.New(), Start: start, End: end, StartedAt: s.now()}

	txs, err := s.upstream.FetchTransactions(ctx, start, end)
	if err != nil {
		return run, fmt.Errorf("fetch upstream: %w", err)
	}
	run.Fetched = len(txs)
	run.Stored, err = countInRange(txs, start, end)
	if err != nil {
		return run, err
	}

	if err := s.mirror.ReplaceRange(ctx, start, end, txs); err != nil {
		return run, fmt.Errorf("replace mirrored range: %w", err)
	}
	run.FinishedAt = s.now()

	if rec, ok := s.mirror.(SyncRecorder); ok {
		if err := rec.RecordSync(ctx, run); err != nil {
			// The data is already mirrored.
			slog.WarnContext(ctx, "Failed to record sync run", "sync_id", run.ID.String(), "error", err)
		}
	}

	slog.InfoContext(ctx, "Sync complete",
		"sync_id", run.ID.String(),
		"start", start.String(),
		"end", end.String(),
		"fetched", run.Fetched,
		"stored", run.Stored,
		"duration", run.FinishedAt.Sub(run.StartedAt))
	return run, nil
}

func countInRange(txs []core.RawTransaction, start, end core.Date) (int, error) {
	n := 0
	for i, tx := range txs {
		d, err := core.ParseRecordDate(tx.Date)
		if err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
		if !d.Before(start) && !d.After(end) {
			n++
		}
	}
	return n, nil
}
