package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confronto/internal/core"
	"confronto/internal/sources/memory"
	"confronto/internal/storage"
)

func TestSyncRange(t *testing.T) {
	start, end := SyncRange(core.NewDate(2024, 1, 15))
	assert.Equal(t, core.NewDate(2023, 12, 1), start)
	assert.Equal(t, core.NewDate(2024, 1, 31), end)
}

func TestSyncService_SyncIntoSQLite(t *testing.T) {
	upstream := newRangeSource(
		spend("2024-02-10", "5"),
		spend("2024-03-02", "7"),
		spend("2024-03-28", "9"),
		spend("2024-04-01", "1"),
	)
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "mirror.db"))
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	run, err := NewSyncService(upstream, repo).Sync(ctx, core.NewDate(2024, 3, 15))
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-02-01..2024-03-31"}, upstream.ranges)
	assert.Equal(t, 3, run.Fetched)
	assert.Equal(t, 3, run.Stored)

	last, err := repo.LastSync(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, run.ID, last.ID)

	// The mirror now serves comparisons on its own.
	rep, err := NewComparisonService(repo, "USD").Run(ctx, core.NewDate(2024, 3, 15))
	require.NoError(t, err)
	assert.Equal(t, "Spending this month: $7.00\n$2.00 more than last month", rep.Summary)
}

func TestSyncService_SyncIntoMemory(t *testing.T) {
	upstream := newRangeSource(spend("2024-03-02", "7"))
	mirror := memory.New(nil)

	run, err := NewSyncService(upstream, mirror).Sync(context.Background(), core.NewDate(2024, 3, 15))
	require.NoError(t, err)
	assert.Equal(t, 1, run.Stored)
	assert.Equal(t, 1, mirror.Len())
}

func TestSyncService_UpstreamFailureLeavesMirrorAlone(t *testing.T) {
	upstream := newRangeSource()
	upstream.fail["2024-02-01..2024-03-31"] = upstreamErr("timeout")
	mirror := memory.New([]core.RawTransaction{spend("2024-03-01", "1")})

	_, err := NewSyncService(upstream, mirror).Sync(context.Background(), core.NewDate(2024, 3, 15))
	require.ErrorIs(t, err, core.ErrUpstream)
	assert.Equal(t, 1, mirror.Len())
}
