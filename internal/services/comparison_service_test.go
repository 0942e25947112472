package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confronto/internal/core"
	"confronto/internal/sources/memory"
)

// rangeSource answers from a fixed set of records and remembers the ranges
// it was asked for.
type rangeSource struct {
	mu     sync.Mutex
	store  *memory.Store
	ranges []string
	fail   map[string]error
}

func newRangeSource(txs ...core.RawTransaction) *rangeSource {
	return &rangeSource{store: memory.New(txs), fail: map[string]error{}}
}

func (s *rangeSource) FetchTransactions(ctx context.Context, start, end core.Date) ([]core.RawTransaction, error) {
	key := start.String() + ".." + end.String()
	s.mu.Lock()
	s.ranges = append(s.ranges, key)
	err := s.fail[key]
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.store.FetchTransactions(ctx, start, end)
}

func spend(date, amount string) core.RawTransaction {
	return core.RawTransaction{Date: date, Amount: decimal.RequireFromString(amount)}
}

func TestComparisonService_Run(t *testing.T) {
	// April has 30 days, March 31: day 10 maps to ceil(10.33) = 11.
	src := newRangeSource(
		spend("2024-03-02", "100"),
		spend("2024-03-09", "50"),
		spend("2024-03-12", "25"),
		spend("2024-04-01", "20"),
		spend("2024-04-04", "30"),
		spend("2024-04-10", "40"),
		spend("2024-04-20", "60"),
		core.RawTransaction{Date: "2024-04-05", Amount: decimal.NewFromInt(3000), IsIncome: true},
	)
	svc := NewComparisonService(src, "USD")

	rep, err := svc.Run(context.Background(), core.NewDate(2024, 4, 10))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"2024-04-01..2024-04-10", "2024-03-01..2024-03-31", "2024-04-01..2024-04-30"}, src.ranges)

	assert.Equal(t, 11, rep.Comparable.EquivalentDay)
	assert.Equal(t, 12, rep.Comparable.Day, "12 is one day away, 9 is two")
	assert.True(t, rep.Comparable.Value.Equal(decimal.NewFromInt(175)))

	assert.True(t, rep.Result.CurrentTotal.Equal(decimal.NewFromInt(90)))
	assert.True(t, rep.Result.Delta.Equal(decimal.NewFromInt(-85)))
	assert.Equal(t, core.Less, rep.Result.Direction)
	assert.Equal(t, "Spending this month: $90.00\n$85.00 less than last month", rep.Summary)

	require.Len(t, rep.Projected, 2)
	assert.Equal(t, 10, rep.Projected[0].Day)
	assert.True(t, rep.Projected[0].Cumulative.Equal(decimal.NewFromInt(90)))
	assert.Equal(t, 20, rep.Projected[1].Day)
	assert.True(t, rep.Projected[1].Cumulative.Equal(decimal.NewFromInt(150)))

	assert.Len(t, rep.Current, 3)
	assert.Len(t, rep.Previous, 3)
	assert.NotEqual(t, uuid.Nil, rep.RunID)
}

func TestComparisonService_LastDayOfMonthSkipsProjection(t *testing.T) {
	src := newRangeSource(spend("2024-03-05", "10"), spend("2024-04-05", "20"))
	rep, err := NewComparisonService(src, "EUR").Run(context.Background(), core.NewDate(2024, 4, 30))
	require.NoError(t, err)

	assert.Len(t, src.ranges, 2)
	assert.Empty(t, rep.Projected)
	assert.Equal(t, 31, rep.Comparable.EquivalentDay)
	assert.True(t, rep.Result.Delta.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, core.More, rep.Result.Direction)
}

func TestComparisonService_EmptyPreviousMonthComparesAgainstZero(t *testing.T) {
	src := newRangeSource(spend("2024-04-01", "20"), spend("2024-04-03", "30"))
	rep, err := NewComparisonService(src, "USD").Run(context.Background(), core.NewDate(2024, 4, 3))
	require.NoError(t, err)

	assert.False(t, rep.Comparable.Found())
	assert.True(t, rep.Result.Delta.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "Spending this month: $50.00\n$50.00 more than last month", rep.Summary)
}

func TestComparisonService_EmptyCurrentMonthFails(t *testing.T) {
	src := newRangeSource(spend("2024-03-05", "10"))
	_, err := NewComparisonService(src, "USD").Run(context.Background(), core.NewDate(2024, 4, 3))
	assert.ErrorIs(t, err, core.ErrEmptyData)
}

func TestComparisonService_OnlyIncomeThisMonthIsZeroSpending(t *testing.T) {
	src := newRangeSource(
		core.RawTransaction{Date: "2024-04-01", Amount: decimal.NewFromInt(3000), IsIncome: true},
		spend("2024-03-01", "10"),
	)
	rep, err := NewComparisonService(src, "USD").Run(context.Background(), core.NewDate(2024, 4, 3))
	require.NoError(t, err)
	assert.True(t, rep.Result.CurrentTotal.IsZero())
	assert.Equal(t, core.Less, rep.Result.Direction)
}

func TestComparisonService_UpstreamFailure(t *testing.T) {
	src := newRangeSource(spend("2024-04-01", "20"))
	src.fail["2024-03-01..2024-03-31"] = upstreamErr("status 500")

	_, err := NewComparisonService(src, "USD").Run(context.Background(), core.NewDate(2024, 4, 3))
	require.ErrorIs(t, err, core.ErrUpstream)
	assert.Contains(t, err.Error(), "previous month")
}

func TestComparisonService_TerminalErrors(t *testing.T) {
	src := newRangeSource(spend("2024-04-01", "20"))
	_, err := NewComparisonService(src, "USD").Run(context.Background(), core.Date{})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	bad := &rangeSource{store: memory.New(nil), fail: map[string]error{}}
	bad.fail["2024-04-01..2024-04-03"] = core.ErrMalformedRecord
	_, err = NewComparisonService(bad, "USD").Run(context.Background(), core.NewDate(2024, 4, 3))
	assert.ErrorIs(t, err, core.ErrMalformedRecord)
}

func upstreamErr(msg string) error {
	return errors.Join(core.ErrUpstream, errors.New(msg))
}
