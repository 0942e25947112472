package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name       string
		current    MonthSeries
		comparable string
		total      string
		delta      string
		dir        Direction
	}{
		{"more", series(1, "20", 3, "50"), "10", "50", "40", More},
		{"less", series(1, "20"), "35.5", "20", "-15.5", Less},
		{"same", series(1, "12.345"), "12.35", "12.35", "0", Same},
		{"empty current", nil, "0", "0", "0", Same},
		{"empty current against spending", nil, "8", "0", "-8", Less},
		{"rounds delta", series(1, "10.004"), "3.333", "10", "6.67", More},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Compare(tt.current, decimal.RequireFromString(tt.comparable))
			assert.True(t, r.CurrentTotal.Equal(decimal.RequireFromString(tt.total)), "total %s", r.CurrentTotal)
			assert.True(t, r.Delta.Equal(decimal.RequireFromString(tt.delta)), "delta %s", r.Delta)
			assert.Equal(t, tt.dir, r.Direction)
		})
	}
}

func TestSummary(t *testing.T) {
	usd := MoneyFormatter("USD")

	r := Compare(series(1, "20", 3, "50"), decimal.NewFromInt(10))
	assert.Equal(t, "Spending this month: $50.00\n$40.00 more than last month", r.Summary(usd))

	r = Compare(series(1, "1234.5"), decimal.NewFromInt(2000))
	assert.Equal(t, "Spending this month: $1,234.50\n$765.50 less than last month", r.Summary(usd))

	r = Compare(series(1, "5"), decimal.NewFromInt(5))
	assert.Equal(t, "Spending this month: $5.00\nYou've spent the same as you did last month", r.Summary(usd))
}

// Current month: 20 on day 1, 30 on day 3. Previous month: 10 on day 1, 15 on
// day 5. Reference day 3 of a 30 day month against a 28 day month.
func TestEndToEnd(t *testing.T) {
	currentTx, err := Normalize([]RawTransaction{
		raw("2023-04-03", "30", false, false),
		raw("2023-04-01", "20", false, false),
	}, NewDate(2023, 4, 1), NewDate(2023, 4, 3))
	require.NoError(t, err)
	previousTx, err := Normalize([]RawTransaction{
		raw("2023-02-01", "10", false, false),
		raw("2023-02-05", "15", false, false),
	}, NewDate(2023, 2, 1), NewDate(2023, 2, 28))
	require.NoError(t, err)

	current := BuildSeries(currentTx)
	previous := BuildSeries(previousTx)

	eq := EquivalentDay(3, 30, 28)
	assert.Equal(t, 3, eq)

	c := ResolveComparable(previous, eq)
	assert.Equal(t, 1, c.Day)
	assert.True(t, c.Value.Equal(decimal.NewFromInt(10)))

	r := Compare(current, c.Value)
	assert.True(t, r.CurrentTotal.Equal(decimal.NewFromInt(50)))
	assert.True(t, r.Delta.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, More, r.Direction)
}
