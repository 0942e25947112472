package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(year, month, day int, amount string) Transaction {
	return Transaction{Date: NewDate(year, month, day), Amount: decimal.RequireFromString(amount)}
}

func series(points ...any) MonthSeries {
	var s MonthSeries
	for i := 0; i < len(points); i += 2 {
		s = append(s, Point{Day: points[i].(int), Cumulative: decimal.RequireFromString(points[i+1].(string))})
	}
	return s
}

// assertSeries compares day and value of each point, ignoring decimal exponents.
func assertSeries(t *testing.T, want, got MonthSeries) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Day, got[i].Day, "point %d day", i)
		assert.True(t, want[i].Cumulative.Equal(got[i].Cumulative), "point %d: want %s got %s", i, want[i].Cumulative, got[i].Cumulative)
	}
}

func TestBuildSeries(t *testing.T) {
	got := BuildSeries([]Transaction{
		tx(2024, 3, 1, "20"),
		tx(2024, 3, 3, "10.25"),
		tx(2024, 3, 3, "4.75"),
		tx(2024, 3, 9, "-5"),
	})
	assertSeries(t, series(1, "20", 3, "30.25", 3, "35", 9, "30"), got)

	assert.Equal(t, []int{1, 3, 9}, got.Days())
	v, ok := got.ValueOn(3)
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromInt(35)))
	_, ok = got.ValueOn(4)
	assert.False(t, ok)
	assert.True(t, got.Total().Equal(decimal.NewFromInt(35)), "total is the highest running value")
}

func TestBuildSeries_Empty(t *testing.T) {
	got := BuildSeries(nil)
	assert.Empty(t, got)
	assert.True(t, got.Total().IsZero())
	assert.Empty(t, got.Days())
}

func TestBuildSeries_Idempotent(t *testing.T) {
	txs := []Transaction{tx(2024, 3, 1, "1"), tx(2024, 3, 2, "2"), tx(2024, 3, 2, "3")}
	assert.Equal(t, BuildSeries(txs), BuildSeries(txs))
}

func TestProjectSeries(t *testing.T) {
	full := series(1, "20", 3, "50", 3, "55", 10, "80", 20, "100")

	t.Run("anchored on reference day", func(t *testing.T) {
		current := series(1, "20", 3, "50")
		assertSeries(t, series(3, "50", 10, "80", 20, "100"), ProjectSeries(full, 3, current))
	})

	t.Run("anchor prepended when full month is quiet that day", func(t *testing.T) {
		current := series(1, "20", 5, "42")
		assertSeries(t, series(5, "42", 10, "80", 20, "100"), ProjectSeries(full, 5, current))
	})

	t.Run("no spending on reference day leaves the rest untouched", func(t *testing.T) {
		current := series(1, "20", 3, "50")
		assertSeries(t, series(10, "80", 20, "100"), ProjectSeries(full, 7, current))
	})

	t.Run("nothing left", func(t *testing.T) {
		assert.Empty(t, ProjectSeries(full, 25, series(1, "20")))
	})
}
