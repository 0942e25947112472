package chart

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confronto/internal/core"
	"confronto/internal/services"
	"confronto/internal/sources/memory"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func report(t *testing.T, ref core.Date, txs ...core.RawTransaction) *services.Report {
	t.Helper()
	rep, err := services.NewComparisonService(memory.New(txs), "USD").Run(context.Background(), ref)
	require.NoError(t, err)
	return rep
}

func spend(date, amount string) core.RawTransaction {
	return core.RawTransaction{Date: date, Amount: decimal.RequireFromString(amount)}
}

func TestRender(t *testing.T) {
	rep := report(t, core.NewDate(2024, 4, 10),
		spend("2024-03-02", "100"),
		spend("2024-03-12", "75"),
		spend("2024-04-01", "20"),
		spend("2024-04-10", "70"),
		spend("2024-04-22", "60"),
	)
	require.NotEmpty(t, rep.Projected)

	dir := filepath.Join(t.TempDir(), "charts")
	path, err := Render(rep, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2024-04-10-cumulative_spending_comparison.png"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, pngMagic), "not a PNG")
}

func TestRender_SparseData(t *testing.T) {
	// Nothing last month and only income this month: every line is empty.
	rep := report(t, core.NewDate(2024, 4, 30),
		core.RawTransaction{Date: "2024-04-01", Amount: decimal.NewFromInt(1000), IsIncome: true},
	)
	path, err := Render(rep, t.TempDir())
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestYBounds_IncludeRefunds(t *testing.T) {
	rep := report(t, core.NewDate(2024, 4, 10),
		spend("2024-03-02", "100"),
		spend("2024-04-01", "20"),
		spend("2024-04-03", "-80"),
	)
	lo, hi := yBounds(rep)
	assert.Less(t, lo, -60.0, "the refund dip stays visible")
	assert.Greater(t, hi, 100.0)

	p, err := build(rep)
	require.NoError(t, err)
	assert.Equal(t, lo, p.Y.Min)
	assert.Equal(t, hi, p.Y.Max)
}

func TestYBounds_NoData(t *testing.T) {
	lo, hi := yBounds(&services.Report{})
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 0.25, hi)
}

func TestSeriesPlotters(t *testing.T) {
	s := core.MonthSeries{
		{Day: 1, Cumulative: decimal.NewFromInt(10)},
		{Day: 4, Cumulative: decimal.NewFromInt(25)},
		{Day: 9, Cumulative: decimal.NewFromInt(40)},
	}

	line, points, err := seriesPlotters(s, thisMonth, true)
	require.NoError(t, err)
	require.NotNil(t, points, "every day gets a marker")
	assert.Len(t, points.XYs, len(s))
	assert.Empty(t, line.LineStyle.Dashes)

	line, points, err = seriesPlotters(s, projection, false)
	require.NoError(t, err)
	assert.Nil(t, points)
	assert.Equal(t, dashPattern, line.LineStyle.Dashes)
}

func TestMoneyTicks(t *testing.T) {
	ticks := moneyTicks{format: core.MoneyFormatter("USD")}.Ticks(0, 1000)
	require.NotEmpty(t, ticks)
	labelled := 0
	for _, tk := range ticks {
		if tk.Label != "" {
			labelled++
			assert.Contains(t, tk.Label, "$")
		}
	}
	assert.Positive(t, labelled)
}

func TestDayTicks(t *testing.T) {
	ticks := dayTicks{}.Ticks(1, 10)
	require.Len(t, ticks, 10)
	assert.Equal(t, "1", ticks[0].Label)
	assert.Equal(t, "10", ticks[9].Label)

	ticks = dayTicks{}.Ticks(1, 31)
	require.Len(t, ticks, 31)
	assert.Equal(t, "", ticks[1].Label)
	assert.Equal(t, "31", ticks[30].Label)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "2023-01-15-cumulative_spending_comparison.png", FileName(core.NewDate(2023, 1, 15)))
}
