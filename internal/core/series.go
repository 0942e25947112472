package core

import "github.com/shopspring/decimal"

// Point is the running total after one transaction.
type Point struct {
	Day        int
	Cumulative decimal.Decimal
}

// MonthSeries is the running total of one month's spending, ordered by day.
// Several points may share a day; the last of them holds that day's final value.
type MonthSeries []Point

// BuildSeries accumulates the amounts of txs, which must already be sorted by
// date and belong to a single month.
func BuildSeries(txs []Transaction) MonthSeries {
	series := make(MonthSeries, 0, len(txs))
	running := decimal.Zero
	for _, tx := range txs {
		running = running.Add(tx.Amount)
		series = append(series, Point{Day: tx.Date.Day(), Cumulative: running})
	}
	return series
}

// Total returns the highest cumulative value, or zero for an empty series.
func (s MonthSeries) Total() decimal.Decimal {
	if len(s) == 0 {
		return decimal.Zero
	}
	total := s[0].Cumulative
	for _, p := range s[1:] {
		if p.Cumulative.GreaterThan(total) {
			total = p.Cumulative
		}
	}
	return total
}

// Days returns the distinct days present in the series, ascending.
func (s MonthSeries) Days() []int {
	var days []int
	for _, p := range s {
		if n := len(days); n > 0 && days[n-1] == p.Day {
			continue
		}
		days = append(days, p.Day)
	}
	return days
}

// ValueOn returns the cumulative value of the last point recorded on day.
func (s MonthSeries) ValueOn(day int) (decimal.Decimal, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Day == day {
			return s[i].Cumulative, true
		}
	}
	return decimal.Zero, false
}

// ProjectSeries returns the part of the full-month series from refDay on,
// anchored to where the month-to-date series stands on refDay so that the
// two lines join. It is empty when nothing happens from refDay on.
func ProjectSeries(full MonthSeries, refDay int, current MonthSeries) MonthSeries {
	var rest MonthSeries
	for _, p := range full {
		if p.Day >= refDay {
			rest = append(rest, p)
		}
	}
	if len(rest) == 0 {
		return nil
	}

	anchor, ok := current.ValueOn(refDay)
	if !ok {
		return rest
	}

	projected := MonthSeries{{Day: refDay, Cumulative: anchor}}
	for _, p := range rest {
		if p.Day == refDay {
			continue
		}
		projected = append(projected, p)
	}
	return projected
}
