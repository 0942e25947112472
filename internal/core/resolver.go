package core

import "github.com/shopspring/decimal"

// Comparable is the point of the previous month matched against the
// reference day. Day is zero when no point was found and Value is then zero.
type Comparable struct {
	EquivalentDay int
	Day           int
	Value         decimal.Decimal
}

// Found reports whether a previous-month point backs the value.
func (c Comparable) Found() bool { return c.Day > 0 }

// EquivalentDay maps refDay of a month of daysInCurrent days onto a month of
// daysInPrevious days: ceil(refDay / daysInCurrent * daysInPrevious), kept
// within [1, daysInPrevious].
func EquivalentDay(refDay, daysInCurrent, daysInPrevious int) int {
	if daysInCurrent <= 0 || daysInPrevious <= 0 {
		return 0
	}
	// integer ceiling of refDay*daysInPrevious/daysInCurrent
	day := (refDay*daysInPrevious + daysInCurrent - 1) / daysInCurrent
	return min(max(day, 1), daysInPrevious)
}

// ResolveComparable finds the day of prev closest to equivalentDay, the
// lowest day winning ties, and returns its final cumulative value. An empty
// series resolves to zero.
func ResolveComparable(prev MonthSeries, equivalentDay int) Comparable {
	c := Comparable{EquivalentDay: equivalentDay, Value: decimal.Zero}

	days := prev.Days()
	if len(days) == 0 {
		return c
	}

	nearest := days[0]
	for _, d := range days[1:] {
		if abs(d-equivalentDay) < abs(nearest-equivalentDay) {
			nearest = d
		}
	}

	for _, day := range []int{nearest, nearest - 1} {
		if v, ok := prev.ValueOn(day); ok {
			c.Day, c.Value = day, v
			return c
		}
	}
	return c
}

// ComparableFor resolves the previous-month value equivalent to ref.
func ComparableFor(ref Date, b Boundaries, prev MonthSeries) Comparable {
	eq := EquivalentDay(ref.Day(), ref.DaysInMonth(), b.DaysInPreviousMonth())
	return ResolveComparable(prev, eq)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
