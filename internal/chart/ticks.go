package chart

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
	"gonum.org/v1/plot"
)

// moneyTicks labels the default ticks as currency amounts.
type moneyTicks struct {
	format func(decimal.Decimal) string
}

func (m moneyTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = m.format(decimal.NewFromFloat(ticks[i].Value))
		}
	}
	return ticks
}

// dayTicks labels every day, or every other day when the axis is long.
type dayTicks struct{}

func (dayTicks) Ticks(min, max float64) []plot.Tick {
	lo, hi := int(math.Ceil(min)), int(math.Floor(max))
	step := 1
	if hi-lo > 16 {
		step = 2
	}
	var ticks []plot.Tick
	for d := lo; d <= hi; d++ {
		t := plot.Tick{Value: float64(d)}
		if (d-lo)%step == 0 {
			t.Label = strconv.Itoa(d)
		}
		ticks = append(ticks, t)
	}
	return ticks
}
