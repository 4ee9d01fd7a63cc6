package backtest

import "github.com/Alias1177/dtiquant/internal/model"

// periodLookup resolves, for every candle index, the seven-day value of the
// nearest earlier 7-day block that contains data.
type periodLookup struct {
	prevValue []float64
	hasPrev   []bool
}

func newPeriodLookup(candles []model.Candle, series []model.IndicatorPoint) periodLookup {
	lookup := periodLookup{
		prevValue: make([]float64, len(candles)),
		hasPrev:   make([]bool, len(candles)),
	}
	if len(candles) == 0 {
		return lookup
	}

	anchor := candles[0].Date
	currentPeriod := model.PeriodIndex(anchor, candles[0].Date)
	var lastValue, prevValue float64
	var hasPrev bool

	for i, c := range candles {
		period := model.PeriodIndex(anchor, c.Date)
		if period != currentPeriod {
			// the block we just left becomes "previous" for everything after it
			prevValue = lastValue
			hasPrev = true
			currentPeriod = period
		}
		lookup.prevValue[i] = prevValue
		lookup.hasPrev[i] = hasPrev
		lastValue = series[i].SevenDay
	}
	return lookup
}

// filterPasses reports whether the current 7-day value is above the previous block's.
// The very first block has nothing to compare against and always passes.
func (l periodLookup) filterPasses(i int, current float64) bool {
	if !l.hasPrev[i] {
		return true
	}
	return current > l.prevValue[i]
}
