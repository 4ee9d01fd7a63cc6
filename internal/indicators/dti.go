package indicators

import (
	"fmt"
	"math"

	"github.com/Alias1177/dtiquant/internal/calculate"
	"github.com/Alias1177/dtiquant/internal/model"
)

// DTI computes Blau's Directional Trend Index for every candle.
// The first value is 0 because it has no previous bar to diff against.
func DTI(candles []model.Candle, periods model.IndicatorPeriods) []float64 {
	n := len(candles)
	out := make([]float64, n)
	if n < 2 {
		return out
	}

	diff := make([]float64, n)
	absDiff := make([]float64, n)
	for i := 1; i < n; i++ {
		hmu := math.Max(candles[i].High-candles[i-1].High, 0)
		lmd := math.Max(candles[i-1].Low-candles[i].Low, 0)
		diff[i] = hmu - lmd
		absDiff[i] = math.Abs(hmu - lmd)
	}

	num := tripleSmooth(diff, periods)
	den := tripleSmooth(absDiff, periods)
	for i := 1; i < n; i++ {
		if den[i] == 0 {
			continue
		}
		out[i] = 100 * num[i] / den[i]
	}
	return out
}

func tripleSmooth(values []float64, periods model.IndicatorPeriods) []float64 {
	return calculate.EMASeries(calculate.EMASeries(calculate.EMASeries(values, periods.R), periods.S), periods.U)
}

// WeeklyCandles folds daily candles into 7-day blocks anchored at the first candle date.
// It also returns the block index of every input candle.
func WeeklyCandles(candles []model.Candle) ([]model.Candle, []int) {
	if len(candles) == 0 {
		return nil, nil
	}

	anchor := candles[0].Date
	blocks := make([]model.Candle, 0, len(candles)/model.PeriodLength+1)
	owner := make([]int, len(candles))
	lastPeriod := math.MinInt

	for i, c := range candles {
		period := model.PeriodIndex(anchor, c.Date)
		if period != lastPeriod {
			blocks = append(blocks, model.Candle{
				Date: c.Date,
				Open: c.Open,
				High: c.High,
				Low:  c.Low,
			})
			lastPeriod = period
		}
		b := &blocks[len(blocks)-1]
		b.High = math.Max(b.High, c.High)
		b.Low = math.Min(b.Low, c.Low)
		b.Close = c.Close
		b.Volume += c.Volume
		owner[i] = len(blocks) - 1
	}
	return blocks, owner
}

// DTISeries is the default indicator factory: daily DTI plus the DTI of the
// weekly blocks spread over every day of its block.
func DTISeries(candles []model.Candle, periods model.IndicatorPeriods) ([]model.IndicatorPoint, error) {
	if err := periods.Validate(); err != nil {
		return nil, err
	}
	for i := 1; i < len(candles); i++ {
		if !candles[i].Date.After(candles[i-1].Date) {
			return nil, fmt.Errorf("%w: candle dates must be ascending at index %d", model.ErrInvalidInput, i)
		}
	}

	daily := DTI(candles, periods)
	blocks, owner := WeeklyCandles(candles)
	weekly := DTI(blocks, periods)

	points := make([]model.IndicatorPoint, len(candles))
	for i, c := range candles {
		points[i] = model.IndicatorPoint{
			Date:     c.Date,
			Daily:    daily[i],
			SevenDay: weekly[owner[i]],
		}
	}
	return points, nil
}
