package prediction

import (
	"time"

	"github.com/Alias1177/dtiquant/internal/calculate"
	"github.com/Alias1177/dtiquant/internal/model"
)

// patternForecast projects the current price with the median outcome of recent closed trades
func patternForecast(trades []model.Trade, asOf time.Time, current float64, lookbackYears int) model.PatternForecast {
	since := asOf.AddDate(-lookbackYears, 0, 0)

	pls := make([]float64, 0, len(trades))
	wins := 0
	for _, t := range trades {
		if !t.IsClosed() || t.EntryDate.Before(since) || t.EntryDate.After(asOf) {
			continue
		}
		pls = append(pls, t.PLPercent)
		if t.PLPercent > 0 {
			wins++
		}
	}

	if len(pls) == 0 {
		return model.PatternForecast{}
	}

	worst, best := calculate.MinMax(pls)

	pf := model.PatternForecast{
		Available:       true,
		SampleSize:      len(pls),
		WinRate:         float64(wins) / float64(len(pls)),
		MeanPLPercent:   calculate.Average(pls),
		MedianPLPercent: calculate.Median(pls),
		BestCase:        best,
		WorstCase:       worst,
	}
	pf.PredictedPrice = current * (1 + pf.MedianPLPercent/100)
	pf.Confidence = pf.WinRate * 100
	return pf
}
