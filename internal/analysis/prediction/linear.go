package prediction

import (
	"math"

	"github.com/Alias1177/dtiquant/internal/calculate"
	"github.com/Alias1177/dtiquant/internal/model"
)

const linearWindow = 90

// linearForecast fits a least-squares line through the trailing closes and extends it over the horizon
func linearForecast(closes []float64, horizon int) model.LinearForecast {
	window := calculate.Tail(closes, linearWindow)
	reg := calculate.LinearRegression(window)

	lf := model.LinearForecast{
		Slope:         reg.Slope,
		Intercept:     reg.Intercept,
		RSquared:      reg.RSquared,
		StandardError: reg.StdErr,
		Trend:         model.TrendNeutral,
		Strength:      math.Abs(reg.Slope) * float64(horizon),
		Projection:    make([]model.ProjectedPoint, 0, horizon),
	}

	switch {
	case reg.Slope > 0:
		lf.Trend = model.TrendBullish
	case reg.Slope < 0:
		lf.Trend = model.TrendBearish
	}

	last := float64(len(window) - 1)
	for day := 1; day <= horizon; day++ {
		prediction := reg.Predict(last + float64(day))
		lf.Projection = append(lf.Projection, model.ProjectedPoint{
			Day:          day,
			Prediction:   prediction,
			Confidence68: model.Band{Lower: prediction - reg.StdErr, Upper: prediction + reg.StdErr},
			Confidence95: model.Band{Lower: prediction - 2*reg.StdErr, Upper: prediction + 2*reg.StdErr},
		})
	}

	if len(lf.Projection) > 0 {
		lf.FinalPrice = lf.Projection[len(lf.Projection)-1].Prediction
	}
	return lf
}
