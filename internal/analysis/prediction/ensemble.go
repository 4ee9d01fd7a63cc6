package prediction

import (
	"math"

	"github.com/Alias1177/dtiquant/internal/model"
)

const (
	linearWeight     = 0.30
	monteCarloWeight = 0.40
	patternWeight    = 0.30
)

// combine blends the price targets, weighting each predictor by how much it can be trusted
func combine(current float64, linear model.LinearForecast, mc model.MonteCarloForecast, pattern model.PatternForecast) model.EnsembleForecast {
	weights := model.EnsembleWeights{
		Linear:     linearWeight * linear.RSquared,
		MonteCarlo: monteCarloWeight,
	}
	if pattern.Available {
		weights.Pattern = patternWeight * pattern.Confidence / 100
	}

	predicted := mc.Percentiles.P50
	if total := weights.Linear + weights.MonteCarlo + weights.Pattern; total > 0 {
		predicted = (weights.Linear*linear.FinalPrice +
			weights.MonteCarlo*mc.Percentiles.P50 +
			weights.Pattern*pattern.PredictedPrice) / total
	}

	ef := model.EnsembleForecast{
		PredictedPrice:        predicted,
		ExpectedReturnPercent: (predicted - current) / current * 100,
		PriceRange: model.PriceRange{
			Low:         mc.Percentiles.P25,
			Mid:         predicted,
			High:        mc.Percentiles.P75,
			ExtremeLow:  mc.Percentiles.P5,
			ExtremeHigh: mc.Percentiles.P95,
		},
		Weights: weights,
	}
	ef.Classification = classify(ef.ExpectedReturnPercent)
	return ef
}

func classify(expectedReturn float64) string {
	switch {
	case expectedReturn > 5:
		return model.ClassStrongBullish
	case expectedReturn > 2:
		return model.ClassModerateBullish
	case expectedReturn < -5:
		return model.ClassStrongBearish
	case expectedReturn < -2:
		return model.ClassModerateBearish
	default:
		return model.ClassNeutral
	}
}

// confidence averages how sure each predictor is, on a 0..100 scale
func confidence(linear model.LinearForecast, mc model.MonteCarloForecast, pattern model.PatternForecast, tech model.TechnicalForecast) float64 {
	components := []float64{
		linear.RSquared * 100,
		math.Abs(tech.BullishPercent-50) * 2,
		monteCarloCertainty(mc.Percentiles),
	}
	if pattern.Available {
		components = append(components, pattern.Confidence)
	}

	var sum float64
	for _, c := range components {
		sum += c
	}
	return clamp(sum/float64(len(components)), 0, 100)
}

// monteCarloCertainty shrinks as the 90% band of terminal prices widens relative to the median
func monteCarloCertainty(p model.Percentiles) float64 {
	if p.P50 <= 0 {
		return 0
	}
	spread := (p.P95 - p.P5) / (2 * p.P50)
	return 100 * (1 - math.Min(1, spread))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
