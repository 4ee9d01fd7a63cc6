package technical

import (
	"math"

	"github.com/Alias1177/dtiquant/internal/calculate"
	"github.com/Alias1177/dtiquant/internal/model"
)

// FeatureWindow is how many trailing candles the feature snapshot looks at
const FeatureWindow = 90

const (
	volumeWindow = 20
	rangeWindow  = 30
	annualFactor = 252
)

// ExtractFeatures builds the technical snapshot from the last 90 candles.
// Short inputs degrade gracefully; callers enforce their own minimum history.
func ExtractFeatures(candles []model.Candle) model.FeatureVector {
	if len(candles) == 0 {
		return model.FeatureVector{}
	}
	if len(candles) > FeatureWindow {
		candles = candles[len(candles)-FeatureWindow:]
	}

	closes := model.Closes(candles)
	current := closes[len(closes)-1]

	support, resistance := SupportResistance(candles, rangeWindow)

	fv := model.FeatureVector{
		CurrentPrice:  current,
		Slope30:       calculate.Slope(closes, 30),
		Slope60:       calculate.Slope(closes, 60),
		Slope90:       calculate.Slope(closes, 90),
		MA7:           calculate.SMA(closes, 7),
		MA14:          calculate.SMA(closes, 14),
		MA30:          calculate.SMA(closes, 30),
		MA50:          calculate.SMA(closes, 50),
		Volatility14:  Volatility(closes, 14),
		Volatility30:  Volatility(closes, 30),
		RSI14:         calculate.RSI(closes, 14),
		Momentum10:    Momentum(closes, 10),
		Support:       support,
		Resistance:    resistance,
		PricePosition: 0.5,
	}

	if resistance > support {
		fv.PricePosition = (current - support) / (resistance - support)
	}

	fv.VolumeTrend, fv.VolumeRatio = volumeFeatures(candles)
	return fv
}

// Volatility is the annualized sample standard deviation of daily returns over the trailing window
func Volatility(closes []float64, window int) float64 {
	returns := calculate.Returns(calculate.Tail(closes, window+1))
	if len(returns) < 2 {
		return 0
	}
	return calculate.StdDev(returns, calculate.Average(returns)) * math.Sqrt(annualFactor)
}

// Momentum is the raw price change over the lookback
func Momentum(closes []float64, lookback int) float64 {
	if len(closes) <= lookback {
		return 0
	}
	return closes[len(closes)-1] - closes[len(closes)-1-lookback]
}

// SupportResistance returns the lowest low and highest high of the trailing window
func SupportResistance(candles []model.Candle, window int) (float64, float64) {
	if len(candles) == 0 {
		return 0, 0
	}
	if len(candles) > window {
		candles = candles[len(candles)-window:]
	}

	support, resistance := candles[0].Low, candles[0].High
	for _, c := range candles[1:] {
		support = math.Min(support, c.Low)
		resistance = math.Max(resistance, c.High)
	}
	return support, resistance
}

// volumeFeatures returns the normalized OLS volume slope and the latest volume relative to the mean
func volumeFeatures(candles []model.Candle) (trend, ratio float64) {
	if len(candles) > volumeWindow {
		candles = candles[len(candles)-volumeWindow:]
	}

	volumes := make([]float64, len(candles))
	for i, c := range candles {
		volumes[i] = float64(c.Volume)
	}

	mean := calculate.Average(volumes)
	if mean == 0 {
		return 0, 1
	}
	return calculate.LinearRegression(volumes).Slope / mean, volumes[len(volumes)-1] / mean
}
