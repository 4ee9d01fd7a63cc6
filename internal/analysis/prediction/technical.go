package prediction

import (
	"fmt"

	"github.com/Alias1177/dtiquant/internal/model"
)

const (
	strongPoints   = 2.0
	moderatePoints = 1.0
)

type scorecard struct {
	bullish float64
	bearish float64
	factors []string
}

func (s *scorecard) bull(points float64, format string, args ...any) {
	s.bullish += points
	s.factors = append(s.factors, fmt.Sprintf(format, args...))
}

func (s *scorecard) bear(points float64, format string, args ...any) {
	s.bearish += points
	s.factors = append(s.factors, fmt.Sprintf(format, args...))
}

// scoreTechnical accumulates bullish and bearish points from independent rules
func scoreTechnical(fv model.FeatureVector, osc model.OscillatorReading) model.TechnicalForecast {
	var s scorecard

	// Trend
	switch {
	case fv.Slope30 > 0 && fv.Slope60 > 0:
		s.bull(strongPoints, "Uptrend confirmed by 30d and 60d slopes")
	case fv.Slope30 < 0 && fv.Slope60 < 0:
		s.bear(strongPoints, "Downtrend confirmed by 30d and 60d slopes")
	case fv.Slope30 > 0:
		s.bull(moderatePoints, "Short-term uptrend (30d slope %.4f)", fv.Slope30)
	case fv.Slope30 < 0:
		s.bear(moderatePoints, "Short-term downtrend (30d slope %.4f)", fv.Slope30)
	}

	// Moving average stacking
	if fv.MA7 > fv.MA14 && fv.MA14 > fv.MA30 {
		s.bull(moderatePoints, "Moving averages stacked bullish (7 > 14 > 30)")
	} else if fv.MA7 < fv.MA14 && fv.MA14 < fv.MA30 {
		s.bear(moderatePoints, "Moving averages stacked bearish (7 < 14 < 30)")
	}

	// RSI
	switch {
	case fv.RSI14 < 30:
		s.bull(strongPoints, "RSI oversold (%.1f)", fv.RSI14)
	case fv.RSI14 < 40:
		s.bull(moderatePoints, "RSI weak (%.1f)", fv.RSI14)
	case fv.RSI14 > 70:
		s.bear(strongPoints, "RSI overbought (%.1f)", fv.RSI14)
	case fv.RSI14 > 60:
		s.bear(moderatePoints, "RSI elevated (%.1f)", fv.RSI14)
	}

	// Oscillator: negative readings are oversold and count as bullish
	if osc.Daily < 0 {
		s.bull(moderatePoints, "DTI negative (%.2f)", osc.Daily)
	} else if osc.Daily > 0 {
		s.bear(moderatePoints, "DTI positive (%.2f)", osc.Daily)
	}
	if osc.Weekly != nil {
		if *osc.Weekly < 0 {
			s.bull(moderatePoints, "Weekly DTI negative (%.2f)", *osc.Weekly)
		} else if *osc.Weekly > 0 {
			s.bear(moderatePoints, "Weekly DTI positive (%.2f)", *osc.Weekly)
		}
	}

	// Volume confirms whatever the short trend is doing
	if fv.VolumeRatio > 1.5 {
		if fv.Slope30 > 0 {
			s.bull(moderatePoints, "Volume spike (%.2fx) confirms uptrend", fv.VolumeRatio)
		} else if fv.Slope30 < 0 {
			s.bear(moderatePoints, "Volume spike (%.2fx) confirms downtrend", fv.VolumeRatio)
		}
	}

	// Position in the 30-day range
	if fv.PricePosition < 0.3 {
		s.bull(moderatePoints, "Price near 30-day support (%.0f%% of range)", fv.PricePosition*100)
	} else if fv.PricePosition > 0.7 {
		s.bear(moderatePoints, "Price near 30-day resistance (%.0f%% of range)", fv.PricePosition*100)
	}

	tf := model.TechnicalForecast{
		BullishPoints:  s.bullish,
		BearishPoints:  s.bearish,
		BullishPercent: 50,
		Factors:        s.factors,
	}
	if tf.Factors == nil {
		tf.Factors = []string{}
	}
	if total := s.bullish + s.bearish; total > 0 {
		tf.BullishPercent = s.bullish / total * 100
	}

	switch {
	case tf.BullishPercent >= 70:
		tf.Signal = model.SignalBullish
		tf.Strength = model.StrengthModerate
		if tf.BullishPercent >= 85 {
			tf.Strength = model.StrengthStrong
		}
	case tf.BullishPercent <= 30:
		tf.Signal = model.SignalBearish
		tf.Strength = model.StrengthModerate
		if tf.BullishPercent <= 15 {
			tf.Strength = model.StrengthStrong
		}
	default:
		tf.Signal = model.SignalNeutral
		tf.Strength = model.StrengthWeak
	}
	return tf
}
