package model

import (
	"fmt"
	"time"
)

// IndicatorPoint holds the oscillator values aligned with one candle.
// SevenDay is constant across every day of the same 7-day period.
type IndicatorPoint struct {
	Date     time.Time `json:"date"`
	Daily    float64   `json:"daily"`
	SevenDay float64   `json:"seven_day"`
}

// IndicatorPeriods are the three smoothing periods of the DTI oscillator
type IndicatorPeriods struct {
	R int `json:"r"`
	S int `json:"s"`
	U int `json:"u"`
}

// DefaultIndicatorPeriods is the classic 14/10/5 DTI setup
var DefaultIndicatorPeriods = IndicatorPeriods{R: 14, S: 10, U: 5}

// Validate checks that every period is usable
func (p IndicatorPeriods) Validate() error {
	if p.R < 1 || p.S < 1 || p.U < 1 {
		return fmt.Errorf("%w: indicator periods must be positive, got %d/%d/%d", ErrInvalidInput, p.R, p.S, p.U)
	}
	return nil
}

func (p IndicatorPeriods) String() string {
	return fmt.Sprintf("%d/%d/%d", p.R, p.S, p.U)
}

// OscillatorReading is the latest oscillator state handed to the forecaster.
// Weekly is nil when no 7-day value is available.
type OscillatorReading struct {
	Daily  float64  `json:"daily"`
	Weekly *float64 `json:"weekly,omitempty"`
}
