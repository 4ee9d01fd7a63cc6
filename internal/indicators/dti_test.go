package indicators

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Alias1177/dtiquant/internal/model"
)

var testStart = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

func generateTestCandles(n int, fn func(i int) model.Candle) []model.Candle {
	candles := make([]model.Candle, n)
	for i := 0; i < n; i++ {
		c := fn(i)
		c.Date = testStart.AddDate(0, 0, i)
		candles[i] = c
	}
	return candles
}

func TestDTI(t *testing.T) {
	periods := model.DefaultIndicatorPeriods

	tests := []struct {
		name    string
		candles []model.Candle
		check   func(t *testing.T, values []float64)
	}{
		{
			name: "flat market stays at zero",
			candles: generateTestCandles(60, func(i int) model.Candle {
				return model.Candle{Open: 100, High: 101, Low: 99, Close: 100}
			}),
			check: func(t *testing.T, values []float64) {
				for i, v := range values {
					if v != 0 {
						t.Fatalf("values[%d] = %v, want 0", i, v)
					}
				}
			},
		},
		{
			name: "steady uptrend saturates at +100",
			candles: generateTestCandles(60, func(i int) model.Candle {
				p := 100 + float64(i)
				return model.Candle{Open: p, High: p + 1, Low: p - 1, Close: p}
			}),
			check: func(t *testing.T, values []float64) {
				if math.Abs(values[59]-100) > 1e-9 {
					t.Errorf("last value = %v, want 100", values[59])
				}
			},
		},
		{
			name: "steady downtrend saturates at -100",
			candles: generateTestCandles(60, func(i int) model.Candle {
				p := 200 - float64(i)
				return model.Candle{Open: p, High: p + 1, Low: p - 1, Close: p}
			}),
			check: func(t *testing.T, values []float64) {
				if math.Abs(values[59]+100) > 1e-9 {
					t.Errorf("last value = %v, want -100", values[59])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := DTI(tt.candles, periods)
			if len(values) != len(tt.candles) {
				t.Fatalf("len = %d, want %d", len(values), len(tt.candles))
			}
			for i, v := range values {
				if v < -100-1e-9 || v > 100+1e-9 {
					t.Fatalf("values[%d] = %v out of range", i, v)
				}
			}
			tt.check(t, values)
		})
	}
}

func TestWeeklyCandles(t *testing.T) {
	candles := generateTestCandles(15, func(i int) model.Candle {
		p := float64(10 + i)
		return model.Candle{Open: p, High: p + 2, Low: p - 2, Close: p, Volume: 1}
	})

	blocks, owner := WeeklyCandles(candles)
	if len(blocks) != 3 {
		t.Fatalf("blocks = %d, want 3", len(blocks))
	}
	if blocks[0].High != 18 || blocks[0].Low != 8 || blocks[0].Close != 16 || blocks[0].Volume != 7 {
		t.Errorf("first block = %+v", blocks[0])
	}
	if owner[6] != 0 || owner[7] != 1 || owner[14] != 2 {
		t.Errorf("owner = %v", owner)
	}
}

func TestDTISeries(t *testing.T) {
	candles := generateTestCandles(40, func(i int) model.Candle {
		p := 100 + 5*math.Sin(float64(i)/3)
		return model.Candle{Open: p, High: p + 1, Low: p - 1, Close: p}
	})

	points, err := DTISeries(candles, model.DefaultIndicatorPeriods)
	if err != nil {
		t.Fatalf("DTISeries() error = %v", err)
	}
	if len(points) != len(candles) {
		t.Fatalf("len = %d, want %d", len(points), len(candles))
	}
	for i := range points {
		if !points[i].Date.Equal(candles[i].Date) {
			t.Fatalf("points[%d] date mismatch", i)
		}
		if i%model.PeriodLength != 0 && points[i].SevenDay != points[i-1].SevenDay {
			t.Fatalf("seven-day value changed inside a block at %d", i)
		}
	}

	if _, err := DTISeries(candles, model.IndicatorPeriods{R: 0, S: 1, U: 1}); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for bad periods, got %v", err)
	}

	unordered := append([]model.Candle{}, candles[:3]...)
	unordered[2].Date = unordered[0].Date
	if _, err := DTISeries(unordered, model.DefaultIndicatorPeriods); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unordered dates, got %v", err)
	}
}
