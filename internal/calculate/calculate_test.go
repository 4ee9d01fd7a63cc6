package calculate

import (
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestAverageAndSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	if got := Average(values); got != 3 {
		t.Errorf("Average() = %v, want 3", got)
	}
	if got := Average(nil); got != 0 {
		t.Errorf("Average(nil) = %v, want 0", got)
	}

	tests := []struct {
		name   string
		period int
		want   float64
	}{
		{"trailing window", 2, 4.5},
		{"full window", 5, 3},
		{"window larger than data", 10, 5},
		{"zero period", 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SMA(values, tt.period); got != tt.want {
				t.Errorf("SMA(%d) = %v, want %v", tt.period, got, tt.want)
			}
		})
	}
}

func TestEMASeries(t *testing.T) {
	flat := EMASeries([]float64{7, 7, 7, 7}, 3)
	for i, v := range flat {
		if v != 7 {
			t.Fatalf("flat EMA[%d] = %v, want 7", i, v)
		}
	}

	ema := EMASeries([]float64{0, 10}, 3)
	if !almostEqual(ema[1], 5, 1e-12) {
		t.Errorf("EMA step = %v, want 5", ema[1])
	}

	if len(EMASeries(nil, 5)) != 0 {
		t.Error("EMA of empty input should be empty")
	}
}

func TestStdDev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	got := StdDev(values, Average(values))
	// sample variance is 32/7
	if !almostEqual(got, math.Sqrt(32.0/7.0), 1e-12) {
		t.Errorf("StdDev() = %v", got)
	}

	if StdDev([]float64{1}, 1) != 0 {
		t.Error("StdDev of single value should be 0")
	}
}

func TestPercentileMonotone(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	prev := math.Inf(-1)
	for p := 0.0; p <= 100; p += 5 {
		v := Percentile(sorted, p)
		if v < prev {
			t.Fatalf("Percentile(%v) = %v decreased from %v", p, v, prev)
		}
		prev = v
	}

	if got := Percentile(sorted, 0); got != 1 {
		t.Errorf("P0 = %v", got)
	}
	if got := Percentile(sorted, 100); got != 10 {
		t.Errorf("P100 = %v", got)
	}
	if got := Median([]float64{5, 1, 3}); got != 3 {
		t.Errorf("Median = %v, want 3", got)
	}
	if got := Median([]float64{4, 1, 3, 2}); got != 2.5 {
		t.Errorf("Median = %v, want 2.5", got)
	}
}

func TestReturns(t *testing.T) {
	got := Returns([]float64{100, 110, 99})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if !almostEqual(got[0], 0.1, 1e-12) || !almostEqual(got[1], -0.1, 1e-12) {
		t.Errorf("Returns = %v", got)
	}
	if Returns([]float64{1}) != nil {
		t.Error("single price should produce no returns")
	}
}

func TestLinearRegression(t *testing.T) {
	t.Run("perfect line", func(t *testing.T) {
		values := make([]float64, 30)
		for i := range values {
			values[i] = 10 + 2*float64(i)
		}
		reg := LinearRegression(values)
		if !almostEqual(reg.Slope, 2, 1e-9) || !almostEqual(reg.Intercept, 10, 1e-9) {
			t.Errorf("fit = %+v", reg)
		}
		if !almostEqual(reg.RSquared, 1, 1e-9) {
			t.Errorf("RSquared = %v, want 1", reg.RSquared)
		}
		if !almostEqual(reg.StdErr, 0, 1e-9) {
			t.Errorf("StdErr = %v, want 0", reg.StdErr)
		}
		if !almostEqual(reg.Predict(30), 70, 1e-9) {
			t.Errorf("Predict(30) = %v", reg.Predict(30))
		}
	})

	t.Run("constant series", func(t *testing.T) {
		reg := LinearRegression([]float64{5, 5, 5, 5})
		if reg.Slope != 0 || reg.RSquared != 0 {
			t.Errorf("fit = %+v", reg)
		}
	})

	t.Run("noisy series", func(t *testing.T) {
		reg := LinearRegression([]float64{1, 3, 2, 4, 3, 5})
		if reg.Slope <= 0 {
			t.Errorf("expected positive slope, got %v", reg.Slope)
		}
		if reg.RSquared <= 0 || reg.RSquared >= 1 {
			t.Errorf("RSquared = %v out of (0,1)", reg.RSquared)
		}
	})
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		check  func(float64) bool
	}{
		{
			name:   "not enough data",
			closes: []float64{1, 2, 3},
			check:  func(v float64) bool { return v == 50 },
		},
		{
			name:   "only gains",
			closes: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
			check:  func(v float64) bool { return v == 100 },
		},
		{
			name:   "only losses",
			closes: []float64{16, 15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1},
			check:  func(v float64) bool { return v == 0 },
		},
		{
			name:   "mixed",
			closes: []float64{10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10, 11},
			check:  func(v float64) bool { return v > 30 && v < 70 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RSI(tt.closes, 14)
			if !tt.check(got) {
				t.Errorf("RSI() = %v", got)
			}
		})
	}
}
