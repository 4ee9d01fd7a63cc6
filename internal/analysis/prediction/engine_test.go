package prediction

import (
	"errors"
	"math"
	"math/rand"
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

func noisyCandles(n int) []model.Candle {
	return generateTestCandles(n, func(i int) model.Candle {
		p := 100 + 0.2*float64(i) + 3*math.Sin(float64(i)/4)
		return model.Candle{Open: p, High: p + 1, Low: p - 1, Close: p, Volume: int64(1000 + i%7*50)}
	})
}

func newTestEngine(seed int64) *Engine {
	return NewEngine(Options{Paths: 400}, rand.New(rand.NewSource(seed)))
}

func TestForecastMinimumHistory(t *testing.T) {
	engine := newTestEngine(1)

	_, err := engine.Forecast(noisyCandles(89), nil, model.OscillatorReading{})
	if !errors.Is(err, model.ErrInsufficientData) {
		t.Fatalf("89 candles: error = %v, want ErrInsufficientData", err)
	}

	result, err := engine.Forecast(noisyCandles(90), nil, model.OscillatorReading{})
	if err != nil {
		t.Fatalf("90 candles: error = %v", err)
	}
	if result == nil {
		t.Fatal("90 candles: nil result")
	}
}

func TestForecastInvalidInput(t *testing.T) {
	engine := newTestEngine(1)

	candles := noisyCandles(100)
	candles[50].Close = 0
	if _, err := engine.Forecast(candles, nil, model.OscillatorReading{}); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("zero close: error = %v, want ErrInvalidInput", err)
	}

	if _, err := engine.Forecast(noisyCandles(100), nil, model.OscillatorReading{Daily: math.NaN()}); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("NaN oscillator: error = %v, want ErrInvalidInput", err)
	}
}

func TestForecastEmptyHistory(t *testing.T) {
	result, err := newTestEngine(7).Forecast(noisyCandles(200), nil, model.OscillatorReading{Daily: -30})
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}

	if result.Pattern.Available {
		t.Error("pattern should be unavailable without trades")
	}
	w := result.Ensemble.Weights
	if w.Pattern != 0 {
		t.Errorf("pattern weight = %v, want 0", w.Pattern)
	}
	if math.Abs(w.Linear-0.30*result.Linear.RSquared) > 1e-12 || w.MonteCarlo != 0.40 {
		t.Errorf("weights = %+v", w)
	}

	want := (w.Linear*result.Linear.FinalPrice + w.MonteCarlo*result.MonteCarlo.Percentiles.P50) / (w.Linear + w.MonteCarlo)
	if math.Abs(result.Ensemble.PredictedPrice-want) > 1e-9 {
		t.Errorf("predicted = %v, want %v", result.Ensemble.PredictedPrice, want)
	}
	if result.Ensemble.PriceRange.Mid != result.Ensemble.PredictedPrice {
		t.Error("price range mid should be the ensemble price")
	}
	if result.Confidence < 0 || result.Confidence > 100 {
		t.Errorf("confidence = %v", result.Confidence)
	}
	if !result.GeneratedFor.Equal(testStart.AddDate(0, 0, 199)) {
		t.Errorf("generated for = %s", result.GeneratedFor)
	}
}

func TestForecastWithHistory(t *testing.T) {
	candles := noisyCandles(200)
	asOf := candles[len(candles)-1].Date

	trade := func(daysAgo int, pl float64) model.Trade {
		entry := asOf.AddDate(0, 0, -daysAgo)
		return model.Trade{
			EntryDate:  entry,
			EntryPrice: 100,
			ExitDate:   entry.AddDate(0, 0, 3),
			ExitReason: model.ExitTakeProfit,
			PLPercent:  pl,
		}
	}
	trades := []model.Trade{
		trade(10, 8),
		trade(40, -5),
		trade(100, 6),
		trade(300, 10),
		trade(365*3, -50), // outside the lookback
		{EntryDate: asOf, EntryPrice: 100, PLPercent: 40}, // still open
	}

	result, err := newTestEngine(3).Forecast(candles, trades, model.OscillatorReading{Daily: 10})
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}

	p := result.Pattern
	if !p.Available || p.SampleSize != 4 {
		t.Fatalf("pattern = %+v", p)
	}
	if p.WinRate != 0.75 || p.Confidence != 75 {
		t.Errorf("win rate/confidence = %v/%v", p.WinRate, p.Confidence)
	}
	if p.MedianPLPercent != 7 || p.BestCase != 10 || p.WorstCase != -5 {
		t.Errorf("pattern stats = %+v", p)
	}
	if math.Abs(p.PredictedPrice-result.CurrentPrice*1.07) > 1e-9 {
		t.Errorf("pattern predicted = %v", p.PredictedPrice)
	}
	if math.Abs(result.Ensemble.Weights.Pattern-0.30*0.75) > 1e-12 {
		t.Errorf("pattern weight = %v", result.Ensemble.Weights.Pattern)
	}
}

func TestForecastDeterministicWithSeed(t *testing.T) {
	candles := noisyCandles(150)

	a, err := newTestEngine(42).Forecast(candles, nil, model.OscillatorReading{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewEngine(Options{Paths: 400, Workers: 1}, rand.New(rand.NewSource(42))).Forecast(candles, nil, model.OscillatorReading{})
	if err != nil {
		t.Fatal(err)
	}

	if a.MonteCarlo.Percentiles != b.MonteCarlo.Percentiles {
		t.Errorf("percentiles differ: %+v vs %+v", a.MonteCarlo.Percentiles, b.MonteCarlo.Percentiles)
	}
	if a.Risk != b.Risk {
		t.Errorf("risk differs: %+v vs %+v", a.Risk, b.Risk)
	}
}

func TestMonteCarloProperties(t *testing.T) {
	for _, seed := range []int64{1, 2, 3, 99} {
		result, err := newTestEngine(seed).Forecast(noisyCandles(120), nil, model.OscillatorReading{})
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		mc := result.MonteCarlo

		p := mc.Percentiles
		if !(p.P5 <= p.P25 && p.P25 <= p.P50 && p.P50 <= p.P75 && p.P75 <= p.P95) {
			t.Errorf("seed %d: percentiles out of order: %+v", seed, p)
		}
		if len(mc.AveragePath) != 30 || mc.Horizon != 30 {
			t.Errorf("seed %d: average path length = %d", seed, len(mc.AveragePath))
		}
		if len(mc.Histogram) != histogramBuckets {
			t.Fatalf("seed %d: histogram buckets = %d", seed, len(mc.Histogram))
		}
		total := 0
		for _, b := range mc.Histogram {
			total += b.Count
		}
		if total != mc.Paths || mc.Paths != 400 {
			t.Errorf("seed %d: histogram holds %d of %d paths", seed, total, mc.Paths)
		}
		if mc.ProbabilityOfProfit < 0 || mc.ProbabilityOfProfit > 100 {
			t.Errorf("seed %d: probability of profit = %v", seed, mc.ProbabilityOfProfit)
		}
		if result.Risk.ExpectedShortfall < result.Risk.ValueAtRisk95 {
			t.Errorf("seed %d: expected shortfall %v below VaR %v", seed, result.Risk.ExpectedShortfall, result.Risk.ValueAtRisk95)
		}
		if result.Risk.MaxDrawdown < 0 {
			t.Errorf("seed %d: max drawdown = %v", seed, result.Risk.MaxDrawdown)
		}
	}
}

func TestLinearForecastBands(t *testing.T) {
	closes := model.Closes(noisyCandles(120))
	lf := linearForecast(closes, 30)

	if len(lf.Projection) != 30 {
		t.Fatalf("projection length = %d", len(lf.Projection))
	}
	if lf.Trend != model.TrendBullish {
		t.Errorf("trend = %s, want bullish", lf.Trend)
	}
	if lf.StandardError <= 0 {
		t.Errorf("standard error = %v", lf.StandardError)
	}
	if math.Abs(lf.Strength-math.Abs(lf.Slope)*30) > 1e-12 {
		t.Errorf("strength = %v", lf.Strength)
	}
	for _, p := range lf.Projection {
		if !(p.Confidence95.Lower <= p.Confidence68.Lower &&
			p.Confidence68.Lower <= p.Prediction &&
			p.Prediction <= p.Confidence68.Upper &&
			p.Confidence68.Upper <= p.Confidence95.Upper) {
			t.Fatalf("day %d: bands not nested: %+v", p.Day, p)
		}
	}
	if lf.FinalPrice != lf.Projection[29].Prediction {
		t.Error("final price should be the last projected point")
	}

	flat := linearForecast(make([]float64, 90), 30)
	if flat.RSquared != 0 || flat.Trend != model.TrendNeutral {
		t.Errorf("flat forecast = %+v", flat)
	}
}

func TestHistogramDegenerate(t *testing.T) {
	buckets := histogram([]float64{5, 5, 5}, 20)
	if len(buckets) != 1 || buckets[0].Count != 3 {
		t.Errorf("buckets = %+v", buckets)
	}
	if histogram(nil, 20) != nil {
		t.Error("empty input should give no buckets")
	}
}
