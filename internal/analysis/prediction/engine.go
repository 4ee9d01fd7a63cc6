package prediction

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/dtiquant/internal/analysis/technical"
	"github.com/Alias1177/dtiquant/internal/model"
	"github.com/Alias1177/dtiquant/internal/trading/risk"
)

// MinCandles is the shortest history a forecast accepts
const MinCandles = 90

// Options configure the forecast engine. Zero values fall back to the defaults below.
type Options struct {
	Horizon            int
	Paths              int
	Workers            int
	PatternLookbackYrs int
	RiskFreeRate       float64
}

// DefaultOptions returns the standard forecast setup: 30 days, 1000 paths, 2 years of trade history
func DefaultOptions() Options {
	return Options{
		Horizon:            30,
		Paths:              1000,
		Workers:            4,
		PatternLookbackYrs: 2,
		RiskFreeRate:       risk.DefaultRiskFreeRate,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Horizon <= 0 {
		o.Horizon = def.Horizon
	}
	if o.Paths <= 0 {
		o.Paths = def.Paths
	}
	if o.Workers <= 0 {
		o.Workers = def.Workers
	}
	if o.PatternLookbackYrs <= 0 {
		o.PatternLookbackYrs = def.PatternLookbackYrs
	}
	return o
}

// Engine produces probabilistic forecasts. It is safe for concurrent use.
type Engine struct {
	opts Options

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine creates a forecast engine drawing its randomness from rng.
// A nil rng is replaced by a time-seeded source.
func NewEngine(opts Options, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		opts: opts.withDefaults(),
		rng:  rng,
	}
}

// Forecast runs the four predictors over the candles and combines them.
// historicalTrades feed the pattern predictor only.
func (e *Engine) Forecast(candles []model.Candle, historicalTrades []model.Trade, oscillator model.OscillatorReading) (*model.ForecastResult, error) {
	if len(candles) < MinCandles {
		return nil, fmt.Errorf("%w: need %d candles for a forecast, got %d", model.ErrInsufficientData, MinCandles, len(candles))
	}
	for i, c := range candles {
		if !(c.Close > 0) || math.IsInf(c.Close, 0) {
			return nil, fmt.Errorf("%w: invalid close %v at index %d", model.ErrInvalidInput, c.Close, i)
		}
	}
	if math.IsNaN(oscillator.Daily) || (oscillator.Weekly != nil && math.IsNaN(*oscillator.Weekly)) {
		return nil, fmt.Errorf("%w: oscillator reading is NaN", model.ErrInvalidInput)
	}

	logger := log.With().Str("component", "prediction").Logger()

	last := candles[len(candles)-1]
	closes := model.Closes(candles)
	features := technical.ExtractFeatures(candles)

	linear := linearForecast(closes, e.opts.Horizon)
	mc, sim := e.monteCarlo(closes)
	pattern := patternForecast(historicalTrades, last.Date, last.Close, e.opts.PatternLookbackYrs)
	tech := scoreTechnical(features, oscillator)
	ensemble := combine(last.Close, linear, mc, pattern)

	result := &model.ForecastResult{
		GeneratedFor: last.Date,
		CurrentPrice: last.Close,
		Features:     features,
		Linear:       linear,
		MonteCarlo:   mc,
		Pattern:      pattern,
		Technical:    tech,
		Ensemble:     ensemble,
		Confidence:   confidence(linear, mc, pattern, tech),
		Risk:         risk.FromSimulation(sim, e.opts.RiskFreeRate),
	}

	logger.Debug().
		Float64("price", last.Close).
		Float64("predicted", ensemble.PredictedPrice).
		Str("classification", ensemble.Classification).
		Float64("confidence", result.Confidence).
		Bool("pattern", pattern.Available).
		Msg("Forecast generated")

	return result, nil
}

// chunkSeeds draws one seed per simulation chunk from the engine's source
func (e *Engine) chunkSeeds(n int) []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = e.rng.Int63()
	}
	return seeds
}
