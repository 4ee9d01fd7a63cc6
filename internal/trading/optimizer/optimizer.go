package optimizer

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Alias1177/dtiquant/internal/model"
	"github.com/Alias1177/dtiquant/internal/trading/backtest"
)

// DefaultMinTrades is the least number of closed trades a candidate needs to be selectable
const DefaultMinTrades = 5

// IndicatorFactory builds the oscillator series for a set of indicator periods
type IndicatorFactory func(candles []model.Candle, periods model.IndicatorPeriods) ([]model.IndicatorPoint, error)

// ParamRanges lists the discrete values to try for every tunable parameter
type ParamRanges struct {
	Periods            []model.IndicatorPeriods
	EntryThresholds    []float64
	TakeProfitPercents []float64
	StopLossPercents   []float64
	MaxHoldingDays     []int
	SevenDayFilter     []bool
}

// Size is the number of candidates the ranges expand to
func (r ParamRanges) Size() int {
	return len(r.Periods) * len(r.EntryThresholds) * len(r.TakeProfitPercents) *
		len(r.StopLossPercents) * len(r.MaxHoldingDays) * len(r.SevenDayFilter)
}

// Options tune how the search runs
type Options struct {
	// Workers bounds concurrent evaluations; 0 means runtime.NumCPU()
	Workers int
	// MinTrades overrides DefaultMinTrades when positive
	MinTrades int
}

// Candidate is one point of the parameter grid
type Candidate struct {
	Periods model.IndicatorPeriods  `json:"periods"`
	Params  model.TradingParameters `json:"params"`
}

// CandidateResult is the evaluation of one candidate
type CandidateResult struct {
	Candidate
	Metrics  model.PerformanceMetrics `json:"metrics"`
	Score    float64                  `json:"score"`
	Eligible bool                     `json:"eligible"`
}

// Result of a grid search. Best is nil when no candidate traded often enough.
type Result struct {
	Best       *CandidateResult  `json:"best,omitempty"`
	AllResults []CandidateResult `json:"all_results"`
}

// Candidates expands the ranges into the ordered candidate list:
// periods, then threshold, take profit, stop loss, max holding and filter flag.
func Candidates(ranges ParamRanges) ([]Candidate, error) {
	dims := []struct {
		name string
		size int
	}{
		{"indicator periods", len(ranges.Periods)},
		{"entry thresholds", len(ranges.EntryThresholds)},
		{"take profit percents", len(ranges.TakeProfitPercents)},
		{"stop loss percents", len(ranges.StopLossPercents)},
		{"max holding days", len(ranges.MaxHoldingDays)},
		{"seven-day filter", len(ranges.SevenDayFilter)},
	}
	for _, d := range dims {
		if d.size == 0 {
			return nil, fmt.Errorf("%w: no candidate values for %s", model.ErrInvalidInput, d.name)
		}
	}

	candidates := make([]Candidate, 0, ranges.Size())
	for _, periods := range ranges.Periods {
		if err := periods.Validate(); err != nil {
			return nil, err
		}
		for _, threshold := range ranges.EntryThresholds {
			for _, tp := range ranges.TakeProfitPercents {
				for _, sl := range ranges.StopLossPercents {
					for _, hold := range ranges.MaxHoldingDays {
						for _, filter := range ranges.SevenDayFilter {
							params := model.TradingParameters{
								EntryThreshold:        threshold,
								TakeProfitPercent:     tp,
								StopLossPercent:       sl,
								MaxHoldingDays:        hold,
								SevenDayFilterEnabled: filter,
							}
							if err := params.Validate(); err != nil {
								return nil, err
							}
							candidates = append(candidates, Candidate{Periods: periods, Params: params})
						}
					}
				}
			}
		}
	}
	return candidates, nil
}

// Score is totalReturn x winRate x profitFactor. Undefined products rank last.
func Score(m model.PerformanceMetrics) float64 {
	score := m.TotalReturn * (m.WinRate / 100) * m.ProfitFactor
	if math.IsNaN(score) {
		return math.Inf(-1)
	}
	return score
}

// Optimize runs a backtest for every candidate of the grid and picks the best scoring one
func Optimize(ctx context.Context, candles []model.Candle, factory IndicatorFactory, ranges ParamRanges, opts Options) (*Result, error) {
	if factory == nil {
		return nil, fmt.Errorf("%w: indicator factory is required", model.ErrInvalidInput)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: empty candle series", model.ErrInvalidInput)
	}

	candidates, err := Candidates(ranges)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	minTrades := opts.MinTrades
	if minTrades <= 0 {
		minTrades = DefaultMinTrades
	}

	logger := log.With().Str("component", "optimizer").Logger()
	logger.Debug().
		Int("candidates", len(candidates)).
		Int("workers", workers).
		Msg("Starting grid search")

	series, err := buildSeries(ctx, candles, factory, ranges.Periods, workers)
	if err != nil {
		return nil, err
	}

	results := make([]CandidateResult, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range candidates {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			c := candidates[i]
			bt, err := backtest.Run(candles, series[c.Periods], c.Params)
			if err != nil {
				return fmt.Errorf("candidate %d (%s): %w", i, c.Periods, err)
			}

			metrics := backtest.ComputeMetrics(bt.CompletedTrades)
			results[i] = CandidateResult{
				Candidate: c,
				Metrics:   metrics,
				Score:     Score(metrics),
				Eligible:  metrics.TotalTrades >= minTrades,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("grid search aborted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("grid search aborted: %w", err)
	}

	out := &Result{AllResults: results}
	for i := range results {
		r := &results[i]
		if !r.Eligible {
			continue
		}
		if out.Best == nil || r.Score > out.Best.Score {
			out.Best = r
		}
	}

	if out.Best != nil {
		logger.Debug().
			Str("periods", out.Best.Periods.String()).
			Float64("score", out.Best.Score).
			Int("trades", out.Best.Metrics.TotalTrades).
			Msg("Grid search finished")
	} else {
		logger.Debug().Int("min_trades", minTrades).Msg("Grid search finished without an eligible candidate")
	}

	return out, nil
}

// buildSeries computes the indicator series once per distinct period triple
func buildSeries(ctx context.Context, candles []model.Candle, factory IndicatorFactory, periods []model.IndicatorPeriods, workers int) (map[model.IndicatorPeriods][]model.IndicatorPoint, error) {
	series := make(map[model.IndicatorPeriods][]model.IndicatorPoint, len(periods))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	seen := make(map[model.IndicatorPeriods]bool, len(periods))
	for _, p := range periods {
		if seen[p] {
			continue
		}
		seen[p] = true

		p := p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			points, err := factory(candles, p)
			if err != nil {
				return fmt.Errorf("indicator series %s: %w", p, err)
			}

			mu.Lock()
			series[p] = points
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build indicator series: %w", err)
	}
	return series, nil
}
