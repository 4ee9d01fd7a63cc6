package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/dtiquant/internal/analysis/prediction"
	"github.com/Alias1177/dtiquant/internal/indicators"
	"github.com/Alias1177/dtiquant/internal/metrics"
	"github.com/Alias1177/dtiquant/internal/model"
	"github.com/Alias1177/dtiquant/internal/report"
	"github.com/Alias1177/dtiquant/internal/trading/backtest"
	"github.com/Alias1177/dtiquant/internal/trading/optimizer"
)

// topCandidates is how many optimizer rows the report lists
const topCandidates = 5

// CandleSource supplies daily history, oldest first
type CandleSource interface {
	GetDailyCandles(ctx context.Context, symbol string, days int) ([]model.Candle, error)
}

// TradeStore persists closed trades between runs
type TradeStore interface {
	SaveTrades(ctx context.Context, symbol string, trades []model.Trade) (int, error)
	CompletedTrades(ctx context.Context, symbol string, since time.Time) ([]model.Trade, error)
}

// Notifier delivers the rendered report
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Dependencies wires the analyzer. Store, Notifier and Recorder are optional.
type Dependencies struct {
	Source     CandleSource
	Forecaster *prediction.Engine
	Store      TradeStore
	Notifier   Notifier
	Recorder   *metrics.Recorder
}

// Options describe what one run analyzes
type Options struct {
	Symbol               string
	HistoryDays          int
	Periods              model.IndicatorPeriods
	Params               model.TradingParameters
	Optimize             bool
	Ranges               optimizer.ParamRanges
	Optimizer            optimizer.Options
	PatternLookbackYears int
}

// Report is everything one run produced
type Report struct {
	Symbol       string                   `json:"symbol"`
	Periods      model.IndicatorPeriods   `json:"periods"`
	Params       model.TradingParameters  `json:"params"`
	Backtest     *model.BacktestResult    `json:"backtest"`
	Metrics      model.PerformanceMetrics `json:"metrics"`
	Optimization *optimizer.Result        `json:"optimization,omitempty"`
	Forecast     *model.ForecastResult    `json:"forecast,omitempty"`
	Saved        int                      `json:"saved"`
	Text         string                   `json:"-"`
}

// Analyzer runs the full backtest, optimize and forecast pipeline for one symbol
type Analyzer struct {
	deps Dependencies
	opts Options
}

// NewAnalyzer validates the wiring and returns a ready analyzer
func NewAnalyzer(deps Dependencies, opts Options) (*Analyzer, error) {
	if deps.Source == nil {
		return nil, errors.New("candle source is required")
	}
	if deps.Forecaster == nil {
		return nil, errors.New("forecaster is required")
	}
	if opts.Symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", model.ErrInvalidInput)
	}
	if err := opts.Periods.Validate(); err != nil {
		return nil, fmt.Errorf("invalid indicator periods: %w", err)
	}
	if err := opts.Params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid trading parameters: %w", err)
	}
	if opts.PatternLookbackYears <= 0 {
		opts.PatternLookbackYears = prediction.DefaultOptions().PatternLookbackYrs
	}

	return &Analyzer{deps: deps, opts: opts}, nil
}

// Run executes one analysis pass
func (a *Analyzer) Run(ctx context.Context) (rep *Report, err error) {
	logger := log.With().Str("component", "analyzer").Str("symbol", a.opts.Symbol).Logger()
	defer func() {
		if a.deps.Recorder != nil {
			a.deps.Recorder.RecordRun(a.opts.Symbol, err)
		}
	}()

	stage := time.Now()
	candles, err := a.deps.Source.GetDailyCandles(ctx, a.opts.Symbol, a.opts.HistoryDays)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candles: %w", err)
	}
	a.observe("fetch", stage)
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: no candles returned for %s", model.ErrInsufficientData, a.opts.Symbol)
	}
	logger.Info().Int("candles", len(candles)).Msg("Market data loaded")

	rep = &Report{
		Symbol:  a.opts.Symbol,
		Periods: a.opts.Periods,
		Params:  a.opts.Params,
	}

	stage = time.Now()
	series, err := a.backtest(rep, candles)
	if err != nil {
		return nil, err
	}
	a.observe("backtest", stage)

	if a.opts.Optimize {
		stage = time.Now()
		series, err = a.optimize(ctx, rep, candles, series)
		if err != nil {
			return nil, err
		}
		a.observe("optimize", stage)
	}

	if a.deps.Recorder != nil {
		a.deps.Recorder.RecordBacktest(a.opts.Symbol, rep.Backtest, rep.Metrics)
	}

	history := rep.Backtest.CompletedTrades
	if a.deps.Store != nil {
		last := candles[len(candles)-1].Date
		stored, err := a.deps.Store.CompletedTrades(ctx, a.opts.Symbol, last.AddDate(-a.opts.PatternLookbackYears, 0, 0))
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to load stored trades, using fresh backtest only")
		} else {
			history = MergeTrades(stored, rep.Backtest.CompletedTrades)
		}
	}

	stage = time.Now()
	forecast, err := a.deps.Forecaster.Forecast(candles, history, oscillatorReading(candles, series))
	switch {
	case errors.Is(err, model.ErrInsufficientData):
		logger.Warn().Err(err).Msg("Skipping forecast")
	case err != nil:
		return nil, fmt.Errorf("forecast failed: %w", err)
	default:
		rep.Forecast = forecast
		a.observe("forecast", stage)
		if a.deps.Recorder != nil {
			a.deps.Recorder.RecordForecast(a.opts.Symbol, forecast)
		}
	}

	if a.deps.Store != nil {
		saved, err := a.deps.Store.SaveTrades(ctx, a.opts.Symbol, rep.Backtest.CompletedTrades)
		if err != nil {
			return nil, fmt.Errorf("failed to save trades: %w", err)
		}
		rep.Saved = saved
	}

	rep.Text = render(rep)

	if a.deps.Notifier != nil {
		stage = time.Now()
		if err := a.deps.Notifier.Notify(ctx, rep.Text); err != nil {
			return nil, fmt.Errorf("failed to deliver report: %w", err)
		}
		a.observe("notify", stage)
	}

	logger.Info().
		Int("trades", rep.Metrics.TotalTrades).
		Float64("return", rep.Metrics.TotalReturn).
		Bool("forecast", rep.Forecast != nil).
		Int("saved", rep.Saved).
		Msg("Analysis complete")

	return rep, nil
}

// backtest runs the configured parameters and fills the report
func (a *Analyzer) backtest(rep *Report, candles []model.Candle) ([]model.IndicatorPoint, error) {
	series, err := indicators.DTISeries(candles, rep.Periods)
	if err != nil {
		return nil, fmt.Errorf("failed to build indicator series: %w", err)
	}

	result, err := backtest.Run(candles, series, rep.Params)
	if err != nil {
		return nil, fmt.Errorf("backtest failed: %w", err)
	}

	rep.Backtest = result
	rep.Metrics = backtest.ComputeMetrics(result.CompletedTrades)
	return series, nil
}

// optimize searches the grid and, when a winner exists, re-runs the backtest with it
func (a *Analyzer) optimize(ctx context.Context, rep *Report, candles []model.Candle, series []model.IndicatorPoint) ([]model.IndicatorPoint, error) {
	res, err := optimizer.Optimize(ctx, candles, indicators.DTISeries, a.opts.Ranges, a.opts.Optimizer)
	if err != nil {
		return nil, fmt.Errorf("optimization failed: %w", err)
	}
	rep.Optimization = res
	if a.deps.Recorder != nil {
		a.deps.Recorder.RecordOptimization(a.opts.Symbol, res)
	}

	if res.Best == nil {
		log.Info().Int("candidates", len(res.AllResults)).Msg("No candidate traded often enough, keeping configured parameters")
		return series, nil
	}

	rep.Periods = res.Best.Periods
	rep.Params = res.Best.Params
	log.Info().
		Str("periods", rep.Periods.String()).
		Float64("entry", rep.Params.EntryThreshold).
		Float64("score", res.Best.Score).
		Msg("Using optimized parameters")

	return a.backtest(rep, candles)
}

func (a *Analyzer) observe(stage string, start time.Time) {
	if a.deps.Recorder != nil {
		a.deps.Recorder.ObserveStage(stage, time.Since(start))
	}
}

// oscillatorReading takes the latest point; the weekly value is only meaningful
// once the history spans more than one 7-day block.
func oscillatorReading(candles []model.Candle, series []model.IndicatorPoint) model.OscillatorReading {
	if len(series) == 0 {
		return model.OscillatorReading{}
	}

	last := series[len(series)-1]
	reading := model.OscillatorReading{Daily: last.Daily}
	if model.PeriodIndex(candles[0].Date, last.Date) > 0 {
		weekly := last.SevenDay
		reading.Weekly = &weekly
	}
	return reading
}

// MergeTrades unions stored and fresh closed trades by entry date, fresh taking precedence
func MergeTrades(stored, fresh []model.Trade) []model.Trade {
	byEntry := make(map[time.Time]model.Trade, len(stored)+len(fresh))
	for _, t := range stored {
		byEntry[t.EntryDate.UTC()] = t
	}
	for _, t := range fresh {
		if t.IsClosed() {
			byEntry[t.EntryDate.UTC()] = t
		}
	}

	out := make([]model.Trade, 0, len(byEntry))
	for _, t := range byEntry {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EntryDate.Before(out[j].EntryDate)
	})
	return out
}

func render(rep *Report) string {
	text := report.FormatBacktest(rep.Symbol, rep.Params, rep.Backtest, rep.Metrics)
	if rep.Optimization != nil {
		text += report.FormatOptimization(rep.Optimization, topCandidates)
	}
	if rep.Forecast != nil {
		text += report.FormatForecast(rep.Symbol, rep.Forecast)
	}
	return text
}
