package metrics

import (
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Alias1177/dtiquant/internal/model"
	"github.com/Alias1177/dtiquant/internal/trading/optimizer"
)

const namespace = "dtiquant"

// Recorder owns a private registry so several instances can coexist in tests
type Recorder struct {
	registry *prometheus.Registry

	runs          *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec

	trades      *prometheus.GaugeVec
	totalReturn *prometheus.GaugeVec
	winRate     *prometheus.GaugeVec
	drawdown    *prometheus.GaugeVec

	candidates    *prometheus.CounterVec
	bestScore     *prometheus.GaugeVec
	forecastPrice *prometheus.GaugeVec
	confidence    *prometheus.GaugeVec
	valueAtRisk   *prometheus.GaugeVec
}

// NewRecorder registers every collector on a fresh registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Analysis runs by outcome",
			},
			[]string{"symbol", "status"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of each pipeline stage",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		trades: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "backtest_trades",
				Help:      "Trades of the latest backtest by state",
			},
			[]string{"symbol", "state"},
		),
		totalReturn: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "backtest_total_return_percent",
				Help:      "Compounded return of the latest backtest",
			},
			[]string{"symbol"},
		),
		winRate: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "backtest_win_rate_percent",
				Help:      "Win rate of the latest backtest",
			},
			[]string{"symbol"},
		),
		drawdown: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "backtest_max_drawdown_percent",
				Help:      "Maximum equity drawdown of the latest backtest",
			},
			[]string{"symbol"},
		),
		candidates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "optimizer_candidates_total",
				Help:      "Parameter candidates evaluated by the grid search",
			},
			[]string{"symbol", "eligible"},
		),
		bestScore: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "optimizer_best_score",
				Help:      "Score of the best eligible candidate",
			},
			[]string{"symbol"},
		),
		forecastPrice: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "forecast_price",
				Help:      "Ensemble predicted price at the end of the horizon",
			},
			[]string{"symbol"},
		),
		confidence: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "forecast_confidence",
				Help:      "Forecast confidence from 0 to 100",
			},
			[]string{"symbol"},
		),
		valueAtRisk: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "forecast_value_at_risk_95_percent",
				Help:      "Simulated 95% value at risk",
			},
			[]string{"symbol"},
		),
	}
}

// Handler exposes the registry for scraping
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveStage records how long a pipeline stage took
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordRun counts a finished run
func (r *Recorder) RecordRun(symbol string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.runs.WithLabelValues(symbol, status).Inc()
}

// RecordBacktest publishes the latest backtest outcome
func (r *Recorder) RecordBacktest(symbol string, result *model.BacktestResult, m model.PerformanceMetrics) {
	open := 0.0
	if result.ActiveTrade != nil {
		open = 1
	}
	r.trades.WithLabelValues(symbol, "completed").Set(float64(len(result.CompletedTrades)))
	r.trades.WithLabelValues(symbol, "open").Set(open)
	r.totalReturn.WithLabelValues(symbol).Set(m.TotalReturn)
	r.winRate.WithLabelValues(symbol).Set(m.WinRate)
	r.drawdown.WithLabelValues(symbol).Set(m.MaxDrawdownPercent)
}

// RecordOptimization counts evaluated candidates and publishes the best score
func (r *Recorder) RecordOptimization(symbol string, res *optimizer.Result) {
	var eligible, rejected float64
	for _, c := range res.AllResults {
		if c.Eligible {
			eligible++
		} else {
			rejected++
		}
	}
	r.candidates.WithLabelValues(symbol, "true").Add(eligible)
	r.candidates.WithLabelValues(symbol, "false").Add(rejected)

	if res.Best != nil && !math.IsInf(res.Best.Score, 0) {
		r.bestScore.WithLabelValues(symbol).Set(res.Best.Score)
	}
}

// RecordForecast publishes the headline forecast numbers
func (r *Recorder) RecordForecast(symbol string, f *model.ForecastResult) {
	r.forecastPrice.WithLabelValues(symbol).Set(f.Ensemble.PredictedPrice)
	r.confidence.WithLabelValues(symbol).Set(f.Confidence)
	r.valueAtRisk.WithLabelValues(symbol).Set(f.Risk.ValueAtRisk95)
}
