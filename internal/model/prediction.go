package model

import "time"

// FeatureVector is a point-in-time technical snapshot of the last 90 candles
type FeatureVector struct {
	CurrentPrice  float64 `json:"current_price"`
	Slope30       float64 `json:"slope_30"`
	Slope60       float64 `json:"slope_60"`
	Slope90       float64 `json:"slope_90"`
	MA7           float64 `json:"ma_7"`
	MA14          float64 `json:"ma_14"`
	MA30          float64 `json:"ma_30"`
	MA50          float64 `json:"ma_50"`
	Volatility14  float64 `json:"volatility_14"` // annualized
	Volatility30  float64 `json:"volatility_30"` // annualized
	RSI14         float64 `json:"rsi_14"`
	Momentum10    float64 `json:"momentum_10"`
	VolumeTrend   float64 `json:"volume_trend"`
	VolumeRatio   float64 `json:"volume_ratio"`
	Support       float64 `json:"support"`
	Resistance    float64 `json:"resistance"`
	PricePosition float64 `json:"price_position"` // 0..1 inside the 30-day range
}

// Trend directions
const (
	TrendBullish = "bullish"
	TrendBearish = "bearish"
	TrendNeutral = "neutral"
)

// Band is a symmetric confidence interval around a projected price
type Band struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ProjectedPoint is one day of the linear projection
type ProjectedPoint struct {
	Day          int     `json:"day"`
	Prediction   float64 `json:"prediction"`
	Confidence68 Band    `json:"confidence_68"`
	Confidence95 Band    `json:"confidence_95"`
}

// LinearForecast is the output of the regression predictor
type LinearForecast struct {
	Slope         float64          `json:"slope"`
	Intercept     float64          `json:"intercept"`
	RSquared      float64          `json:"r_squared"`
	StandardError float64          `json:"standard_error"`
	Trend         string           `json:"trend"`
	Strength      float64          `json:"strength"`
	Projection    []ProjectedPoint `json:"projection"`
	FinalPrice    float64          `json:"final_price"`
}

// Percentiles of simulated terminal prices
type Percentiles struct {
	P5  float64 `json:"p5"`
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P95 float64 `json:"p95"`
}

// HistogramBucket counts terminal prices inside [Lower, Upper)
type HistogramBucket struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// MonteCarloForecast is the output of the path simulator
type MonteCarloForecast struct {
	Paths               int               `json:"paths"`
	Horizon             int               `json:"horizon"`
	DailyMean           float64           `json:"daily_mean"`
	DailyStdDev         float64           `json:"daily_std_dev"`
	Percentiles         Percentiles       `json:"percentiles"`
	AveragePath         []float64         `json:"average_path"`
	ExpectedReturn      float64           `json:"expected_return"`
	ValueAtRisk95       float64           `json:"value_at_risk_95"`
	ProbabilityOfProfit float64           `json:"probability_of_profit"`
	Histogram           []HistogramBucket `json:"histogram"`
}

// PatternForecast summarizes what historical trades did after similar entries
type PatternForecast struct {
	Available       bool    `json:"available"`
	SampleSize      int     `json:"sample_size"`
	WinRate         float64 `json:"win_rate"` // fraction 0..1
	MeanPLPercent   float64 `json:"mean_pl_percent"`
	MedianPLPercent float64 `json:"median_pl_percent"`
	BestCase        float64 `json:"best_case"`
	WorstCase       float64 `json:"worst_case"`
	PredictedPrice  float64 `json:"predicted_price"`
	Confidence      float64 `json:"confidence"` // 0..100
}

// Technical signal labels
const (
	SignalBullish = "BULLISH"
	SignalBearish = "BEARISH"
	SignalNeutral = "NEUTRAL"

	StrengthStrong   = "STRONG"
	StrengthModerate = "MODERATE"
	StrengthWeak     = "WEAK"
)

// TechnicalForecast is the output of the rule-scoring predictor
type TechnicalForecast struct {
	BullishPoints  float64  `json:"bullish_points"`
	BearishPoints  float64  `json:"bearish_points"`
	BullishPercent float64  `json:"bullish_percent"`
	Signal         string   `json:"signal"`
	Strength       string   `json:"strength"`
	Factors        []string `json:"factors"`
}

// PriceRange is the ensemble's price band
type PriceRange struct {
	Low         float64 `json:"low"`
	Mid         float64 `json:"mid"`
	High        float64 `json:"high"`
	ExtremeLow  float64 `json:"extreme_low"`
	ExtremeHigh float64 `json:"extreme_high"`
}

// EnsembleWeights records which weights were actually applied
type EnsembleWeights struct {
	Linear     float64 `json:"linear"`
	MonteCarlo float64 `json:"monte_carlo"`
	Pattern    float64 `json:"pattern"`
}

// Ensemble classifications
const (
	ClassStrongBullish   = "Strong Bullish"
	ClassModerateBullish = "Moderate Bullish"
	ClassNeutral         = "Neutral"
	ClassModerateBearish = "Moderate Bearish"
	ClassStrongBearish   = "Strong Bearish"
)

// EnsembleForecast is the weighted combination of the predictors
type EnsembleForecast struct {
	PredictedPrice        float64         `json:"predicted_price"`
	ExpectedReturnPercent float64         `json:"expected_return_percent"`
	PriceRange            PriceRange      `json:"price_range"`
	Classification        string          `json:"classification"`
	Weights               EnsembleWeights `json:"weights"`
}

// RiskMetrics describe the simulated downside
type RiskMetrics struct {
	ValueAtRisk95       float64 `json:"value_at_risk_95"`
	ExpectedShortfall   float64 `json:"expected_shortfall"`
	MaxDrawdown         float64 `json:"max_drawdown"`
	SharpeRatio         float64 `json:"sharpe_ratio"`
	ProbabilityOfProfit float64 `json:"probability_of_profit"`
}

// ForecastResult is the full probabilistic forecast
type ForecastResult struct {
	GeneratedFor time.Time          `json:"generated_for"`
	CurrentPrice float64            `json:"current_price"`
	Features     FeatureVector      `json:"features"`
	Linear       LinearForecast     `json:"linear"`
	MonteCarlo   MonteCarloForecast `json:"monte_carlo"`
	Pattern      PatternForecast    `json:"pattern"`
	Technical    TechnicalForecast  `json:"technical"`
	Ensemble     EnsembleForecast   `json:"ensemble"`
	Confidence   float64            `json:"confidence"`
	Risk         RiskMetrics        `json:"risk"`
}
