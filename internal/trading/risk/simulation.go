package risk

import (
	"math"

	"github.com/Alias1177/dtiquant/internal/calculate"
	"github.com/Alias1177/dtiquant/internal/model"
)

const (
	// DefaultRiskFreeRate is the assumed annual risk-free return
	DefaultRiskFreeRate = 0.02
	tradingDaysPerYear  = 252
	tailFraction        = 0.05
)

// Simulation is the raw material the risk view is computed from
type Simulation struct {
	CurrentPrice float64
	Horizon      int
	// Terminal holds the simulated final prices sorted ascending
	Terminal []float64
	// PathDrawdowns holds every path's own peak-to-trough drawdown in percent
	PathDrawdowns []float64
}

// PathDrawdown returns the deepest fall from the running peak of a price path.
// The peak starts at the price the path was simulated from.
func PathDrawdown(start float64, path []float64) float64 {
	peak := start
	maxDD := 0.0
	for _, price := range path {
		if price > peak {
			peak = price
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - price) / peak * 100; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// FromSimulation derives downside metrics from simulated outcomes.
// annualRiskFree is scaled to the simulation horizon before it enters the Sharpe-like ratio.
func FromSimulation(sim Simulation, annualRiskFree float64) model.RiskMetrics {
	var metrics model.RiskMetrics
	n := len(sim.Terminal)
	if n == 0 || sim.CurrentPrice <= 0 {
		return metrics
	}
	price := sim.CurrentPrice

	metrics.ValueAtRisk95 = (price - calculate.Percentile(sim.Terminal, 5)) / price * 100

	tail := int(float64(n) * tailFraction)
	if tail < 1 {
		tail = 1
	}
	metrics.ExpectedShortfall = (price - calculate.Average(sim.Terminal[:tail])) / price * 100

	metrics.MaxDrawdown = calculate.Average(sim.PathDrawdowns)

	returns := make([]float64, n)
	profitable := 0
	for i, terminal := range sim.Terminal {
		returns[i] = (terminal - price) / price
		if terminal > price {
			profitable++
		}
	}
	metrics.ProbabilityOfProfit = float64(profitable) / float64(n) * 100

	mean := calculate.Average(returns)
	sd := calculate.StdDev(returns, mean)
	if sd > 0 {
		riskFree := annualRiskFree * float64(sim.Horizon) / tradingDaysPerYear
		metrics.SharpeRatio = (mean - riskFree) / sd
	}

	if math.IsNaN(metrics.SharpeRatio) {
		metrics.SharpeRatio = 0
	}
	return metrics
}
