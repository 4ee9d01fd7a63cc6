package backtest

import (
	"math"
	"sort"

	"github.com/Alias1177/dtiquant/internal/calculate"
	"github.com/Alias1177/dtiquant/internal/model"
)

// StartingEquity is the first point of every equity curve
const StartingEquity = 100.0

// ComputeMetrics aggregates the closed trades of a set; open trades are skipped
func ComputeMetrics(trades []model.Trade) model.PerformanceMetrics {
	metrics := model.PerformanceMetrics{
		ExitReasonCounts: make(map[model.ExitReason]int, len(model.ExitReasons)),
		EquityCurve:      []float64{StartingEquity},
	}
	for _, reason := range model.ExitReasons {
		metrics.ExitReasonCounts[reason] = 0
	}

	closed := make([]model.Trade, 0, len(trades))
	for _, t := range trades {
		if t.IsClosed() {
			closed = append(closed, t)
		}
	}
	if len(closed) == 0 {
		return metrics
	}

	sort.SliceStable(closed, func(i, j int) bool {
		return closed[i].EntryDate.Before(closed[j].EntryDate)
	})

	var grossProfit, grossLoss, totalHolding float64
	var wins, losses int
	returns := make([]float64, 0, len(closed))

	metrics.BestTrade = closed[0].PLPercent
	metrics.WorstTrade = closed[0].PLPercent

	equity := StartingEquity
	for _, t := range closed {
		pl := t.PLPercent
		returns = append(returns, pl)
		totalHolding += float64(t.HoldingDays)
		metrics.ExitReasonCounts[t.ExitReason]++

		if pl > 0 {
			metrics.WinningTrades++
			grossProfit += pl
			wins++
			losses = 0
		} else {
			metrics.LosingTrades++
			grossLoss += math.Abs(pl)
			losses++
			wins = 0
		}
		if wins > metrics.MaxConsecutiveWins {
			metrics.MaxConsecutiveWins = wins
		}
		if losses > metrics.MaxConsecutiveLosses {
			metrics.MaxConsecutiveLosses = losses
		}

		metrics.BestTrade = math.Max(metrics.BestTrade, pl)
		metrics.WorstTrade = math.Min(metrics.WorstTrade, pl)

		equity *= 1 + pl/100
		metrics.EquityCurve = append(metrics.EquityCurve, equity)
	}

	metrics.TotalTrades = len(closed)
	metrics.WinRate = float64(metrics.WinningTrades) / float64(metrics.TotalTrades) * 100
	metrics.AvgProfit = calculate.Average(returns)
	metrics.AvgHoldingDays = totalHolding / float64(metrics.TotalTrades)
	metrics.TotalReturn = equity - StartingEquity
	metrics.MaxDrawdownPercent = maxDrawdown(metrics.EquityCurve)

	switch {
	case grossLoss > 0:
		metrics.ProfitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		metrics.ProfitFactor = math.Inf(1)
	default:
		metrics.ProfitFactor = 0
	}

	return metrics
}

// maxDrawdown is the deepest fall from the running peak, in percent
func maxDrawdown(curve []float64) float64 {
	if len(curve) == 0 {
		return 0
	}

	maxDD := 0.0
	peak := curve[0]
	for _, equity := range curve {
		if equity > peak {
			peak = equity
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - equity) / peak * 100
		if drawdown > maxDD {
			maxDD = drawdown
		}
	}
	return maxDD
}
