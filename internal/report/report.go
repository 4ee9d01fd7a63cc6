package report

import (
	"fmt"
	"math"
	"sort"

	"github.com/Alias1177/dtiquant/internal/model"
	"github.com/Alias1177/dtiquant/internal/trading/optimizer"
)

const dateLayout = "2006-01-02"

// FormatBacktest renders a backtest result and its metrics as plain text
func FormatBacktest(symbol string, params model.TradingParameters, result *model.BacktestResult, m model.PerformanceMetrics) string {
	if result == nil {
		return "No backtest results available"
	}

	output := fmt.Sprintf("\n===== BACKTEST RESULTS: %s =====\n", symbol)
	output += fmt.Sprintf("Entry threshold: %.1f | TP: %.1f%% | SL: %.1f%% | Max hold: %d days | 7-day filter: %t\n",
		params.EntryThreshold, params.TakeProfitPercent, params.StopLossPercent,
		params.MaxHoldingDays, params.SevenDayFilterEnabled)
	output += fmt.Sprintf("Warm-up: %s -> %s (%d candles)\n",
		result.WarmUp.DataStart.Format(dateLayout), result.WarmUp.EligibleFrom.Format(dateLayout),
		result.WarmUp.WarmUpCandles)

	output += fmt.Sprintf("\nTotal trades: %d\n", m.TotalTrades)
	output += fmt.Sprintf("Winning trades: %d (%.2f%%)\n", m.WinningTrades, m.WinRate)
	output += fmt.Sprintf("Losing trades: %d\n", m.LosingTrades)
	output += fmt.Sprintf("Average P/L: %.2f%%\n", m.AvgProfit)
	output += fmt.Sprintf("Total return: %s\n", signed(m.TotalReturn))
	output += fmt.Sprintf("Profit factor: %s\n", profitFactor(m.ProfitFactor))
	output += fmt.Sprintf("Maximum drawdown: %.2f%%\n", m.MaxDrawdownPercent)
	output += fmt.Sprintf("Average holding: %.1f days\n", m.AvgHoldingDays)
	output += fmt.Sprintf("Best trade: %s | Worst trade: %s\n", signed(m.BestTrade), signed(m.WorstTrade))
	output += fmt.Sprintf("Max consecutive wins: %d\n", m.MaxConsecutiveWins)
	output += fmt.Sprintf("Max consecutive losses: %d\n", m.MaxConsecutiveLosses)

	output += "\nExit reasons:\n"
	for _, reason := range model.ExitReasons {
		output += fmt.Sprintf("- %s: %d\n", reason, m.ExitReasonCounts[reason])
	}

	if monthly := MonthlyReturns(result.CompletedTrades); len(monthly) > 0 {
		output += "\nMonthly returns:\n"

		months := make([]string, 0, len(monthly))
		for month := range monthly {
			months = append(months, month)
		}
		sort.Strings(months)

		for _, month := range months {
			output += fmt.Sprintf("- %s: %s\n", month, signed(monthly[month]))
		}
	}

	if t := result.ActiveTrade; t != nil {
		output += "\nOpen position:\n"
		output += fmt.Sprintf("Entered %s at %.5f (DTI %.2f), now %.5f, P/L %s after %d days\n",
			t.EntryDate.Format(dateLayout), t.EntryPrice, t.EntryIndicatorValue,
			t.CurrentPrice, signed(t.PLPercent), t.HoldingDays)
	}

	return output
}

// MonthlyReturns sums closed trade P/L by exit month
func MonthlyReturns(trades []model.Trade) map[string]float64 {
	out := make(map[string]float64)
	for _, t := range trades {
		if !t.IsClosed() {
			continue
		}
		out[t.ExitDate.Format("2006-01")] += t.PLPercent
	}
	return out
}

// FormatOptimization renders the top candidates of a grid search
func FormatOptimization(res *optimizer.Result, top int) string {
	if res == nil {
		return "No optimization results available"
	}

	output := "\n===== OPTIMIZATION =====\n"
	output += fmt.Sprintf("Candidates evaluated: %d\n", len(res.AllResults))

	if res.Best == nil {
		output += "No candidate met the minimum trade count\n"
		return output
	}

	output += fmt.Sprintf("Best: %s (score %.2f)\n", describeCandidate(res.Best.Candidate), res.Best.Score)

	ranked := make([]optimizer.CandidateResult, 0, len(res.AllResults))
	for _, r := range res.AllResults {
		if r.Eligible {
			ranked = append(ranked, r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if top > 0 && len(ranked) > top {
		ranked = ranked[:top]
	}

	output += "\nTop candidates:\n"
	for i, r := range ranked {
		output += fmt.Sprintf("%d. %s | trades %d | win %.1f%% | return %s | score %.2f\n",
			i+1, describeCandidate(r.Candidate), r.Metrics.TotalTrades, r.Metrics.WinRate,
			signed(r.Metrics.TotalReturn), r.Score)
	}

	return output
}

// FormatForecast renders a forecast summary
func FormatForecast(symbol string, f *model.ForecastResult) string {
	if f == nil {
		return "No forecast available"
	}

	e := f.Ensemble
	output := fmt.Sprintf("\n===== FORECAST: %s (%d days) =====\n", symbol, f.MonteCarlo.Horizon)
	output += fmt.Sprintf("Current price: %.5f\n", f.CurrentPrice)
	output += fmt.Sprintf("Predicted price: %.5f (%s)\n", e.PredictedPrice, signed(e.ExpectedReturnPercent))
	output += fmt.Sprintf("Outlook: %s | Confidence: %.0f%%\n", e.Classification, f.Confidence)
	output += fmt.Sprintf("Range: %.5f - %.5f (extreme %.5f - %.5f)\n",
		e.PriceRange.Low, e.PriceRange.High, e.PriceRange.ExtremeLow, e.PriceRange.ExtremeHigh)

	output += "\nModels:\n"
	output += fmt.Sprintf("- Linear: %.5f, trend %s, R2 %.2f (weight %.2f)\n",
		f.Linear.FinalPrice, f.Linear.Trend, f.Linear.RSquared, e.Weights.Linear)
	output += fmt.Sprintf("- Monte Carlo: median %.5f, P(profit) %.1f%% (weight %.2f)\n",
		f.MonteCarlo.Percentiles.P50, f.MonteCarlo.ProbabilityOfProfit, e.Weights.MonteCarlo)
	if f.Pattern.Available {
		output += fmt.Sprintf("- Pattern: %.5f from %d trades, win rate %.0f%% (weight %.2f)\n",
			f.Pattern.PredictedPrice, f.Pattern.SampleSize, f.Pattern.WinRate*100, e.Weights.Pattern)
	} else {
		output += "- Pattern: not enough history\n"
	}
	output += fmt.Sprintf("- Technical: %s %s (%.0f%% bullish)\n",
		f.Technical.Strength, f.Technical.Signal, f.Technical.BullishPercent)

	if len(f.Technical.Factors) > 0 {
		output += "\nFactors:\n"
		for _, factor := range f.Technical.Factors {
			output += fmt.Sprintf("- %s\n", factor)
		}
	}

	r := f.Risk
	output += "\nRisk:\n"
	output += fmt.Sprintf("VaR 95%%: %.2f%% | Expected shortfall: %.2f%%\n", r.ValueAtRisk95, r.ExpectedShortfall)
	output += fmt.Sprintf("Max drawdown: %.2f%% | Sharpe: %.2f\n", r.MaxDrawdown, r.SharpeRatio)

	return output
}

func describeCandidate(c optimizer.Candidate) string {
	p := c.Params
	return fmt.Sprintf("DTI %s, entry %.0f, TP %.0f%%, SL %.0f%%, hold %dd, filter %t",
		c.Periods, p.EntryThreshold, p.TakeProfitPercent, p.StopLossPercent,
		p.MaxHoldingDays, p.SevenDayFilterEnabled)
}

func signed(v float64) string {
	sign := ""
	if v > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, v)
}

func profitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", pf)
}
