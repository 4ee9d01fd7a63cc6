package model

import (
	"fmt"
	"math"
	"time"
)

// TradingParameters configures one backtest run
type TradingParameters struct {
	EntryThreshold        float64 `json:"entry_threshold"`
	TakeProfitPercent     float64 `json:"take_profit_percent"`
	StopLossPercent       float64 `json:"stop_loss_percent"`
	MaxHoldingDays        int     `json:"max_holding_days"`
	SevenDayFilterEnabled bool    `json:"seven_day_filter_enabled"`
}

// Validate rejects parameter sets the engine cannot run with
func (p TradingParameters) Validate() error {
	switch {
	case math.IsNaN(p.EntryThreshold) || math.IsInf(p.EntryThreshold, 0):
		return fmt.Errorf("%w: entry threshold must be finite", ErrInvalidInput)
	case !(p.TakeProfitPercent > 0):
		return fmt.Errorf("%w: take profit must be positive, got %v", ErrInvalidInput, p.TakeProfitPercent)
	case !(p.StopLossPercent > 0):
		return fmt.Errorf("%w: stop loss must be positive, got %v", ErrInvalidInput, p.StopLossPercent)
	case p.MaxHoldingDays < 1:
		return fmt.Errorf("%w: max holding days must be positive, got %d", ErrInvalidInput, p.MaxHoldingDays)
	}
	return nil
}

// ExitReason explains why a trade was closed
type ExitReason string

const (
	ExitTakeProfit ExitReason = "TakeProfit"
	ExitStopLoss   ExitReason = "StopLoss"
	ExitTime       ExitReason = "TimeExit"
)

// ExitReasons lists every exit reason in precedence order
var ExitReasons = []ExitReason{ExitTakeProfit, ExitStopLoss, ExitTime}

// Trade is a single long position. It is open until ExitDate and ExitReason are set.
type Trade struct {
	EntryDate           time.Time  `json:"entry_date"`
	EntryPrice          float64    `json:"entry_price"`
	EntryIndicatorValue float64    `json:"entry_indicator_value"`
	EntrySevenDayValue  float64    `json:"entry_seven_day_value"`
	ExitDate            time.Time  `json:"exit_date,omitempty"`
	ExitPrice           float64    `json:"exit_price,omitempty"`
	ExitReason          ExitReason `json:"exit_reason,omitempty"`
	CurrentPrice        float64    `json:"current_price"`
	PLPercent           float64    `json:"pl_percent"`
	HoldingDays         int        `json:"holding_days"`
}

// IsClosed reports whether the trade has reached its terminal state
func (t Trade) IsClosed() bool {
	return !t.ExitDate.IsZero() && t.ExitReason != ""
}

// WarmUpWindow describes the span of history where entries were not permitted
type WarmUpWindow struct {
	DataStart     time.Time `json:"data_start"`
	EligibleFrom  time.Time `json:"eligible_from"`
	WarmUpCandles int       `json:"warm_up_candles"`
}

// BacktestResult stores the outcome of one backtest run
type BacktestResult struct {
	CompletedTrades []Trade      `json:"completed_trades"`
	ActiveTrade     *Trade       `json:"active_trade,omitempty"`
	WarmUp          WarmUpWindow `json:"warm_up"`
}

// PerformanceMetrics aggregates a set of closed trades
type PerformanceMetrics struct {
	TotalTrades          int                `json:"total_trades"`
	WinningTrades        int                `json:"winning_trades"`
	LosingTrades         int                `json:"losing_trades"`
	WinRate              float64            `json:"win_rate"`
	AvgProfit            float64            `json:"avg_profit"`
	TotalReturn          float64            `json:"total_return"`
	ProfitFactor         float64            `json:"profit_factor"`
	MaxDrawdownPercent   float64            `json:"max_drawdown_percent"`
	AvgHoldingDays       float64            `json:"avg_holding_days"`
	ExitReasonCounts     map[ExitReason]int `json:"exit_reason_counts"`
	EquityCurve          []float64          `json:"equity_curve"`
	BestTrade            float64            `json:"best_trade"`
	WorstTrade           float64            `json:"worst_trade"`
	MaxConsecutiveWins   int                `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int                `json:"max_consecutive_losses"`
}
