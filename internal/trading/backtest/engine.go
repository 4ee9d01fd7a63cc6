package backtest

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/dtiquant/internal/model"
)

// WarmUpMonths is how long after the first candle entries stay disabled
const WarmUpMonths = 6

// Run replays the candles day by day against the oscillator series.
// At most one trade is open at a time; it is returned as ActiveTrade when the data ends.
func Run(candles []model.Candle, series []model.IndicatorPoint, params model.TradingParameters) (*model.BacktestResult, error) {
	if err := validateInput(candles, series); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid trading parameters: %w", err)
	}

	logger := log.With().Str("component", "backtest").Logger()

	warmUp := model.WarmUpWindow{
		DataStart:    candles[0].Date,
		EligibleFrom: candles[0].Date.AddDate(0, WarmUpMonths, 0),
	}
	for _, c := range candles {
		if !c.Date.Before(warmUp.EligibleFrom) {
			break
		}
		warmUp.WarmUpCandles++
	}

	periods := newPeriodLookup(candles, series)
	result := &model.BacktestResult{
		CompletedTrades: []model.Trade{},
		WarmUp:          warmUp,
	}

	var open *model.Trade
	for i := 1; i < len(candles); i++ {
		candle := candles[i]

		if open != nil {
			if reason, closed := evaluateExit(open, candle, params); closed {
				open.ExitDate = candle.Date
				open.ExitPrice = candle.Close
				open.ExitReason = reason
				result.CompletedTrades = append(result.CompletedTrades, *open)

				logger.Debug().
					Time("entry", open.EntryDate).
					Time("exit", candle.Date).
					Str("reason", string(reason)).
					Float64("pl", open.PLPercent).
					Msg("Trade closed")
				open = nil
			}
			continue
		}

		if candle.Date.Before(warmUp.EligibleFrom) {
			continue
		}

		point := series[i]
		if !(point.Daily < params.EntryThreshold) || !(point.Daily > series[i-1].Daily) {
			continue
		}
		if params.SevenDayFilterEnabled && !periods.filterPasses(i, point.SevenDay) {
			continue
		}

		open = &model.Trade{
			EntryDate:           candle.Date,
			EntryPrice:          candle.Close,
			EntryIndicatorValue: point.Daily,
			EntrySevenDayValue:  point.SevenDay,
			CurrentPrice:        candle.Close,
		}
		logger.Debug().
			Time("entry", candle.Date).
			Float64("price", candle.Close).
			Float64("dti", point.Daily).
			Msg("Trade opened")
	}

	if open != nil {
		active := *open
		result.ActiveTrade = &active
	}

	logger.Debug().
		Int("completed", len(result.CompletedTrades)).
		Bool("active", result.ActiveTrade != nil).
		Int("warm_up_candles", warmUp.WarmUpCandles).
		Msg("Backtest finished")

	return result, nil
}

// evaluateExit refreshes the open trade with the candle and reports whether it must close.
// Take profit wins over stop loss, which wins over the time exit.
func evaluateExit(trade *model.Trade, candle model.Candle, params model.TradingParameters) (model.ExitReason, bool) {
	trade.CurrentPrice = candle.Close
	trade.PLPercent = (candle.Close - trade.EntryPrice) / trade.EntryPrice * 100
	trade.HoldingDays = model.DaysBetween(trade.EntryDate, candle.Date)

	switch {
	case trade.PLPercent >= params.TakeProfitPercent:
		return model.ExitTakeProfit, true
	case trade.PLPercent <= -params.StopLossPercent:
		return model.ExitStopLoss, true
	case trade.HoldingDays >= params.MaxHoldingDays:
		return model.ExitTime, true
	}
	return "", false
}

func validateInput(candles []model.Candle, series []model.IndicatorPoint) error {
	if len(candles) == 0 {
		return fmt.Errorf("%w: empty candle series", model.ErrInvalidInput)
	}
	if len(candles) != len(series) {
		return fmt.Errorf("%w: %d candles but %d indicator points", model.ErrInvalidInput, len(candles), len(series))
	}

	for i, c := range candles {
		if !(c.Close > 0) || math.IsInf(c.Close, 0) {
			return fmt.Errorf("%w: invalid close %v at index %d", model.ErrInvalidInput, c.Close, i)
		}
		if i > 0 && !c.Date.After(candles[i-1].Date) {
			return fmt.Errorf("%w: candle dates must be ascending at index %d", model.ErrInvalidInput, i)
		}

		p := series[i]
		if !finite(p.Daily) || !finite(p.SevenDay) {
			return fmt.Errorf("%w: non-finite indicator value at index %d", model.ErrInvalidInput, i)
		}
		if !p.Date.IsZero() && model.DaysBetween(p.Date, c.Date) != 0 {
			return fmt.Errorf("%w: indicator date %s does not match candle date %s at index %d",
				model.ErrInvalidInput, p.Date.Format("2006-01-02"), c.Date.Format("2006-01-02"), i)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
