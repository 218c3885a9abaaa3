package backtest

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cyclelab/macrorun/internal/config"
	"github.com/cyclelab/macrorun/internal/macro"
	"github.com/cyclelab/macrorun/internal/portfolio"
)

// Engine rebalances monthly to the regime's target weights, scaled by the
// volatility-targeting overlay, and accumulates the equity curve.
type Engine struct {
	table    *portfolio.Table
	leverage config.LeverageConfig
}

// NewEngine builds an engine over a complete weight table.
func NewEngine(table *portfolio.Table, leverage config.LeverageConfig) *Engine {
	return &Engine{table: table, leverage: leverage}
}

// Run walks the joint date range of the regime signal and the asset returns.
// The first overlapping month is the inception: equity 1.0, holdings set to
// that month's target. Each later month applies the month's asset returns to
// the (leverage-scaled) holdings, then rebalances back to target. Fails with
// DateAlignmentError when fewer than two months overlap.
//
// The signal at month M is already free of look-ahead (the aligner lags every
// indicator past its publication month), so month M's label steers month M's
// returns.
func (e *Engine) Run(signal []macro.Classification, returns *Returns) (*Result, error) {
	signalByDate := make(map[int64]macro.Regime, len(signal))
	for _, c := range signal {
		signalByDate[c.Date.Unix()] = c.Regime
	}

	type step struct {
		regime macro.Regime
		rets   []float64
	}
	var dates []int
	var steps []step
	for i, d := range returns.Dates {
		regime, ok := signalByDate[d.Unix()]
		if !ok {
			continue
		}
		dates = append(dates, i)
		steps = append(steps, step{regime: regime, rets: returns.Values[i]})
	}

	if len(steps) < 2 {
		return nil, &DateAlignmentError{
			SignalMonths: len(signal),
			ReturnMonths: len(returns.Dates),
			Overlap:      len(steps),
		}
	}

	result := &Result{
		RunID: uuid.NewString(),
		Start: returns.Dates[dates[0]],
		End:   returns.Dates[dates[len(dates)-1]],
	}

	log.Debug().
		Str("run_id", result.RunID).
		Int("months", len(steps)).
		Time("start", result.Start).
		Time("end", result.End).
		Msg("backtest window resolved")

	equity := 1.0
	gross := make([]float64, 0, len(steps)) // pre-leverage portfolio returns
	for i, s := range steps {
		target, err := e.table.Weights(s.regime)
		if err != nil {
			return nil, err
		}

		factor := portfolio.LeverageFactor(e.leverage, trailing(gross, e.leverage.LookbackMonths))
		scaled := target.Scaled(factor)

		month := MonthResult{
			Date:     returns.Dates[dates[i]],
			Regime:   s.regime,
			Label:    s.regime.String(),
			Weights:  scaled,
			Leverage: factor,
		}

		if i == 0 {
			// Inception month: holdings are set, no return has accrued yet.
			month.Equity = equity
			gross = append(gross, weightedReturn(target, returns.Tickers, s.rets))
			result.Months = append(result.Months, month)
			continue
		}

		g := weightedReturn(target, returns.Tickers, s.rets)
		month.GrossReturn = g
		month.NetReturn = g * factor
		equity *= 1 + month.NetReturn
		month.Equity = equity
		gross = append(gross, g)
		result.Months = append(result.Months, month)
	}

	return result, nil
}

// trailing returns the last n entries, excluding none of the history other
// than what the window cuts off. The current month is not yet appended when
// this is called, so the window never sees it.
func trailing(history []float64, n int) []float64 {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

func weightedReturn(w portfolio.WeightVector, tickers []string, rets []float64) float64 {
	total := 0.0
	for i, ticker := range tickers {
		total += w[ticker] * rets[i]
	}
	return total
}
