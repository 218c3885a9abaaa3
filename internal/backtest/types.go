// Package backtest walks the monthly return history and accumulates the
// portfolio equity curve under regime-conditioned, leverage-scaled weights.
package backtest

import (
	"fmt"
	"time"

	"github.com/cyclelab/macrorun/internal/macro"
	"github.com/cyclelab/macrorun/internal/portfolio"
)

// DateAlignmentError reports that the regime signal and the asset return
// history do not overlap enough to produce a single rebalance period.
type DateAlignmentError struct {
	SignalMonths int
	ReturnMonths int
	Overlap      int
}

func (e *DateAlignmentError) Error() string {
	return fmt.Sprintf("signal (%d months) and returns (%d months) overlap on %d months, need at least 2",
		e.SignalMonths, e.ReturnMonths, e.Overlap)
}

// MonthResult records one month of the walk for reporting.
type MonthResult struct {
	Date     time.Time              `json:"date"`
	Regime   macro.Regime           `json:"-"`
	Label    string                 `json:"regime"`
	Weights  portfolio.WeightVector `json:"weights"`
	Leverage float64                `json:"leverage"`
	// GrossReturn is the unlevered weighted asset return for the month;
	// NetReturn includes the leverage factor. Both are zero on the
	// inception month.
	GrossReturn float64 `json:"gross_return"`
	NetReturn   float64 `json:"net_return"`
	Equity      float64 `json:"equity"`
}

// Result is the complete outcome of one backtest run.
type Result struct {
	RunID  string        `json:"run_id"`
	Start  time.Time     `json:"start"`
	End    time.Time     `json:"end"`
	Months []MonthResult `json:"months"`
}

// EquityCurve extracts the (date, equity) pairs. The first entry is exactly
// 1.0 at the inception month.
func (r *Result) EquityCurve() ([]time.Time, []float64) {
	dates := make([]time.Time, len(r.Months))
	equity := make([]float64, len(r.Months))
	for i, m := range r.Months {
		dates[i] = m.Date
		equity[i] = m.Equity
	}
	return dates, equity
}

// RegimeCounts tallies months spent in each regime.
func (r *Result) RegimeCounts() map[string]int {
	counts := make(map[string]int, 4)
	for _, m := range r.Months {
		counts[m.Label]++
	}
	return counts
}
