// Package perf computes performance metrics from a monthly equity curve.
package perf

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

const monthsPerYear = 12

// Metrics is the performance summary of one backtest run.
type Metrics struct {
	CAGR        float64 `json:"cagr"`
	AnnVol      float64 `json:"ann_vol"`
	Sharpe      float64 `json:"sharpe"`
	MaxDrawdown float64 `json:"max_drawdown"`
	// Calmar is CAGR over absolute max drawdown; +Inf when the curve never
	// draws down. JSON cannot carry Inf, so it is emitted as null there.
	Calmar float64 `json:"-"`

	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Months int       `json:"months"`
}

// Config holds reporter parameters.
type Config struct {
	// RiskFreeRate is the annual risk-free rate used in the Sharpe ratio.
	RiskFreeRate float64
}

// Calculate derives the metric set from an equity curve. The curve must have
// at least two points and start at the run's initial equity.
func Calculate(dates []time.Time, equity []float64, cfg Config) (Metrics, error) {
	if len(dates) != len(equity) {
		return Metrics{}, fmt.Errorf("perf: %d dates vs %d equity points", len(dates), len(equity))
	}
	if len(equity) < 2 {
		return Metrics{}, fmt.Errorf("perf: equity curve needs at least 2 points, got %d", len(equity))
	}

	m := Metrics{Start: dates[0], End: dates[len(dates)-1], Months: len(equity)}

	rets := make([]float64, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		rets[i-1] = equity[i]/equity[i-1] - 1
	}

	years := m.End.Sub(m.Start).Hours() / 24 / 365.25
	if years > 0 {
		m.CAGR = math.Pow(equity[len(equity)-1]/equity[0], 1/years) - 1
	}

	m.AnnVol = stat.PopStdDev(rets, nil) * math.Sqrt(monthsPerYear)

	if m.AnnVol > 1e-9 {
		m.Sharpe = (stat.Mean(rets, nil)*monthsPerYear - cfg.RiskFreeRate) / m.AnnVol
	}

	m.MaxDrawdown = minDrawdown(equity)

	if m.MaxDrawdown < 0 {
		m.Calmar = m.CAGR / math.Abs(m.MaxDrawdown)
	} else {
		m.Calmar = math.Inf(1)
	}

	return m, nil
}

// Drawdowns returns the drawdown series: equity over its running maximum,
// minus one. Zero at fresh highs, negative inside a drawdown.
func Drawdowns(equity []float64) []float64 {
	dd := make([]float64, len(equity))
	peak := math.Inf(-1)
	for i, v := range equity {
		if v > peak {
			peak = v
		}
		dd[i] = v/peak - 1
	}
	return dd
}

func minDrawdown(equity []float64) float64 {
	minDD := 0.0
	for _, d := range Drawdowns(equity) {
		if d < minDD {
			minDD = d
		}
	}
	return minDD
}
