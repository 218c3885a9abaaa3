// Package portfolio maps regimes to target weights and applies the
// volatility-targeting leverage overlay.
package portfolio

import (
	"fmt"

	"github.com/cyclelab/macrorun/internal/config"
	"github.com/cyclelab/macrorun/internal/macro"
)

// WeightVector maps asset tickers to target fractions of portfolio notional.
type WeightVector map[string]float64

// Gross returns the sum of absolute weights.
func (w WeightVector) Gross() float64 {
	g := 0.0
	for _, v := range w {
		if v < 0 {
			g -= v
		} else {
			g += v
		}
	}
	return g
}

// Scaled returns a copy of the vector with every entry multiplied by f.
func (w WeightVector) Scaled(f float64) WeightVector {
	out := make(WeightVector, len(w))
	for ticker, v := range w {
		out[ticker] = v * f
	}
	return out
}

// Table is the static regime-to-weights lookup. Assets absent from a
// regime's config entry get weight zero.
type Table struct {
	universe []string
	rows     map[macro.Regime]WeightVector
}

// NewTable builds the lookup table from configured label→weights maps.
// Coverage of all four regimes is enforced here as well as at config load,
// so programmatically built configs fail the same way.
func NewTable(weights map[string]map[string]float64, universe []string) (*Table, error) {
	t := &Table{universe: universe, rows: make(map[macro.Regime]WeightVector)}
	for label, vec := range weights {
		regime, err := macro.ParseRegime(label)
		if err != nil {
			return nil, &config.ConfigError{Field: "weights", Reason: err.Error()}
		}
		row := make(WeightVector, len(universe))
		for _, ticker := range universe {
			row[ticker] = vec[ticker]
		}
		t.rows[regime] = row
	}
	for _, regime := range macro.Regimes() {
		if _, ok := t.rows[regime]; !ok {
			return nil, &config.ConfigError{
				Field:  "weights",
				Reason: fmt.Sprintf("missing entry for regime %s", regime),
			}
		}
	}
	return t, nil
}

// Universe returns the asset tickers in configured order.
func (t *Table) Universe() []string { return t.universe }

// Weights resolves the target vector for a regime. Pure lookup, no
// interpolation between regimes.
func (t *Table) Weights(r macro.Regime) (WeightVector, error) {
	row, ok := t.rows[r]
	if !ok {
		return nil, &config.ConfigError{
			Field:  "weights",
			Reason: fmt.Sprintf("missing entry for regime %s", r),
		}
	}
	return row, nil
}
