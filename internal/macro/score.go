// Package macro turns an aligned indicator panel into a composite business
// cycle score and a four-state regime classification.
package macro

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/cyclelab/macrorun/internal/data"
)

// ScorerConfig controls z-score normalization of the indicators.
type ScorerConfig struct {
	// Window is the trailing number of months used for the rolling mean and
	// standard deviation. Zero means full-sample (expanding) normalization.
	Window int
}

// CompositeScore standardizes each indicator over its trailing window and
// combines them into one score per month: sum(w_i * z_i) / sum(|w_i|) over
// the indicators present that month. Only months up to and including the
// current one enter the statistics, so the score at month M is invariant to
// deleting all data after M.
//
// Degenerate months do not error: an indicator whose trailing standard
// deviation is zero (or that has fewer than two observations yet) contributes
// zero.
func CompositeScore(p *data.Panel, weights map[string]float64, cfg ScorerConfig) (data.MonthlySeries, error) {
	if len(weights) == 0 {
		return data.MonthlySeries{}, fmt.Errorf("composite score: no indicator weights")
	}
	cols := make([]int, 0, len(weights))
	w := make([]float64, 0, len(weights))
	for j, name := range p.Columns {
		if wj, ok := weights[name]; ok {
			cols = append(cols, j)
			w = append(w, wj)
		}
	}
	for name := range weights {
		found := false
		for _, j := range cols {
			if p.Columns[j] == name {
				found = true
				break
			}
		}
		if !found {
			return data.MonthlySeries{}, fmt.Errorf("composite score: indicator %s not in panel", name)
		}
	}

	scores := make([]float64, len(p.Dates))
	scratch := make([]float64, 0, len(p.Dates))
	for i := range p.Dates {
		var num, den float64
		for k, j := range cols {
			v := p.Values[i][j]
			if data.Missing(v) {
				continue
			}
			z := trailingZ(p, i, j, cfg.Window, scratch[:0])
			num += w[k] * z
			den += math.Abs(w[k])
		}
		if den > 0 {
			scores[i] = num / den
		}
	}

	return data.MonthlySeries{Name: "composite", Dates: p.Dates, Values: scores}, nil
}

// trailingZ standardizes the value at row i against the trailing window of
// column j ending at row i. scratch avoids per-call allocation.
func trailingZ(p *data.Panel, i, j, window int, scratch []float64) float64 {
	lo := 0
	if window > 0 && i-window+1 > 0 {
		lo = i - window + 1
	}
	vals := scratch
	for k := lo; k <= i; k++ {
		if v := p.Values[k][j]; !data.Missing(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) < 2 {
		return 0
	}
	mean, sd := stat.MeanStdDev(vals, nil)
	if sd == 0 {
		return 0
	}
	return (p.Values[i][j] - mean) / sd
}
