package macro

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/cyclelab/macrorun/internal/data"
)

// Regime is one of the four business cycle phases.
type Regime int

const (
	Recovery Regime = iota
	Expansion
	Slowdown
	Recession
)

func (r Regime) String() string {
	switch r {
	case Recovery:
		return "recovery"
	case Expansion:
		return "expansion"
	case Slowdown:
		return "slowdown"
	case Recession:
		return "recession"
	default:
		return "unknown"
	}
}

// Regimes lists all four phases in a stable order.
func Regimes() []Regime {
	return []Regime{Recovery, Expansion, Slowdown, Recession}
}

// ParseRegime converts a label string to a Regime.
func ParseRegime(s string) (Regime, error) {
	for _, r := range Regimes() {
		if r.String() == s {
			return r, nil
		}
	}
	return Recovery, fmt.Errorf("unknown regime label %q", s)
}

// TieBreak decides the direction when the month-over-month score change is
// exactly zero (including the first month, which has no prior score).
type TieBreak string

const (
	TieBreakFalling TieBreak = "falling"
	TieBreakRising  TieBreak = "rising"
)

// ClassifierConfig controls regime classification.
type ClassifierConfig struct {
	// MedianWindow is the trailing window for the level median; zero means
	// an expanding median over all history up to the month.
	MedianWindow int
	// TieBreak resolves a zero score change. Defaults to falling.
	TieBreak TieBreak
}

// Classification is one month's regime decision with its inputs, kept for
// reporting and explainability.
type Classification struct {
	Date   time.Time
	Score  float64
	Median float64
	Change float64
	Regime Regime
}

// Classify labels every month of the score series. The level split compares
// the score to its own trailing median (a score exactly at the median counts
// as below); the direction split uses the first difference of the score.
// Classification at month M reads only scores up to and including M.
func Classify(score data.MonthlySeries, cfg ClassifierConfig) []Classification {
	if cfg.TieBreak == "" {
		cfg.TieBreak = TieBreakFalling
	}
	out := make([]Classification, score.Len())
	sorted := make([]float64, 0, score.Len())
	for i := range score.Dates {
		lo := 0
		if cfg.MedianWindow > 0 && i-cfg.MedianWindow+1 > 0 {
			lo = i - cfg.MedianWindow + 1
		}
		sorted = append(sorted[:0], score.Values[lo:i+1]...)
		sort.Float64s(sorted)
		median := stat.Quantile(0.5, stat.LinInterp, sorted, nil)

		change := 0.0
		if i > 0 {
			change = score.Values[i] - score.Values[i-1]
		}

		above := score.Values[i] > median
		rising := change > 0
		if change == 0 && cfg.TieBreak == TieBreakRising {
			rising = true
		}

		var r Regime
		switch {
		case above && rising:
			r = Expansion
		case above && !rising:
			r = Slowdown
		case !above && rising:
			r = Recovery
		default:
			r = Recession
		}

		out[i] = Classification{
			Date:   score.Dates[i],
			Score:  score.Values[i],
			Median: median,
			Change: change,
			Regime: r,
		}
	}
	return out
}
