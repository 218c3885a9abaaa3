package portfolio

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/cyclelab/macrorun/internal/config"
)

const monthsPerYear = 12

// AnnualizedVol annualizes the population standard deviation of monthly
// returns.
func AnnualizedVol(monthlyReturns []float64) float64 {
	if len(monthlyReturns) < 2 {
		return 0
	}
	return stat.PopStdDev(monthlyReturns, nil) * math.Sqrt(monthsPerYear)
}

// LeverageFactor computes the overlay multiplier from trailing pre-leverage
// portfolio returns: target_vol / trailing_vol, clipped to max_leverage.
//
// With fewer than two trailing observations the factor is a neutral 1.0. A
// trailing volatility of exactly zero yields max_leverage rather than a
// division blowup.
func LeverageFactor(cfg config.LeverageConfig, trailing []float64) float64 {
	if !cfg.Enabled {
		return 1.0
	}
	if len(trailing) < 2 {
		return 1.0
	}
	vol := AnnualizedVol(trailing)
	if vol == 0 {
		return cfg.MaxLeverage
	}
	factor := cfg.TargetVol / vol
	if factor > cfg.MaxLeverage {
		factor = cfg.MaxLeverage
	}
	if factor < cfg.MinLeverage {
		factor = cfg.MinLeverage
	}
	return factor
}
