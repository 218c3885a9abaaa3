package portfolio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cyclelab/macrorun/internal/config"
)

func levCfg() config.LeverageConfig {
	return config.LeverageConfig{
		Enabled:        true,
		TargetVol:      0.10,
		LookbackMonths: 12,
		MaxLeverage:    1.5,
		MinLeverage:    0.0,
	}
}

func TestAnnualizedVol(t *testing.T) {
	// Population std of {0.01, 0.03} is 0.01.
	assert.InDelta(t, 0.01*math.Sqrt(12), AnnualizedVol([]float64{0.01, 0.03}), 1e-12)

	assert.Equal(t, 0.0, AnnualizedVol(nil))
	assert.Equal(t, 0.0, AnnualizedVol([]float64{0.05}))
}

func TestLeverageFactor_Targets(t *testing.T) {
	// Trailing vol 0.01*sqrt(12) ~= 3.46% annualized, target 10%: the raw
	// factor ~2.89 must clip at max_leverage.
	f := LeverageFactor(levCfg(), []float64{0.01, 0.03})
	assert.Equal(t, 1.5, f)

	// Higher vol scales below 1x.
	cfg := levCfg()
	f = LeverageFactor(cfg, []float64{-0.10, 0.10})
	vol := AnnualizedVol([]float64{-0.10, 0.10})
	assert.InDelta(t, cfg.TargetVol/vol, f, 1e-12)
	assert.Less(t, f, 1.0)
}

func TestLeverageFactor_Disabled(t *testing.T) {
	cfg := levCfg()
	cfg.Enabled = false
	assert.Equal(t, 1.0, LeverageFactor(cfg, []float64{0.01, 0.03}))
}

func TestLeverageFactor_ShortHistory(t *testing.T) {
	assert.Equal(t, 1.0, LeverageFactor(levCfg(), nil))
	assert.Equal(t, 1.0, LeverageFactor(levCfg(), []float64{0.02}))
}

func TestLeverageFactor_ZeroVol(t *testing.T) {
	// Constant trailing returns: zero volatility resolves to max_leverage.
	f := LeverageFactor(levCfg(), []float64{0.01, 0.01, 0.01})
	assert.Equal(t, 1.5, f)
}

func TestLeverageFactor_MinFloor(t *testing.T) {
	cfg := levCfg()
	cfg.MinLeverage = 0.5
	// Very high trailing vol would push the factor near zero.
	f := LeverageFactor(cfg, []float64{-0.5, 0.5})
	assert.Equal(t, 0.5, f)
}
