package perf

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func curveDates(n int) []time.Time {
	out := make([]time.Time, n)
	d := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		next := d.AddDate(0, i+1, 0)
		out[i] = next.AddDate(0, 0, -1) // month end
	}
	return out
}

func TestCalculate_KnownCurve(t *testing.T) {
	// Equity 1.0 -> 0.8 -> 1.0: returns -20%, +25%.
	dates := curveDates(3)
	m, err := Calculate(dates, []float64{1.0, 0.8, 1.0}, Config{})
	require.NoError(t, err)

	// Flat start to end: CAGR is exactly zero.
	assert.Equal(t, 0.0, m.CAGR)
	assert.InDelta(t, -0.2, m.MaxDrawdown, 1e-12)
	assert.Equal(t, 0.0, m.Calmar)

	// Pop std of {-0.2, 0.25} is 0.225.
	assert.InDelta(t, 0.225*math.Sqrt(12), m.AnnVol, 1e-12)
	// Mean monthly return 0.025, annualized 0.3.
	assert.InDelta(t, 0.3/(0.225*math.Sqrt(12)), m.Sharpe, 1e-12)

	assert.Equal(t, dates[0], m.Start)
	assert.Equal(t, dates[2], m.End)
	assert.Equal(t, 3, m.Months)
}

func TestCalculate_CAGRUsesCalendarTime(t *testing.T) {
	// Exactly one 365.25-day year of growth at +21%.
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Duration(365.25 * 24 * float64(time.Hour)))
	m, err := Calculate([]time.Time{start, end}, []float64{1.0, 1.21}, Config{})
	require.NoError(t, err)

	assert.InDelta(t, 0.21, m.CAGR, 1e-9)
}

func TestCalculate_RiskFreeRate(t *testing.T) {
	dates := curveDates(3)
	base, err := Calculate(dates, []float64{1.0, 1.05, 1.0}, Config{})
	require.NoError(t, err)
	adj, err := Calculate(dates, []float64{1.0, 1.05, 1.0}, Config{RiskFreeRate: 0.02})
	require.NoError(t, err)

	assert.InDelta(t, base.Sharpe-0.02/base.AnnVol, adj.Sharpe, 1e-12)
}

func TestCalculate_ZeroDrawdownCalmar(t *testing.T) {
	dates := curveDates(4)
	m, err := Calculate(dates, []float64{1.0, 1.1, 1.2, 1.3}, Config{})
	require.NoError(t, err)

	assert.Equal(t, 0.0, m.MaxDrawdown)
	assert.True(t, math.IsInf(m.Calmar, 1))
}

func TestCalculate_FlatCurve(t *testing.T) {
	dates := curveDates(3)
	m, err := Calculate(dates, []float64{1.0, 1.0, 1.0}, Config{})
	require.NoError(t, err)

	assert.Equal(t, 0.0, m.CAGR)
	assert.Equal(t, 0.0, m.AnnVol)
	// Volatility too small for a meaningful ratio: Sharpe stays zero.
	assert.Equal(t, 0.0, m.Sharpe)
}

func TestCalculate_Errors(t *testing.T) {
	dates := curveDates(2)
	_, err := Calculate(dates[:1], []float64{1.0}, Config{})
	assert.Error(t, err)

	_, err = Calculate(dates, []float64{1.0}, Config{})
	assert.Error(t, err)
}

func TestDrawdowns(t *testing.T) {
	dd := Drawdowns([]float64{1.0, 1.2, 0.9, 1.2, 1.3})

	assert.Equal(t, 0.0, dd[0])
	assert.Equal(t, 0.0, dd[1])
	assert.InDelta(t, 0.9/1.2-1, dd[2], 1e-12)
	assert.Equal(t, 0.0, dd[3])
	assert.Equal(t, 0.0, dd[4])
}
