package macro

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyclelab/macrorun/internal/data"
)

func monthEnds(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = data.MonthEnd(data.MonthStart(start).AddDate(0, i, 0))
	}
	return out
}

func panelOf(t *testing.T, start time.Time, cols map[string][]float64) *data.Panel {
	t.Helper()
	p := &data.Panel{}
	n := 0
	// Deterministic column order.
	for _, name := range sortedKeys(cols) {
		p.Columns = append(p.Columns, name)
		n = len(cols[name])
	}
	p.Dates = monthEnds(start, n)
	for i := 0; i < n; i++ {
		row := make([]float64, len(p.Columns))
		for j, name := range p.Columns {
			row[j] = cols[name][i]
		}
		p.Values = append(p.Values, row)
	}
	return p
}

func sortedKeys(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

var jan2020 = time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC)

func TestCompositeScore_SingleIndicator(t *testing.T) {
	p := panelOf(t, jan2020, map[string][]float64{"PMI": {1, 2, 3}})

	s, err := CompositeScore(p, map[string]float64{"PMI": 1.0}, ScorerConfig{})
	require.NoError(t, err)

	require.Equal(t, 3, s.Len())
	// First month: one observation, z falls back to zero.
	assert.Equal(t, 0.0, s.Values[0])
	// Second month: z of 2 against {1,2}, sample std.
	assert.InDelta(t, (2.0-1.5)/math.Sqrt(0.5), s.Values[1], 1e-12)
	// Third month: z of 3 against {1,2,3}.
	assert.InDelta(t, 1.0, s.Values[2], 1e-12)
}

func TestCompositeScore_SignedWeights(t *testing.T) {
	p := panelOf(t, jan2020, map[string][]float64{
		"PMI":    {1, 2, 3},
		"UNRATE": {1, 2, 3},
	})

	// Equal magnitude, opposite sign, identical series: contributions cancel.
	s, err := CompositeScore(p, map[string]float64{"PMI": 1.0, "UNRATE": -1.0}, ScorerConfig{})
	require.NoError(t, err)
	for _, v := range s.Values {
		assert.InDelta(t, 0.0, v, 1e-12)
	}
}

func TestCompositeScore_ZeroStdContributesZero(t *testing.T) {
	p := panelOf(t, jan2020, map[string][]float64{
		"FLAT": {5, 5, 5, 5},
		"PMI":  {1, 2, 3, 4},
	})

	s, err := CompositeScore(p, map[string]float64{"FLAT": 0.5, "PMI": 0.5}, ScorerConfig{})
	require.NoError(t, err)

	// FLAT has zero variance and contributes nothing, but its weight still
	// enters the normalizer: score = 0.5*z_PMI / 1.0.
	zPMI := (4.0 - 2.5) / sampleStd([]float64{1, 2, 3, 4})
	assert.InDelta(t, 0.5*zPMI, s.Values[3], 1e-12)
}

func sampleStd(vals []float64) float64 {
	var mean float64
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	var ss float64
	for _, v := range vals {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}

func TestCompositeScore_NoLookAhead(t *testing.T) {
	vals := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5, 8}
	full := panelOf(t, jan2020, map[string][]float64{"PMI": vals})
	weights := map[string]float64{"PMI": 1.0}

	sFull, err := CompositeScore(full, weights, ScorerConfig{Window: 6})
	require.NoError(t, err)

	// Truncating the panel after month M must not change scores up to M.
	for cut := 1; cut <= len(vals); cut++ {
		trunc := panelOf(t, jan2020, map[string][]float64{"PMI": vals[:cut]})
		sCut, err := CompositeScore(trunc, weights, ScorerConfig{Window: 6})
		require.NoError(t, err)
		for i := 0; i < cut; i++ {
			assert.Equal(t, sFull.Values[i], sCut.Values[i], "month %d, cut %d", i, cut)
		}
	}
}

func TestCompositeScore_RollingWindow(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 6}
	p := panelOf(t, jan2020, map[string][]float64{"PMI": vals})

	s, err := CompositeScore(p, map[string]float64{"PMI": 1.0}, ScorerConfig{Window: 3})
	require.NoError(t, err)

	// Last month standardized against {4,5,6} only.
	assert.InDelta(t, (6.0-5.0)/1.0, s.Values[5], 1e-12)
}

func TestCompositeScore_MissingIndicator(t *testing.T) {
	p := panelOf(t, jan2020, map[string][]float64{"PMI": {1, 2}})

	_, err := CompositeScore(p, map[string]float64{"PMI": 0.5, "UNRATE": 0.5}, ScorerConfig{})
	assert.Error(t, err)
}

func TestCompositeScore_SkipsMissingValues(t *testing.T) {
	p := panelOf(t, jan2020, map[string][]float64{
		"PMI":    {1, 2, 3},
		"CREDIT": {10, math.NaN(), 30},
	})

	s, err := CompositeScore(p, map[string]float64{"PMI": 0.5, "CREDIT": 0.5}, ScorerConfig{})
	require.NoError(t, err)

	// Month 2: CREDIT is absent, so the score is PMI's z alone.
	zPMI := (2.0 - 1.5) / sampleStd([]float64{1, 2})
	assert.InDelta(t, zPMI, s.Values[1], 1e-12)
}
