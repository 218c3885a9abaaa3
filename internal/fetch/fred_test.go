package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyclelab/macrorun/internal/data"
)

// fredStub serves canned observation payloads keyed by series_id.
func fredStub(t *testing.T, payloads map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/series/observations", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		body, ok := payloads[r.URL.Query().Get("series_id")]
		if !ok {
			rw.WriteHeader(http.StatusNotFound)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		fmt.Fprint(rw, body)
	}))
}

func testClient(baseURL string) *Client {
	return NewClient("test-key", Config{
		BaseURL:      baseURL,
		RateLimitRPS: 1000,
		Burst:        100,
	})
}

const unratePayload = `{"observations": [
	{"date": "2020-01-01", "value": "3.6"},
	{"date": "2020-02-01", "value": "."},
	{"date": "2020-03-01", "value": "4.4"}
]}`

func TestObservations(t *testing.T) {
	srv := fredStub(t, map[string]string{"UNRATE": unratePayload})
	defer srv.Close()

	obs, err := testClient(srv.URL).Observations(context.Background(), "UNRATE")
	require.NoError(t, err)

	// The "." placeholder is a missing value, not a zero.
	require.Len(t, obs, 2)
	assert.Equal(t, 3.6, obs[0].Value)
	assert.Equal(t, 4.4, obs[1].Value)
	assert.Equal(t, time.January, obs[0].Date.Month())
}

func TestObservations_HTTPError(t *testing.T) {
	srv := fredStub(t, nil)
	defer srv.Close()

	_, err := testClient(srv.URL).Observations(context.Background(), "UNRATE")
	assert.Error(t, err)
}

func TestObservations_Empty(t *testing.T) {
	srv := fredStub(t, map[string]string{"UNRATE": `{"observations": []}`})
	defer srv.Close()

	_, err := testClient(srv.URL).Observations(context.Background(), "UNRATE")
	assert.Error(t, err)
}

func TestSeries_SpreadLegs(t *testing.T) {
	srv := fredStub(t, map[string]string{
		"DGS10": `{"observations": [{"date": "2020-01-31", "value": "2.5"}, {"date": "2020-02-29", "value": "2.4"}]}`,
		"DGS2":  `{"observations": [{"date": "2020-01-31", "value": "1.5"}, {"date": "2020-02-29", "value": "1.6"}]}`,
	})
	defer srv.Close()

	s, err := testClient(srv.URL).Series(context.Background(), "TERM_10y_2y",
		SeriesSpec{SeriesID: "DGS10-DGS2"})
	require.NoError(t, err)

	require.Equal(t, 2, s.Len())
	assert.Equal(t, "TERM_10y_2y", s.Name)
	assert.InDelta(t, 1.0, s.Values[0], 1e-12)
	assert.InDelta(t, 0.8, s.Values[1], 1e-12)
}

func TestSeries_MomentumTransform(t *testing.T) {
	srv := fredStub(t, map[string]string{
		"SP500": `{"observations": [
			{"date": "2020-01-31", "value": "100"},
			{"date": "2020-02-29", "value": "110"},
			{"date": "2020-03-31", "value": "121"}
		]}`,
	})
	defer srv.Close()

	s, err := testClient(srv.URL).Series(context.Background(), "Equity_mom1",
		SeriesSpec{SeriesID: "SP500", Transform: "mom1"})
	require.NoError(t, err)

	require.Equal(t, 2, s.Len())
	assert.InDelta(t, 0.10, s.Values[0], 1e-12)
	assert.InDelta(t, 0.10, s.Values[1], 1e-12)
}

func TestSeries_TransformAppliesToSpread(t *testing.T) {
	payload := func(values ...float64) string {
		out := `{"observations": [`
		for i, v := range values {
			if i > 0 {
				out += ","
			}
			d := time.Date(2020, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
			out += fmt.Sprintf(`{"date": %q, "value": "%g"}`, d.Format("2006-01-02"), v)
		}
		return out + "]}"
	}
	srv := fredStub(t, map[string]string{
		"DGS10": payload(3.0, 3.1, 3.2, 3.3, 3.4),
		"DGS2":  payload(1.0, 1.0, 1.0, 1.0, 1.0),
	})
	defer srv.Close()

	// The transform runs on the spread, not on either leg.
	s, err := testClient(srv.URL).Series(context.Background(), "TERM_chg3m",
		SeriesSpec{SeriesID: "DGS10-DGS2", Transform: "diff3m"})
	require.NoError(t, err)

	require.Equal(t, 2, s.Len())
	assert.InDelta(t, 0.3, s.Values[0], 1e-12)
	assert.InDelta(t, 0.3, s.Values[1], 1e-12)

	// An unknown transform on a spread series errors instead of being
	// silently dropped.
	_, err = testClient(srv.URL).Series(context.Background(), "TERM_bad",
		SeriesSpec{SeriesID: "DGS10-DGS2", Transform: "log"})
	assert.Error(t, err)
}

func TestSeries_UnknownTransform(t *testing.T) {
	srv := fredStub(t, map[string]string{
		"UNRATE": unratePayload,
	})
	defer srv.Close()

	_, err := testClient(srv.URL).Series(context.Background(), "UNRATE_x",
		SeriesSpec{SeriesID: "UNRATE", Transform: "log"})
	assert.Error(t, err)
}

func TestFetchAll_WritesCSVs(t *testing.T) {
	srv := fredStub(t, map[string]string{
		"UNRATE": unratePayload,
		"SP500":  `{"observations": [{"date": "2020-01-31", "value": "3225.52"}, {"date": "2020-02-29", "value": "2954.22"}]}`,
	})
	defer srv.Close()

	cfg := Config{
		BaseURL:      srv.URL,
		RateLimitRPS: 1000,
		Burst:        100,
		Series: map[string]SeriesSpec{
			"UNRATE_lvl": {SeriesID: "UNRATE"},
		},
		Prices: map[string]SeriesSpec{
			"SP500": {SeriesID: "SP500"},
		},
	}
	outDir := t.TempDir()
	require.NoError(t, NewClient("test-key", cfg).FetchAll(context.Background(), cfg, outDir))

	ind, err := data.LoadSeriesCSV(filepath.Join(outDir, "UNRATE_lvl.csv"), "UNRATE_lvl", "")
	require.NoError(t, err)
	assert.Equal(t, 2, ind.Len())

	raw, err := os.ReadFile(filepath.Join(outDir, "SP500.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "date,AdjClose\n")
	assert.Contains(t, string(raw), "2020-02-29,2954.22\n")
}
