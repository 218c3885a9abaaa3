package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/cyclelab/macrorun/internal/data"
	iox "github.com/cyclelab/macrorun/internal/io"
)

// Client is a rate-limited, breaker-protected FRED API client.
type Client struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewClient builds a client from the fetch configuration. The breaker trips
// after five consecutive failures so a dead or throttling API fails fast
// instead of burning the whole request budget.
func NewClient(apiKey string, cfg Config) *Client {
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 2.0
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.stlouisfed.org/fred"
	}

	settings := gobreaker.Settings{
		Name:    "fred",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}

	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// Observations fetches the raw observation list for one FRED series. Missing
// values (reported as ".") are skipped.
func (c *Client) Observations(ctx context.Context, seriesID string) ([]data.Observation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := c.breaker.Execute(func() (interface{}, error) {
		return c.get(ctx, seriesID)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", seriesID, err)
	}

	var resp observationsResponse
	if err := json.Unmarshal(body.([]byte), &resp); err != nil {
		return nil, fmt.Errorf("fetch %s: decode: %w", seriesID, err)
	}

	var obs []data.Observation
	for _, o := range resp.Observations {
		if o.Value == "." || o.Value == "" {
			continue
		}
		d, err := time.Parse("2006-01-02", o.Date)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: bad date %q: %w", seriesID, o.Date, err)
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: bad value %q: %w", seriesID, o.Value, err)
		}
		obs = append(obs, data.Observation{Date: d.UTC(), Value: v})
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("fetch %s: no observations", seriesID)
	}
	return obs, nil
}

func (c *Client) get(ctx context.Context, seriesID string) ([]byte, error) {
	q := url.Values{}
	q.Set("series_id", seriesID)
	q.Set("api_key", c.apiKey)
	q.Set("file_type", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/series/observations?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Series fetches one configured series, resolving spread legs first and then
// applying the configured transform, as a month-end series named name.
func (c *Client) Series(ctx context.Context, name string, spec SeriesSpec) (data.MonthlySeries, error) {
	var base data.MonthlySeries
	if legA, legB, ok := strings.Cut(spec.SeriesID, "-"); ok {
		a, err := c.monthEndSeries(ctx, legA)
		if err != nil {
			return data.MonthlySeries{}, err
		}
		b, err := c.monthEndSeries(ctx, legB)
		if err != nil {
			return data.MonthlySeries{}, err
		}
		base, err = Spread(a, b, name)
		if err != nil {
			return data.MonthlySeries{}, err
		}
	} else {
		var err error
		base, err = c.monthEndSeries(ctx, spec.SeriesID)
		if err != nil {
			return data.MonthlySeries{}, err
		}
	}
	return applyTransform(base, name, spec.Transform)
}

func applyTransform(base data.MonthlySeries, name, transform string) (data.MonthlySeries, error) {
	switch transform {
	case "", "none", "spread": // spread is implied by a two-leg series_id
		base.Name = name
		return base, nil
	case "yoy":
		return YoY(base, name)
	case "diff3m":
		return DiffMonths(base, name, 3)
	}
	if rest, ok := strings.CutPrefix(transform, "mom"); ok {
		k, err := strconv.Atoi(rest)
		if err == nil && k > 0 {
			return Momentum(base, name, k)
		}
	}
	return data.MonthlySeries{}, fmt.Errorf("series %s: unknown transform %q", name, transform)
}

func (c *Client) monthEndSeries(ctx context.Context, seriesID string) (data.MonthlySeries, error) {
	obs, err := c.Observations(ctx, seriesID)
	if err != nil {
		return data.MonthlySeries{}, err
	}
	return data.NewMonthlySeries(seriesID, obs)
}

// FetchAll pulls every configured indicator and price series and writes the
// two-column CSVs into outDir.
func (c *Client) FetchAll(ctx context.Context, cfg Config, outDir string) error {
	for name, spec := range cfg.Series {
		s, err := c.Series(ctx, name, spec)
		if err != nil {
			return err
		}
		path := filepath.Join(outDir, name+".csv")
		if err := iox.WriteBytesAtomic(path, data.WriteSeriesCSV(s, name)); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Info().Str("series", name).Int("months", s.Len()).Str("path", path).Msg("indicator fetched")
	}

	for ticker, spec := range cfg.Prices {
		s, err := c.Series(ctx, ticker, spec)
		if err != nil {
			return err
		}
		path := filepath.Join(outDir, ticker+".csv")
		if err := iox.WriteBytesAtomic(path, data.WriteSeriesCSV(s, "AdjClose")); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Info().Str("ticker", ticker).Int("months", s.Len()).Str("path", path).Msg("prices fetched")
	}

	return nil
}
