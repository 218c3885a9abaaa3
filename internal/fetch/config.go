// Package fetch pulls macro indicator and asset price series from the FRED
// API and writes the two-column CSVs the backtester consumes.
package fetch

// SeriesSpec describes one series to pull. A series_id of the form "A-B"
// fetches both legs and subtracts them (term spreads). Transform is applied
// after month-end downsampling (and after the spread, for two-leg series):
// none, yoy (12-month percent change), diff3m (3-month difference), or
// mom<k> (k-month percent change, e.g. mom6).
type SeriesSpec struct {
	SeriesID  string `yaml:"series_id"`
	Transform string `yaml:"transform"`
}

// Config selects the series to fetch and the request budget.
type Config struct {
	BaseURL      string                `yaml:"base_url"`
	Series       map[string]SeriesSpec `yaml:"series"`
	Prices       map[string]SeriesSpec `yaml:"prices"`
	RateLimitRPS float64               `yaml:"rate_limit_rps"`
	Burst        int                   `yaml:"burst"`
}

// DefaultConfig mirrors the indicator set the default strategy scores.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://api.stlouisfed.org/fred",
		Series: map[string]SeriesSpec{
			"PMI":          {SeriesID: "MANEMP"},
			"INDPRO_yoy":   {SeriesID: "INDPRO", Transform: "yoy"},
			"UNRATE_chg3m": {SeriesID: "UNRATE", Transform: "diff3m"},
			"TERM_10y_2y":  {SeriesID: "DGS10-DGS2"},
			"CreditSpread": {SeriesID: "BAMLH0A0HYM2"},
			"Equity_mom6":  {SeriesID: "SP500", Transform: "mom6"},
		},
		Prices: map[string]SeriesSpec{
			"SP500": {SeriesID: "SP500"},
		},
		RateLimitRPS: 2.0,
		Burst:        4,
	}
}
