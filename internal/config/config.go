// Package config loads and validates the strategy configuration file.
package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cyclelab/macrorun/internal/fetch"
)

// ConfigError reports a malformed or incomplete configuration. It is fatal:
// the run aborts rather than guessing at strategy parameters.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Window is a normalization window: a month count, or the full sample.
// In YAML it is either an integer or the string "full".
type Window struct {
	Full   bool
	Months int
}

// UnmarshalYAML accepts `36` or `"full"`.
func (w *Window) UnmarshalYAML(node *yaml.Node) error {
	var months int
	if err := node.Decode(&months); err == nil {
		*w = Window{Months: months}
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("window must be an integer or \"full\"")
	}
	if strings.ToLower(strings.TrimSpace(s)) != "full" {
		return fmt.Errorf("window must be an integer or \"full\", got %q", s)
	}
	*w = Window{Full: true}
	return nil
}

// Month is a calendar month in YAML, written YYYY-MM.
type Month struct {
	time.Time
}

func (m *Month) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("month must be a YYYY-MM string")
	}
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("month must be YYYY-MM, got %q", s)
	}
	m.Time = t.UTC()
	return nil
}

// AnnotatedPeriod is a labeled calendar span shaded behind the chart
// artifacts (recessions, policy episodes, review notes).
type AnnotatedPeriod struct {
	Label string `yaml:"label"`
	Start Month  `yaml:"start"`
	End   Month  `yaml:"end"`
}

// ScorerConfig controls composite score normalization.
type ScorerConfig struct {
	Window Window `yaml:"window"`
}

// ClassifierConfig controls the regime split.
type ClassifierConfig struct {
	MedianWindow int    `yaml:"median_window"`
	TieBreak     string `yaml:"tie_break"`
}

// LeverageConfig controls the volatility-targeting overlay.
type LeverageConfig struct {
	Enabled        bool    `yaml:"enabled"`
	TargetVol      float64 `yaml:"target_vol"`
	LookbackMonths int     `yaml:"lookback_months"`
	MaxLeverage    float64 `yaml:"max_leverage"`
	MinLeverage    float64 `yaml:"min_leverage"`
}

// Config is the full strategy configuration.
type Config struct {
	Universe    []string           `yaml:"universe"`
	PriceColumn string             `yaml:"price_column"`
	Indicators  map[string]float64 `yaml:"indicators"`

	Scorer     ScorerConfig                  `yaml:"scorer"`
	Classifier ClassifierConfig              `yaml:"classifier"`
	Weights    map[string]map[string]float64 `yaml:"weights"`
	Leverage   LeverageConfig                `yaml:"leverage"`

	RiskFreeRate       float64 `yaml:"risk_free_rate"`
	RebalanceFrequency string  `yaml:"rebalance_frequency"`

	AnnotatedPeriods []AnnotatedPeriod `yaml:"annotated_periods"`

	Fetch fetch.Config `yaml:"fetch"`
}

// requiredRegimes are the labels the weight table must cover.
var requiredRegimes = []string{"recovery", "expansion", "slowdown", "recession"}

const weightSumTolerance = 1e-6

// Load reads, parses, and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg := Default()
	if doc.Kind != 0 {
		clearProvidedMaps(cfg, &doc)
		if err := doc.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// clearProvidedMaps drops default map sections the document declares itself.
// yaml.v3 merges into pre-populated maps, so without this a config listing
// only its own indicators would silently run the union with the defaults.
func clearProvidedMaps(cfg *Config, doc *yaml.Node) {
	root := doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		switch root.Content[i].Value {
		case "indicators":
			cfg.Indicators = nil
		case "weights":
			cfg.Weights = nil
		case "fetch":
			sub := root.Content[i+1]
			if sub.Kind != yaml.MappingNode {
				continue
			}
			for j := 0; j+1 < len(sub.Content); j += 2 {
				switch sub.Content[j].Value {
				case "series":
					cfg.Fetch.Series = nil
				case "prices":
					cfg.Fetch.Prices = nil
				}
			}
		}
	}
}

// Default returns the baseline configuration the YAML file overrides.
func Default() *Config {
	return &Config{
		Universe:    []string{"SP500", "IEF", "GLD"},
		PriceColumn: "AdjClose",
		Indicators: map[string]float64{
			"PMI":          1.0,
			"INDPRO_yoy":   1.0,
			"UNRATE_chg3m": -1.0,
			"TERM_10y_2y":  1.0,
			"CreditSpread": -1.0,
			"Equity_mom6":  1.0,
		},
		Scorer:     ScorerConfig{Window: Window{Months: 36}},
		Classifier: ClassifierConfig{MedianWindow: 0, TieBreak: "falling"},
		Weights: map[string]map[string]float64{
			"expansion": {"SP500": 0.8, "IEF": 0.1, "GLD": 0.1},
			"slowdown":  {"SP500": 0.4, "IEF": 0.4, "GLD": 0.2},
			"recession": {"SP500": 0.1, "IEF": 0.7, "GLD": 0.2},
			"recovery":  {"SP500": 0.6, "IEF": 0.2, "GLD": 0.2},
		},
		Leverage: LeverageConfig{
			Enabled:        true,
			TargetVol:      0.10,
			LookbackMonths: 6,
			MaxLeverage:    1.5,
		},
		RiskFreeRate:       0.0,
		RebalanceFrequency: "monthly",
		Fetch:              fetch.DefaultConfig(),
	}
}

// Validate checks structural completeness. All failures are ConfigError.
func (c *Config) Validate() error {
	if len(c.Universe) == 0 {
		return &ConfigError{Field: "universe", Reason: "must list at least one asset"}
	}
	if len(c.Indicators) == 0 {
		return &ConfigError{Field: "indicators", Reason: "must map at least one indicator to a weight"}
	}
	if !c.Scorer.Window.Full && c.Scorer.Window.Months < 2 {
		return &ConfigError{Field: "scorer.window", Reason: "must be at least 2 months or \"full\""}
	}
	if c.Classifier.MedianWindow < 0 {
		return &ConfigError{Field: "classifier.median_window", Reason: "must not be negative"}
	}
	switch c.Classifier.TieBreak {
	case "falling", "rising":
	default:
		return &ConfigError{
			Field:  "classifier.tie_break",
			Reason: fmt.Sprintf("must be falling or rising, got %q", c.Classifier.TieBreak),
		}
	}
	if c.RebalanceFrequency != "monthly" {
		return &ConfigError{
			Field:  "rebalance_frequency",
			Reason: fmt.Sprintf("only monthly rebalancing is supported, got %q", c.RebalanceFrequency),
		}
	}

	inUniverse := make(map[string]bool, len(c.Universe))
	for _, ticker := range c.Universe {
		inUniverse[ticker] = true
	}

	for _, label := range requiredRegimes {
		vec, ok := c.Weights[label]
		if !ok {
			return &ConfigError{Field: "weights", Reason: fmt.Sprintf("missing entry for regime %s", label)}
		}
		sum := 0.0
		for ticker, w := range vec {
			if !inUniverse[ticker] {
				return &ConfigError{
					Field:  "weights." + label,
					Reason: fmt.Sprintf("ticker %s not in universe", ticker),
				}
			}
			if w < 0 {
				return &ConfigError{
					Field:  "weights." + label,
					Reason: fmt.Sprintf("negative weight %.4f for %s", w, ticker),
				}
			}
			sum += w
		}
		if math.Abs(sum-1.0) > weightSumTolerance {
			return &ConfigError{
				Field:  "weights." + label,
				Reason: fmt.Sprintf("weights sum to %.6f, expected 1.0", sum),
			}
		}
	}
	for label := range c.Weights {
		if _, err := knownLabel(label); err != nil {
			return &ConfigError{Field: "weights", Reason: err.Error()}
		}
	}

	for i, p := range c.AnnotatedPeriods {
		if p.Label == "" {
			return &ConfigError{
				Field:  fmt.Sprintf("annotated_periods[%d].label", i),
				Reason: "must not be empty",
			}
		}
		if p.Start.IsZero() || p.End.IsZero() {
			return &ConfigError{
				Field:  fmt.Sprintf("annotated_periods[%d]", i),
				Reason: "start and end months are required",
			}
		}
		if p.End.Before(p.Start.Time) {
			return &ConfigError{
				Field:  fmt.Sprintf("annotated_periods[%d]", i),
				Reason: fmt.Sprintf("end %s before start %s", p.End.Format("2006-01"), p.Start.Format("2006-01")),
			}
		}
	}

	if c.Leverage.Enabled {
		if c.Leverage.TargetVol <= 0 {
			return &ConfigError{Field: "leverage.target_vol", Reason: "must be positive"}
		}
		if c.Leverage.MaxLeverage <= 0 {
			return &ConfigError{Field: "leverage.max_leverage", Reason: "must be positive"}
		}
		if c.Leverage.MinLeverage < 0 || c.Leverage.MinLeverage > c.Leverage.MaxLeverage {
			return &ConfigError{Field: "leverage.min_leverage", Reason: "must be within [0, max_leverage]"}
		}
		if c.Leverage.LookbackMonths < 2 {
			return &ConfigError{Field: "leverage.lookback_months", Reason: "must be at least 2"}
		}
	}

	return nil
}

func knownLabel(label string) (string, error) {
	for _, l := range requiredRegimes {
		if l == label {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown regime label %q", label)
}
