package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/cyclelab/macrorun/internal/config"
	"github.com/cyclelab/macrorun/internal/data"
	"github.com/cyclelab/macrorun/internal/macro"
	"github.com/cyclelab/macrorun/internal/report"
)

// loadIndicatorSeries reads one CSV per configured indicator from dataDir.
// Names are sorted so panel column order (and every artifact derived from
// it) is stable across runs.
func loadIndicatorSeries(cfg *config.Config, dataDir string) ([]data.MonthlySeries, error) {
	names := make([]string, 0, len(cfg.Indicators))
	for name := range cfg.Indicators {
		names = append(names, name)
	}
	sort.Strings(names)

	series := make([]data.MonthlySeries, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dataDir, name+".csv")
		s, err := data.LoadSeriesCSV(path, name, "")
		if err != nil {
			return nil, fmt.Errorf("indicator %s: %w", name, err)
		}
		series = append(series, s)
	}
	return series, nil
}

// loadPriceSeries reads one price CSV per universe ticker.
func loadPriceSeries(cfg *config.Config, dataDir string) ([]data.MonthlySeries, error) {
	series := make([]data.MonthlySeries, 0, len(cfg.Universe))
	for _, ticker := range cfg.Universe {
		path := filepath.Join(dataDir, ticker+".csv")
		s, err := data.LoadSeriesCSV(path, ticker, cfg.PriceColumn)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", ticker, err)
		}
		series = append(series, s)
	}
	return series, nil
}

// buildSignal aligns the indicators and produces the composite score and the
// regime classification for the requested range.
func buildSignal(cfg *config.Config, indicators []data.MonthlySeries, startFlag, endFlag string) (data.MonthlySeries, []macro.Classification, error) {
	start, end, err := data.DefaultRange(indicators)
	if err != nil {
		return data.MonthlySeries{}, nil, err
	}
	if startFlag != "" {
		if start, err = parseMonth(startFlag); err != nil {
			return data.MonthlySeries{}, nil, fmt.Errorf("--start: %w", err)
		}
	}
	if endFlag != "" {
		if end, err = parseMonth(endFlag); err != nil {
			return data.MonthlySeries{}, nil, fmt.Errorf("--end: %w", err)
		}
	}

	panel, err := data.Align(indicators, start, end)
	if err != nil {
		return data.MonthlySeries{}, nil, err
	}

	scorerCfg := macro.ScorerConfig{Window: cfg.Scorer.Window.Months}
	if cfg.Scorer.Window.Full {
		scorerCfg.Window = 0
	}
	score, err := macro.CompositeScore(panel, cfg.Indicators, scorerCfg)
	if err != nil {
		return data.MonthlySeries{}, nil, err
	}

	signal := macro.Classify(score, macro.ClassifierConfig{
		MedianWindow: cfg.Classifier.MedianWindow,
		TieBreak:     macro.TieBreak(cfg.Classifier.TieBreak),
	})

	return score, signal, nil
}

// annotatedPeriods converts the configured chart annotations, spanning each
// period from the start of its first month to the end of its last.
func annotatedPeriods(cfg *config.Config) []report.Period {
	periods := make([]report.Period, 0, len(cfg.AnnotatedPeriods))
	for _, p := range cfg.AnnotatedPeriods {
		periods = append(periods, report.Period{
			Label: p.Label,
			Start: data.MonthStart(p.Start.Time),
			End:   data.MonthEnd(p.End.Time),
		})
	}
	return periods
}

func parseMonth(s string) (time.Time, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM, got %q", s)
	}
	return data.MonthEnd(t), nil
}
