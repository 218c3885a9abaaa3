package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cyclelab/macrorun/internal/config"
	"github.com/cyclelab/macrorun/internal/report"
)

// runAnalyze computes the composite score and regime timeline without
// touching prices or a portfolio.
func runAnalyze(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	dataDir, _ := cmd.Flags().GetString("data")
	outputDir, _ := cmd.Flags().GetString("output")
	startFlag, _ := cmd.Flags().GetString("start")
	endFlag, _ := cmd.Flags().GetString("end")

	absOutputDir, err := filepath.Abs(outputDir)
	if err != nil {
		return fmt.Errorf("resolve output directory: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	indicators, err := loadIndicatorSeries(cfg, dataDir)
	if err != nil {
		return err
	}
	score, signal, err := buildSignal(cfg, indicators, startFlag, endFlag)
	if err != nil {
		return err
	}

	writer := report.NewWriter(absOutputDir, annotatedPeriods(cfg)...)
	dates := make([]time.Time, len(signal))
	labels := make([]string, len(signal))
	for i, c := range signal {
		dates[i] = c.Date
		labels[i] = c.Regime.String()
	}
	if err := writer.WriteRegimeTimeline(dates, labels); err != nil {
		return fmt.Errorf("write regime timeline: %w", err)
	}
	if err := writer.WriteCompositeScore(score); err != nil {
		return fmt.Errorf("write composite score: %w", err)
	}
	if err := writer.WriteSnapshot(signal); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := writer.WriteScorePlot(score); err != nil {
		return fmt.Errorf("write score plot: %w", err)
	}

	last := signal[len(signal)-1]
	log.Info().
		Int("months", len(signal)).
		Str("latest_regime", last.Regime.String()).
		Msg("analysis complete")

	fmt.Printf("Analyzed %d months (%s to %s)\n",
		len(signal), dates[0].Format("2006-01"), last.Date.Format("2006-01"))
	fmt.Printf("  Latest regime: %s (score %.4f)\n", last.Regime, last.Score)
	fmt.Printf("  Artifacts:     %s\n", absOutputDir)

	return nil
}
