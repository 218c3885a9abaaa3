package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cyclelab/macrorun/internal/backtest"
	"github.com/cyclelab/macrorun/internal/config"
	"github.com/cyclelab/macrorun/internal/portfolio"
	"github.com/cyclelab/macrorun/internal/report"
	"github.com/cyclelab/macrorun/internal/report/perf"
)

// runBacktest executes the full pipeline: load, align, score, classify,
// rebalance, report.
func runBacktest(cmd *cobra.Command, args []string) error {
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

	started := time.Now()
	log.Info().
		Str("config", configPath).
		Str("data", dataDir).
		Str("output", absOutputDir).
		Msg("starting backtest")

	indicators, err := loadIndicatorSeries(cfg, dataDir)
	if err != nil {
		return err
	}
	_, signal, err := buildSignal(cfg, indicators, startFlag, endFlag)
	if err != nil {
		return err
	}

	prices, err := loadPriceSeries(cfg, dataDir)
	if err != nil {
		return err
	}
	returns, err := backtest.ReturnsFromPrices(prices)
	if err != nil {
		return err
	}

	table, err := portfolio.NewTable(cfg.Weights, cfg.Universe)
	if err != nil {
		return err
	}

	engine := backtest.NewEngine(table, cfg.Leverage)
	result, err := engine.Run(signal, returns)
	if err != nil {
		return err
	}

	dates, equity := result.EquityCurve()
	metrics, err := perf.Calculate(dates, equity, perf.Config{RiskFreeRate: cfg.RiskFreeRate})
	if err != nil {
		return err
	}

	writer := report.NewWriter(absOutputDir, annotatedPeriods(cfg)...)
	labels := make([]string, len(result.Months))
	for i, m := range result.Months {
		labels[i] = m.Label
	}
	if err := writer.WriteRegimeTimeline(dates, labels); err != nil {
		return fmt.Errorf("write regime timeline: %w", err)
	}
	if err := writer.WriteEquityCurve(dates, equity); err != nil {
		return fmt.Errorf("write equity curve: %w", err)
	}
	if err := writer.WritePerfSummary(metrics); err != nil {
		return fmt.Errorf("write perf summary: %w", err)
	}
	if err := writer.WriteSummaryJSON(result, metrics); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if err := writer.WriteReport(result, metrics); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := writer.WriteEquityPlot(dates, equity); err != nil {
		return fmt.Errorf("write equity plot: %w", err)
	}

	log.Info().
		Str("run_id", result.RunID).
		Dur("elapsed", time.Since(started)).
		Msg("backtest complete")

	fmt.Printf("Backtest %s: %s to %s (%d months)\n",
		result.RunID, result.Start.Format("2006-01"), result.End.Format("2006-01"), len(result.Months))
	fmt.Printf("  CAGR:          %7.2f%%\n", metrics.CAGR*100)
	fmt.Printf("  Ann. Vol:      %7.2f%%\n", metrics.AnnVol*100)
	fmt.Printf("  Sharpe:        %7.2f\n", metrics.Sharpe)
	fmt.Printf("  Max Drawdown:  %7.2f%%\n", metrics.MaxDrawdown*100)
	fmt.Printf("  Regimes:       %v\n", result.RegimeCounts())
	fmt.Printf("  Artifacts:     %s\n", absOutputDir)

	return nil
}
