package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "MacroRun"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	// Pretty console output for humans, JSON when piped.
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     "macrorun",
		Short:   "Macro-regime asset allocation backtester",
		Version: version,
		Long: `MacroRun backtests a monthly macro-regime rotation strategy.

Monthly macro indicators are aligned with a one-month publication lag,
standardized and combined into a composite business cycle score, classified
into four regimes (recovery, expansion, slowdown, recession), and mapped to
target portfolio weights with a volatility-targeting leverage overlay.`,
		PersistentPreRunE: setupLogging,
	}

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace|debug|info|warn|error)")

	backtestCmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run the full regime backtest",
		Long:  "Load indicator and price CSVs, classify regimes, rebalance monthly, and write performance artifacts",
		RunE:  runBacktest,
	}
	backtestCmd.Flags().String("config", "config.yaml", "Strategy configuration file")
	backtestCmd.Flags().String("data", "data/sample", "Directory of indicator and price CSVs")
	backtestCmd.Flags().String("output", "out", "Artifact output directory")
	backtestCmd.Flags().String("start", "", "Backtest start month (YYYY-MM, default: data-driven)")
	backtestCmd.Flags().String("end", "", "Backtest end month (YYYY-MM, default: data-driven)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute the composite score and regime timeline without a portfolio",
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().String("config", "config.yaml", "Strategy configuration file")
	analyzeCmd.Flags().String("data", "data/sample", "Directory of indicator CSVs")
	analyzeCmd.Flags().String("output", "out", "Artifact output directory")
	analyzeCmd.Flags().String("start", "", "Start month (YYYY-MM, default: data-driven)")
	analyzeCmd.Flags().String("end", "", "End month (YYYY-MM, default: data-driven)")

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch configured FRED series into indicator and price CSVs",
		RunE:  runFetch,
	}
	fetchCmd.Flags().String("config", "config.yaml", "Strategy configuration file")
	fetchCmd.Flags().String("output", "data/sample", "CSV output directory")
	fetchCmd.Flags().String("api-key", "", "FRED API key (default: FRED_API_KEY env)")

	rootCmd.AddCommand(backtestCmd, analyzeCmd, fetchCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func setupLogging(cmd *cobra.Command, args []string) error {
	levelStr, _ := cmd.Flags().GetString("log-level")
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", levelStr, err)
	}
	zerolog.SetGlobalLevel(level)
	return nil
}
