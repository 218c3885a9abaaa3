package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cyclelab/macrorun/internal/config"
	"github.com/cyclelab/macrorun/internal/fetch"
)

// runFetch pulls the configured FRED series and writes the CSVs the
// backtester reads.
func runFetch(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	outputDir, _ := cmd.Flags().GetString("output")
	apiKey, _ := cmd.Flags().GetString("api-key")

	if apiKey == "" {
		apiKey = os.Getenv("FRED_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("FRED API key required: set --api-key or FRED_API_KEY")
	}

	absOutputDir, err := filepath.Abs(outputDir)
	if err != nil {
		return fmt.Errorf("resolve output directory: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log.Info().
		Int("indicators", len(cfg.Fetch.Series)).
		Int("prices", len(cfg.Fetch.Prices)).
		Str("output", absOutputDir).
		Msg("starting fetch")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	client := fetch.NewClient(apiKey, cfg.Fetch)
	if err := client.FetchAll(ctx, cfg.Fetch, absOutputDir); err != nil {
		return err
	}

	fmt.Printf("Fetched %d indicator and %d price series into %s\n",
		len(cfg.Fetch.Series), len(cfg.Fetch.Prices), absOutputDir)

	return nil
}
