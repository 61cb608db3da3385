// Package cmd implements the roomnl-stats CLI command tree.
// This file defines the root command and registers all global persistent flags.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaiErikNiermann/roomnl-stats/internal/app"
	"github.com/KaiErikNiermann/roomnl-stats/internal/config"
)

// globalFlags holds the parsed values of all persistent (global) flags.
// Commands read from this struct via the deps they receive.
var globalFlags struct {
	Format      string
	Out         string
	DB          string
	BaseURL     string
	Timeout     string
	Concurrency int
	Rate        float64
	Horizon     int
	Language    string
	Quiet       bool
	Verbose     bool
	Debug       bool
}

// rootCmd is the base command. Running `roomnl-stats` with no subcommand
// prints help.
var rootCmd = &cobra.Command{
	Use:   "roomnl-stats",
	Short: "roomnl-stats — ROOM.nl waiting-time statistics and forecasts",
	Long: `roomnl-stats scrapes the recently-rented listings from roommatch.nl,
accumulates them in a local database, and fits Gaussian-process models with
academic-calendar features to forecast how much registration time a room
will cost.

Quick start:
  roomnl-stats fetch --store       # scrape listings into the local db
  roomnl-stats stats               # waiting-time stats per city and room type
  roomnl-stats predict --city Delft  # daily forecast with confidence bands
  roomnl-stats generate            # write the frontend JSON artifacts`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// buildDeps resolves config and constructs the dependency container.
// Called at the start of each command's RunE.
func buildDeps() (*app.Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	// Apply CLI flag overrides
	cfg.Quiet = globalFlags.Quiet
	cfg.Verbose = globalFlags.Verbose
	cfg.Debug = globalFlags.Debug

	if globalFlags.Format != "" {
		cfg.Format = globalFlags.Format
	}
	if globalFlags.DB != "" {
		cfg.DBPath = globalFlags.DB
	}
	if globalFlags.BaseURL != "" {
		cfg.BaseURL = globalFlags.BaseURL
	}
	if globalFlags.Timeout != "" {
		if d, err2 := time.ParseDuration(globalFlags.Timeout); err2 == nil {
			cfg.Timeout = d
		}
	}
	if globalFlags.Concurrency > 0 {
		cfg.Concurrency = globalFlags.Concurrency
	}
	if globalFlags.Rate > 0 {
		cfg.Rate = globalFlags.Rate
	}
	if globalFlags.Horizon > 0 {
		cfg.HorizonDays = globalFlags.Horizon
	}
	if globalFlags.Language != "" {
		cfg.Language = globalFlags.Language
	}

	return app.New(cfg), nil
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&globalFlags.Format, "format", "",
		"output format: table|json|jsonl|csv|tsv|md (default: table)")
	pf.StringVar(&globalFlags.Out, "out", "",
		"write output to file instead of stdout")
	pf.StringVar(&globalFlags.DB, "db", "",
		"path to the local database (overrides env ROOMNL_DB_PATH and config.json)")
	pf.StringVar(&globalFlags.BaseURL, "base-url", "",
		"recently-rented page URL (overrides env ROOMNL_BASE_URL and config.json)")
	pf.StringVar(&globalFlags.Timeout, "timeout", "",
		"HTTP request timeout (e.g. 30s, 2m)")
	pf.IntVar(&globalFlags.Concurrency, "concurrency", 0,
		"max parallel model fits for segmented runs (default: 4)")
	pf.Float64Var(&globalFlags.Rate, "rate", 0,
		"max page requests per second (default: 1.0)")
	pf.IntVar(&globalFlags.Horizon, "horizon", 0,
		"forecast horizon in days past today (default: 730)")
	pf.StringVar(&globalFlags.Language, "language", "",
		"page language: english|dutch (default: english)")
	pf.BoolVar(&globalFlags.Quiet, "quiet", false,
		"suppress all non-error output")
	pf.BoolVar(&globalFlags.Verbose, "verbose", false,
		"show timing stats after output")
	pf.BoolVar(&globalFlags.Debug, "debug", false,
		"log HTTP requests and responses")
}
