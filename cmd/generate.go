package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaiErikNiermann/roomnl-stats/internal/artifact"
	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
	"github.com/KaiErikNiermann/roomnl-stats/internal/segment"
	"github.com/KaiErikNiermann/roomnl-stats/internal/stats"
)

var (
	generateOutDir  string
	generateNoFetch bool
	generateProfile string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the full pipeline and write the frontend JSON artifacts",
	Long: `Generate runs the whole pipeline: scrape fresh listings into the local
database, fit one model per segment (global, per city, per city and room
type), aggregate the per-segment statistics, and write the three JSON
artifacts the static frontend reads:

  recently_rented.json  — the full listings table
  predictions.json      — daily predictions with confidence intervals
  stats.json            — aggregated stats by city and room type

A failed scrape degrades to a warning; generation continues on the data
already accumulated. Segments with too few listings are skipped.`,
	Example: `  roomnl-stats generate
  roomnl-stats generate --out-dir site/static/data --horizon 365
  roomnl-stats generate --no-fetch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		st, err := deps.RequireStore()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		// Step 1: scrape. Failure is non-fatal; the store may already hold
		// enough history.
		if !generateNoFetch {
			fmt.Fprintf(out, "[1/4] Scraping %s... ", deps.Config.BaseURL)
			fetched, warnings, err := deps.Client.FetchListings(cmd.Context(), deps.Language())
			if err != nil {
				fmt.Fprintf(out, "⚠ failed (%v), using existing data\n", err)
			} else {
				added, err := st.PutListings(fetched)
				if err != nil {
					return fmt.Errorf("storing listings: %w", err)
				}
				fmt.Fprintf(out, "✓ %d rows fetched (%d new)\n", len(fetched), added)
				for _, w := range warnings {
					fmt.Fprintf(out, "  ⚠  %s\n", w)
				}
			}
		}

		// Step 2: load.
		fmt.Fprintf(out, "[2/4] Loading data... ")
		listings, err := loadListings(st, "", "")
		if err != nil {
			return err
		}
		first, last := dateRange(listings)
		fmt.Fprintf(out, "✓ %d rows (%s → %s)\n", len(listings),
			first.Format("2006-01-02"), last.Format("2006-01-02"))

		profile, err := loadProfile(deps, generateProfile, listings)
		if err != nil {
			return err
		}

		// Step 3: fit every segment.
		fmt.Fprintf(out, "[3/4] Fitting models (global + per-city + per-combo)...\n")
		results := segment.Run(cmd.Context(), listings, segment.Options{
			HorizonDays: deps.Config.HorizonDays,
			Profile:     profile,
			Workers:     deps.Config.Concurrency,
		})

		var preds []model.PredictionRow
		fitted, skipped := 0, 0
		for _, r := range results {
			if r.Skipped {
				skipped++
				if deps.Config.Verbose {
					fmt.Fprintf(out, "  ⚠  %s: %s\n", r.Key, r.Reason)
				}
				continue
			}
			fitted++
			preds = append(preds, r.Predictions...)
		}
		fmt.Fprintf(out, "  ✓ %d models, %d prediction rows (%d segments skipped)\n",
			fitted, len(preds), skipped)

		// Step 4: write artifacts.
		fmt.Fprintf(out, "[4/4] Writing JSON files... ")
		agg := stats.Aggregate(listings)
		if err := artifact.WriteAll(generateOutDir, listings, preds, agg); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓\n\n")

		printSimpleTable(out, []string{"FILE", "ROWS"}, func(add func(...string)) {
			add(artifact.ListingsFile, fmt.Sprintf("%d", len(listings)))
			add(artifact.PredictionsFile, fmt.Sprintf("%d", len(preds)))
			add(artifact.StatsFile, fmt.Sprintf("%d", len(agg)))
		})
		return nil
	},
}

// dateRange returns the earliest and latest contract date.
func dateRange(listings []model.Listing) (time.Time, time.Time) {
	first, last := listings[0].ContractDate, listings[0].ContractDate
	for _, l := range listings[1:] {
		if l.ContractDate.Before(first) {
			first = l.ContractDate
		}
		if l.ContractDate.After(last) {
			last = l.ContractDate
		}
	}
	return first, last
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&generateOutDir, "out-dir", "site/static/data",
		"directory for the JSON artifacts")
	generateCmd.Flags().BoolVar(&generateNoFetch, "no-fetch", false,
		"skip scraping; generate from the stored listings only")
	generateCmd.Flags().StringVar(&generateProfile, "profile", "",
		"seasonal profile: empty=none, auto=build from listings, or a saved profile name")
}
