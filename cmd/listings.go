package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
	"github.com/KaiErikNiermann/roomnl-stats/internal/render"
	"github.com/KaiErikNiermann/roomnl-stats/internal/transform"
)

var (
	listingsCity string
	listingsType string
)

var listingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "Show accumulated listings from the local database",
	Example: `  roomnl-stats listings
  roomnl-stats listings --city Delft --format csv
  roomnl-stats listings --city Amsterdam --type "One-room apartment"`,
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
		start := time.Now()
		listings, err := loadListings(st, listingsCity, listingsType)
		if err != nil {
			return err
		}

		result := buildResult("listings", model.KindListings, listings, len(listings))
		result.Stats.DurationMs = time.Since(start).Milliseconds()
		format := resolveFormat(deps.Config.Format)
		if err := render.RenderTo(globalFlags.Out, result, format); err != nil {
			return err
		}
		render.PrintFooter(cmd.OutOrStdout(), result, deps.Config.Verbose)
		return nil
	},
}

// ─── listings series ──────────────────────────────────────────────────────────

var listingsSeriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Project listings onto the weekly registration-time series",
	Long: `Series converts the stored listings into the weekly-mean registration
time series the models train on: one point per ISO week (Monday), holding
the mean waiting days of that week's contracts.`,
	Example: `  roomnl-stats listings series
  roomnl-stats listings series --city Delft --format jsonl | roomnl-stats transform roll --window 4`,
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
		start := time.Now()
		listings, err := loadListings(st, listingsCity, listingsType)
		if err != nil {
			return err
		}

		weekly := transform.WeeklyMean(model.ListingObservations(listings))

		result := buildResult("listings series", model.KindSeriesData, weekly, len(weekly))
		result.Stats.DurationMs = time.Since(start).Milliseconds()
		format := resolveFormat(deps.Config.Format)
		if err := render.RenderTo(globalFlags.Out, result, format); err != nil {
			return err
		}
		render.PrintFooter(cmd.OutOrStdout(), result, deps.Config.Verbose)
		return nil
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(listingsCmd)
	listingsCmd.AddCommand(listingsSeriesCmd)

	listingsCmd.PersistentFlags().StringVar(&listingsCity, "city", "", "filter by city")
	listingsCmd.PersistentFlags().StringVar(&listingsType, "type", "", "filter by room type")
}
