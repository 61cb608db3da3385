package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
	"github.com/KaiErikNiermann/roomnl-stats/internal/render"
)

// ─── fetch ────────────────────────────────────────────────────────────────────

var fetchStore bool

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Scrape the recently-rented listings page",
	Long: `Fetch downloads the recently-rented page, parses the listings table,
and prints the rows. With --store the rows are persisted to the local
database, deduplicated against everything already accumulated there.

The page only shows a recent window, so run fetch --store regularly to
build up enough history for the forecasting commands.`,
	Example: `  roomnl-stats fetch
  roomnl-stats fetch --store
  roomnl-stats fetch --language dutch --format jsonl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		start := time.Now()
		format := resolveFormat(deps.Config.Format)

		listings, warnings, err := deps.Client.FetchListings(cmd.Context(), deps.Language())
		if err != nil {
			return err
		}

		if fetchStore {
			st, err := deps.RequireStore()
			if err != nil {
				return err
			}
			added, err := st.PutListings(listings)
			if err != nil {
				return fmt.Errorf("storing listings: %w", err)
			}
			if !deps.Config.Quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Stored %d listings (%d new) to %s\n",
					len(listings), added, deps.Config.DBPath)
				for _, w := range warnings {
					fmt.Fprintf(cmd.OutOrStdout(), "  ⚠  %s\n", w)
				}
			}
			return nil
		}

		result := buildResult("fetch", model.KindListings, listings, len(listings))
		result.Warnings = warnings
		result.Stats.DurationMs = time.Since(start).Milliseconds()
		if err := render.RenderTo(globalFlags.Out, result, format); err != nil {
			return err
		}
		render.PrintFooter(cmd.OutOrStdout(), result, deps.Config.Verbose)
		return nil
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().BoolVar(&fetchStore, "store", false, "persist listings to the local database")
}
