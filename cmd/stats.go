package cmd

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
	"github.com/KaiErikNiermann/roomnl-stats/internal/pipeline"
	"github.com/KaiErikNiermann/roomnl-stats/internal/render"
	"github.com/KaiErikNiermann/roomnl-stats/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Waiting-time statistics per city and room type",
	Long: `Stats groups the stored listings by (city, room type) and reports
count, median/mean/min/max waiting days, median reactions, and the share
of priority allocations per group.`,
	Example: `  roomnl-stats stats
  roomnl-stats stats --format json
  roomnl-stats stats --format csv --out stats.csv`,
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
		listings, err := loadListings(st, "", "")
		if err != nil {
			return err
		}

		agg := stats.Aggregate(listings)

		result := buildResult("stats", model.KindStats, agg, len(agg))
		result.Stats.DurationMs = time.Since(start).Milliseconds()
		format := resolveFormat(deps.Config.Format)
		if err := render.RenderTo(globalFlags.Out, result, format); err != nil {
			return err
		}
		render.PrintFooter(cmd.OutOrStdout(), result, deps.Config.Verbose)
		return nil
	},
}

// ─── stats summary ────────────────────────────────────────────────────────────

var statsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Descriptive statistics for a series (reads JSONL from stdin)",
	Example: `  roomnl-stats listings series --format jsonl | roomnl-stats stats summary
  roomnl-stats listings series --city Delft --format jsonl | roomnl-stats stats summary`,
	RunE: func(cmd *cobra.Command, args []string) error {
		obs, err := pipeline.ReadObservations(os.Stdin)
		if err != nil {
			return err
		}

		s := stats.Summarize(obs)

		format := resolveFormat("")
		if format == "json" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		}

		// Table output
		rows := [][]string{
			{"count", fmt.Sprintf("%d", s.Count)},
			{"missing", fmt.Sprintf("%d (%.1f%%)", s.Missing, s.MissingPct)},
			{"mean", fmtStat(s.Mean)},
			{"std", fmtStat(s.Std)},
			{"min", fmtStat(s.Min)},
			{"p25", fmtStat(s.P25)},
			{"median", fmtStat(s.Median)},
			{"p75", fmtStat(s.P75)},
			{"max", fmtStat(s.Max)},
			{"first", fmtStat(s.First)},
			{"last", fmtStat(s.Last)},
			{"change", fmtStat(s.Change)},
			{"change_pct", fmtStatPct(s.ChangePct)},
		}
		printKVTable(rows)
		return nil
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.AddCommand(statsSummaryCmd)
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func fmtStat(v float64) string {
	if math.IsNaN(v) {
		return "."
	}
	return fmt.Sprintf("%.4f", v)
}

func fmtStatPct(v float64) string {
	if math.IsNaN(v) {
		return "."
	}
	return fmt.Sprintf("%.2f%%", v)
}
