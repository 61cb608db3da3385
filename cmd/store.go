package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect and manage the local database",
	Long: `Commands for inspecting what data has been accumulated in the local database.

Use 'roomnl-stats fetch --store' to accumulate listings.`,
}

// ─── store stats ──────────────────────────────────────────────────────────────

var storeStatsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show bucket-level storage statistics",
	Example: `  roomnl-stats store stats`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		st, err := deps.RequireStore()
		if err != nil {
			return err
		}
		defer deps.Close()

		stats, err := st.Stats()
		if err != nil {
			return fmt.Errorf("reading store: %w", err)
		}
		sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })

		var totalCount int
		var totalBytes int64
		printSimpleTable(cmd.OutOrStdout(), []string{"BUCKET", "ENTRIES", "SIZE"}, func(add func(...string)) {
			for _, s := range stats {
				add(s.Name, fmt.Sprintf("%d", s.Count), humanBytes(s.Bytes))
				totalCount += s.Count
				totalBytes += s.Bytes
			}
		})
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d entries  •  %s  •  %s\n",
			totalCount, humanBytes(totalBytes), st.Path())
		return nil
	},
}

// ─── store clear ──────────────────────────────────────────────────────────────

var storeClearAll bool

var storeClearCmd = &cobra.Command{
	Use:   "clear [bucket]",
	Short: "Delete stored data",
	Example: `  roomnl-stats store clear listings
  roomnl-stats store clear --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !storeClearAll && len(args) == 0 {
			return fmt.Errorf("specify a bucket (listings, trends, snapshots) or --all")
		}

		deps, err := buildDeps()
		if err != nil {
			return err
		}
		st, err := deps.RequireStore()
		if err != nil {
			return err
		}
		defer deps.Close()

		if storeClearAll {
			if err := st.ClearAll(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Cleared all buckets")
			return nil
		}

		name := args[0]
		if err := st.ClearBucket(name); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared bucket %s\n", name)
		return nil
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storeStatsCmd)
	storeCmd.AddCommand(storeClearCmd)

	storeClearCmd.Flags().BoolVar(&storeClearAll, "all", false, "clear every bucket")
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func humanBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
