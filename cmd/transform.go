package cmd

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
	"github.com/KaiErikNiermann/roomnl-stats/internal/pipeline"
	"github.com/KaiErikNiermann/roomnl-stats/internal/render"
	"github.com/KaiErikNiermann/roomnl-stats/internal/transform"
	"github.com/KaiErikNiermann/roomnl-stats/internal/util"
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Transform a time series (reads JSONL from stdin)",
	Long: `Transform operators read JSONL observations from stdin and write to stdout.

Pipeline example:
  roomnl-stats listings series --format jsonl | roomnl-stats transform roll --window 4
  roomnl-stats listings series --format jsonl | roomnl-stats transform resample --method mean | roomnl-stats stats summary`,
}

// ─── weekly ───────────────────────────────────────────────────────────────────

var transformWeeklyCmd = &cobra.Command{
	Use:     "weekly",
	Short:   "Aggregate observations to weekly means (weeks start Monday)",
	Example: `  roomnl-stats listings series --format jsonl | roomnl-stats transform weekly`,
	RunE: func(cmd *cobra.Command, args []string) error {
		obs, err := pipeline.ReadObservations(os.Stdin)
		if err != nil {
			return err
		}
		return writeTransformOutput(transform.WeeklyMean(obs))
	},
}

// ─── resample ─────────────────────────────────────────────────────────────────

var (
	transformResampleFreq   string
	transformResampleMethod string
)

var transformResampleCmd = &cobra.Command{
	Use:   "resample",
	Short: "Downsample to monthly, quarterly, or annual frequency",
	Example: `  roomnl-stats listings series --format jsonl | roomnl-stats transform resample --method mean
  roomnl-stats listings series --format jsonl | roomnl-stats transform resample --freq quarterly --method last`,
	RunE: func(cmd *cobra.Command, args []string) error {
		obs, err := pipeline.ReadObservations(os.Stdin)
		if err != nil {
			return err
		}
		out, err := transform.Resample(obs,
			transform.ResampleFreq(transformResampleFreq),
			transform.ResampleMethod(transformResampleMethod))
		if err != nil {
			return err
		}
		return writeTransformOutput(out)
	},
}

// ─── pct-change ───────────────────────────────────────────────────────────────

var transformPctPeriod int

var transformPctCmd = &cobra.Command{
	Use:     "pct-change",
	Short:   "Percent change vs the observation N periods earlier",
	Example: `  roomnl-stats listings series --format jsonl | roomnl-stats transform pct-change --period 4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		obs, err := pipeline.ReadObservations(os.Stdin)
		if err != nil {
			return err
		}
		out, err := transform.PctChange(obs, transformPctPeriod)
		if err != nil {
			return err
		}
		return writeTransformOutput(out)
	},
}

// ─── diff ─────────────────────────────────────────────────────────────────────

var transformDiffOrder int

var transformDiffCmd = &cobra.Command{
	Use:     "diff",
	Short:   "First or second order difference",
	Example: `  roomnl-stats listings series --format jsonl | roomnl-stats transform diff --order 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		obs, err := pipeline.ReadObservations(os.Stdin)
		if err != nil {
			return err
		}
		out, err := transform.Diff(obs, transformDiffOrder)
		if err != nil {
			return err
		}
		return writeTransformOutput(out)
	},
}

// ─── log ──────────────────────────────────────────────────────────────────────

var transformLogCmd = &cobra.Command{
	Use:     "log",
	Short:   "Natural log of each value (non-positive values become NaN)",
	Example: `  roomnl-stats listings series --format jsonl | roomnl-stats transform log`,
	RunE: func(cmd *cobra.Command, args []string) error {
		obs, err := pipeline.ReadObservations(os.Stdin)
		if err != nil {
			return err
		}
		out, warnings := transform.Log(obs)
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "⚠ %s\n", w)
		}
		return writeTransformOutput(out)
	},
}

// ─── index ────────────────────────────────────────────────────────────────────

var (
	transformIndexBase   float64
	transformIndexAnchor string
)

var transformIndexCmd = &cobra.Command{
	Use:     "index",
	Short:   "Rescale the series so the anchor date equals a base value",
	Example: `  roomnl-stats listings series --format jsonl | roomnl-stats transform index --base 100 --date 2024-01-01`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if transformIndexAnchor == "" {
			return fmt.Errorf("--date is required")
		}
		anchor, err := util.ParseDate(transformIndexAnchor)
		if err != nil {
			return err
		}
		obs, err := pipeline.ReadObservations(os.Stdin)
		if err != nil {
			return err
		}
		out, err := transform.Index(obs, transformIndexBase, anchor)
		if err != nil {
			return err
		}
		return writeTransformOutput(out)
	},
}

// ─── normalize ────────────────────────────────────────────────────────────────

var transformNormalizeMethod string

var transformNormalizeCmd = &cobra.Command{
	Use:     "normalize",
	Short:   "Normalize values: zscore or minmax",
	Example: `  roomnl-stats listings series --format jsonl | roomnl-stats transform normalize --method zscore`,
	RunE: func(cmd *cobra.Command, args []string) error {
		obs, err := pipeline.ReadObservations(os.Stdin)
		if err != nil {
			return err
		}
		out, err := transform.Normalize(obs, transform.NormalizeMethod(transformNormalizeMethod))
		if err != nil {
			return err
		}
		return writeTransformOutput(out)
	},
}

// ─── filter ───────────────────────────────────────────────────────────────────

var (
	transformFilterAfter  string
	transformFilterBefore string
	transformFilterMin    float64
	transformFilterMax    float64
	transformFilterDrop   bool
)

var transformFilterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter observations by date range or value bounds",
	Example: `  roomnl-stats listings series --format jsonl | roomnl-stats transform filter --after 2024-01-01
  roomnl-stats listings series --format jsonl | roomnl-stats transform filter --min 500 --max 2500`,
	RunE: func(cmd *cobra.Command, args []string) error {
		obs, err := pipeline.ReadObservations(os.Stdin)
		if err != nil {
			return err
		}
		opts := transform.FilterOptions{
			DropMissing: transformFilterDrop,
			MinValue:    math.NaN(),
			MaxValue:    math.NaN(),
		}
		if transformFilterAfter != "" {
			if opts.After, err = time.Parse("2006-01-02", transformFilterAfter); err != nil {
				return fmt.Errorf("--after: invalid date %q", transformFilterAfter)
			}
		}
		if transformFilterBefore != "" {
			if opts.Before, err = time.Parse("2006-01-02", transformFilterBefore); err != nil {
				return fmt.Errorf("--before: invalid date %q", transformFilterBefore)
			}
		}
		if cmd.Flags().Changed("min") {
			opts.MinValue = transformFilterMin
		}
		if cmd.Flags().Changed("max") {
			opts.MaxValue = transformFilterMax
		}
		out := transform.Filter(obs, opts)
		return writeTransformOutput(out)
	},
}

// ─── roll ─────────────────────────────────────────────────────────────────────

var (
	transformRollWindow     int
	transformRollMinPeriods int
	transformRollStat       string
)

var transformRollCmd = &cobra.Command{
	Use:   "roll",
	Short: "Rolling window statistic: mean, std, min, max, or sum",
	Example: `  roomnl-stats listings series --format jsonl | roomnl-stats transform roll --stat mean --window 4
  roomnl-stats listings series --format jsonl | roomnl-stats transform roll --stat std --window 8 --min-periods 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		obs, err := pipeline.ReadObservations(os.Stdin)
		if err != nil {
			return err
		}
		out, err := transform.Roll(obs, transformRollWindow, transformRollMinPeriods, transform.RollStat(transformRollStat))
		if err != nil {
			return err
		}
		return writeTransformOutput(out)
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(transformCmd)
	transformCmd.AddCommand(transformWeeklyCmd)
	transformCmd.AddCommand(transformResampleCmd)
	transformCmd.AddCommand(transformPctCmd)
	transformCmd.AddCommand(transformDiffCmd)
	transformCmd.AddCommand(transformLogCmd)
	transformCmd.AddCommand(transformIndexCmd)
	transformCmd.AddCommand(transformNormalizeCmd)
	transformCmd.AddCommand(transformFilterCmd)
	transformCmd.AddCommand(transformRollCmd)

	// resample flags
	transformResampleCmd.Flags().StringVar(&transformResampleFreq, "freq", "monthly", "target frequency: monthly|quarterly|annual")
	transformResampleCmd.Flags().StringVar(&transformResampleMethod, "method", "mean", "aggregation method: mean|last|sum")

	// pct-change flags
	transformPctCmd.Flags().IntVar(&transformPctPeriod, "period", 1, "periods back for the comparison point")

	// diff flags
	transformDiffCmd.Flags().IntVar(&transformDiffOrder, "order", 1, "difference order: 1 or 2")

	// index flags
	transformIndexCmd.Flags().Float64Var(&transformIndexBase, "base", 100, "value the anchor date is scaled to")
	transformIndexCmd.Flags().StringVar(&transformIndexAnchor, "date", "", "anchor date YYYY-MM-DD (required)")

	// normalize flags
	transformNormalizeCmd.Flags().StringVar(&transformNormalizeMethod, "method", "zscore", "normalization method: zscore|minmax")

	// filter flags
	transformFilterCmd.Flags().StringVar(&transformFilterAfter, "after", "", "keep obs with date > YYYY-MM-DD")
	transformFilterCmd.Flags().StringVar(&transformFilterBefore, "before", "", "keep obs with date < YYYY-MM-DD")
	transformFilterCmd.Flags().Float64Var(&transformFilterMin, "min", 0, "keep obs with value >= min")
	transformFilterCmd.Flags().Float64Var(&transformFilterMax, "max", 0, "keep obs with value <= max")
	transformFilterCmd.Flags().BoolVar(&transformFilterDrop, "drop-missing", false, "drop NaN observations")

	// roll flags
	transformRollCmd.Flags().IntVar(&transformRollWindow, "window", 4, "window size (number of observations)")
	transformRollCmd.Flags().IntVar(&transformRollMinPeriods, "min-periods", 1, "minimum non-NaN values required in window")
	transformRollCmd.Flags().StringVar(&transformRollStat, "stat", "mean", "statistic: mean|std|min|max|sum")
}

// ─── Output helper ────────────────────────────────────────────────────────────

// writeTransformOutput writes obs to stdout in JSONL (pipeline) or table (terminal).
func writeTransformOutput(obs []model.Observation) error {
	format := resolveFormat("")
	// If no explicit format and stdout is a terminal, use table
	if globalFlags.Format == "" {
		if pipeline.IsTTY() {
			format = render.FormatTable
		} else {
			format = render.FormatJSONL
		}
	}

	if format == render.FormatJSONL {
		return pipeline.WriteJSONL(os.Stdout, obs)
	}

	result := buildResult("transform", model.KindSeriesData, obs, len(obs))
	return render.RenderTo(globalFlags.Out, result, format)
}
