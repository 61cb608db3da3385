package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaiErikNiermann/roomnl-stats/internal/chart"
	"github.com/KaiErikNiermann/roomnl-stats/internal/forecast"
	"github.com/KaiErikNiermann/roomnl-stats/internal/gp"
	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
	"github.com/KaiErikNiermann/roomnl-stats/internal/pipeline"
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render series and forecasts as ASCII charts",
	Long: `Chart commands render to the terminal. plot reads JSONL observations
from stdin; forecast fits a model on the stored listings and draws the
prediction mean with its confidence band; profile draws a seasonal
profile as bars.

Pipeline examples:
  roomnl-stats listings series --format jsonl | roomnl-stats chart plot
  roomnl-stats listings series --city Delft --format jsonl | roomnl-stats transform roll --window 4 | roomnl-stats chart plot`,
}

// ─── chart plot ──────────────────────────────────────────────────────────────

var (
	chartPlotWidth  int
	chartPlotHeight int
	chartPlotTitle  string
)

var chartPlotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Multi-line ASCII chart with labeled axes (reads JSONL from stdin)",
	Long: `Renders a multi-line chart with Y-axis tick labels and X-axis date labels.

NaN values appear as gaps in the curve, not zeros. Width auto-detects from
$COLUMNS (falls back to 80). Override with --width and --height.`,
	Example: `  roomnl-stats listings series --format jsonl | roomnl-stats chart plot
  roomnl-stats listings series --format jsonl | roomnl-stats chart plot --height 8 --title "weekly waiting days"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		obs, err := pipeline.ReadObservations(os.Stdin)
		if err != nil {
			return err
		}
		return chart.Plot(os.Stdout, obs, chart.PlotOptions{
			Width:  chartPlotWidth,
			Height: chartPlotHeight,
			Title:  chartPlotTitle,
		})
	},
}

// ─── chart forecast ───────────────────────────────────────────────────────────

var (
	chartForecastCity    string
	chartForecastType    string
	chartForecastProfile string
)

var chartForecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Prediction mean with shaded confidence band",
	Example: `  roomnl-stats chart forecast
  roomnl-stats chart forecast --city Delft --height 16`,
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
		listings, err := loadListings(st, chartForecastCity, chartForecastType)
		if err != nil {
			return err
		}
		profile, err := loadProfile(deps, chartForecastProfile, listings)
		if err != nil {
			return err
		}

		m, err := forecast.Fit(model.ListingObservations(listings), profile, gp.DefaultConfig())
		if err != nil {
			return err
		}
		start := m.Training()[0].Date
		end := time.Now().UTC().AddDate(0, 0, deps.Config.HorizonDays)
		preds, err := m.PredictRange(start, end)
		if err != nil {
			return err
		}

		title := chartPlotTitle
		if title == "" {
			title = "predicted waiting days (95% band)"
		}
		return chart.Band(os.Stdout, preds, chart.PlotOptions{
			Width:  chartPlotWidth,
			Height: chartPlotHeight,
			Title:  title,
		})
	},
}

// ─── chart profile ────────────────────────────────────────────────────────────

var chartProfileCmd = &cobra.Command{
	Use:     "profile <name>",
	Short:   "Bar chart of a saved seasonal profile",
	Example: `  roomnl-stats chart profile delft-smoothed`,
	Args:    cobra.ExactArgs(1),
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
		months, ok, err := st.GetTrend(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no saved profile named %q", args[0])
		}

		labels := make([]string, len(months))
		values := make([]float64, len(months))
		for i, m := range months {
			labels[i] = m.Month.String()
			values[i] = m.Multiplier
		}
		return chart.Bar(os.Stdout, args[0], labels, values, chart.BarOptions{Width: chartPlotWidth})
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.AddCommand(chartPlotCmd)
	chartCmd.AddCommand(chartForecastCmd)
	chartCmd.AddCommand(chartProfileCmd)

	pf := chartCmd.PersistentFlags()
	pf.IntVar(&chartPlotWidth, "width", 0,
		"chart width in characters (default: auto-detect from $COLUMNS, fallback 80)")
	pf.IntVar(&chartPlotHeight, "height", 12,
		"chart height in rows (default 12)")
	pf.StringVar(&chartPlotTitle, "title", "", "chart title")

	chartForecastCmd.Flags().StringVar(&chartForecastCity, "city", "", "fit on a single city")
	chartForecastCmd.Flags().StringVar(&chartForecastType, "type", "", "fit on a single room type")
	chartForecastCmd.Flags().StringVar(&chartForecastProfile, "profile", "",
		"seasonal profile: empty=none, auto=build from listings, or a saved profile name")

	chartCmd.SilenceUsage = true
	chartPlotCmd.SilenceUsage = true
	chartForecastCmd.SilenceUsage = true
}
