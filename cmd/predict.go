package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaiErikNiermann/roomnl-stats/internal/forecast"
	"github.com/KaiErikNiermann/roomnl-stats/internal/gp"
	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
	"github.com/KaiErikNiermann/roomnl-stats/internal/render"
	"github.com/KaiErikNiermann/roomnl-stats/internal/util"
)

var (
	predictCity    string
	predictType    string
	predictProfile string
	predictStart   string
	predictEnd     string
	predictFill    bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Fit a model and forecast daily waiting times",
	Long: `Predict fits a Gaussian-process model with academic-calendar features
on the stored listings (optionally filtered to one city or room type) and
emits one prediction per day with a 95% confidence interval.

The range defaults to the first training observation through today plus
the configured horizon. With --fill the observed weekly series is emitted
instead, with model predictions substituted on weeks that had no
contracts.`,
	Example: `  roomnl-stats predict
  roomnl-stats predict --city Delft --profile auto
  roomnl-stats predict --start 2025-09-01 --end 2026-08-31 --format csv
  roomnl-stats predict --city Delft --fill`,
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
		begin := time.Now()
		listings, err := loadListings(st, predictCity, predictType)
		if err != nil {
			return err
		}
		profile, err := loadProfile(deps, predictProfile, listings)
		if err != nil {
			return err
		}

		obs := model.ListingObservations(listings)
		m, err := forecast.Fit(obs, profile, gp.DefaultConfig())
		if err != nil {
			return err
		}

		start, end, err := predictionRange(m, deps.Config.HorizonDays)
		if err != nil {
			return err
		}
		preds, err := m.PredictRange(start, end)
		if err != nil {
			return err
		}
		for i := range preds {
			preds[i].City = predictCity
			preds[i].TypeOfRoom = predictType
		}

		format := resolveFormat(deps.Config.Format)

		if predictFill {
			training := m.Training()
			weekly := make([]model.Observation, len(training))
			for i, row := range training {
				weekly[i] = model.Observation{Date: row.Date, Value: row.Value}
			}
			filled := forecast.FillMissing(weekly, preds)
			if format == "json" || format == "jsonl" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				if format == "json" {
					enc.SetIndent("", "  ")
					return enc.Encode(filled)
				}
				for _, f := range filled {
					if err := enc.Encode(f); err != nil {
						return err
					}
				}
				return nil
			}
			printSimpleTable(cmd.OutOrStdout(), []string{"DATE", "VALUE", "LO", "HI", "FILLED"}, func(add func(...string)) {
				for _, f := range filled {
					mark := ""
					if f.Filled {
						mark = "*"
					}
					add(util.FormatDate(f.Date), util.FormatValue(f.Value),
						util.FormatValue(f.Lo), util.FormatValue(f.Hi), mark)
				}
			})
			return nil
		}

		result := buildResult("predict", model.KindPredictions, preds, len(preds))
		result.Stats.DurationMs = time.Since(begin).Milliseconds()
		if err := render.RenderTo(globalFlags.Out, result, format); err != nil {
			return err
		}
		render.PrintFooter(cmd.OutOrStdout(), result, deps.Config.Verbose)
		return nil
	},
}

// predictionRange resolves the --start/--end flags against the model's
// training data and the configured horizon.
func predictionRange(m *forecast.Model, horizonDays int) (time.Time, time.Time, error) {
	training := m.Training()
	start := training[0].Date
	if predictStart != "" {
		t, err := util.ParseDate(predictStart)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --start: %w", err)
		}
		start = t
	}
	end := time.Now().UTC().AddDate(0, 0, horizonDays)
	if predictEnd != "" {
		t, err := util.ParseDate(predictEnd)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end: %w", err)
		}
		end = t
	}
	return start, end, nil
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().StringVar(&predictCity, "city", "", "fit on a single city")
	predictCmd.Flags().StringVar(&predictType, "type", "", "fit on a single room type")
	predictCmd.Flags().StringVar(&predictProfile, "profile", "",
		"seasonal profile: empty=none, auto=build from listings, or a saved profile name")
	predictCmd.Flags().StringVar(&predictStart, "start", "", "prediction start date YYYY-MM-DD (default: first observation)")
	predictCmd.Flags().StringVar(&predictEnd, "end", "", "prediction end date YYYY-MM-DD (default: today + horizon)")
	predictCmd.Flags().BoolVar(&predictFill, "fill", false, "emit the training series with gaps filled by predictions")
}
