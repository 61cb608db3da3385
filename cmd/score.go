package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaiErikNiermann/roomnl-stats/internal/forecast"
	"github.com/KaiErikNiermann/roomnl-stats/internal/gp"
	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
	"github.com/KaiErikNiermann/roomnl-stats/internal/render"
)

var (
	scoreCity      string
	scoreType      string
	scoreProfile   string
	scoreDays      int
	scoreGrowing   bool
	scoreDirection string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Probability that your registration time wins a room",
	Long: `Score fits a model like predict, then scores every forecast day against
your own registration time: the probability (%) that the waiting time a
room costs on that day is at most your time, and where your time sits
within the confidence interval.

With --growing your registration time accrues one day per day starting
today, which is how it actually behaves while you wait.`,
	Example: `  roomnl-stats score --days 1500
  roomnl-stats score --days 1500 --growing --city Delft
  roomnl-stats score --days 900 --direction at-least`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if scoreDays <= 0 {
			return fmt.Errorf("--days is required and must be positive")
		}
		dir := forecast.AtLeast
		switch scoreDirection {
		case "", "at-least":
		case "at-most":
			dir = forecast.AtMost
		default:
			return fmt.Errorf("invalid --direction %q: expected at-least or at-most", scoreDirection)
		}

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
		listings, err := loadListings(st, scoreCity, scoreType)
		if err != nil {
			return err
		}
		profile, err := loadProfile(deps, scoreProfile, listings)
		if err != nil {
			return err
		}

		obs := model.ListingObservations(listings)
		m, err := forecast.Fit(obs, profile, gp.DefaultConfig())
		if err != nil {
			return err
		}

		today := time.Now().UTC()
		preds, err := m.PredictRange(today, today.AddDate(0, 0, deps.Config.HorizonDays))
		if err != nil {
			return err
		}
		for i := range preds {
			preds[i].City = scoreCity
			preds[i].TypeOfRoom = scoreType
		}

		target := func(d time.Time) float64 {
			t := float64(scoreDays)
			if scoreGrowing {
				t += d.Sub(today).Hours() / 24
			}
			return t
		}
		scored, err := forecast.Score(preds, target, dir)
		if err != nil {
			return err
		}

		result := buildResult("score", model.KindScored, scored, len(scored))
		result.Stats.DurationMs = time.Since(begin).Milliseconds()
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
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringVar(&scoreCity, "city", "", "fit on a single city")
	scoreCmd.Flags().StringVar(&scoreType, "type", "", "fit on a single room type")
	scoreCmd.Flags().StringVar(&scoreProfile, "profile", "",
		"seasonal profile: empty=none, auto=build from listings, or a saved profile name")
	scoreCmd.Flags().IntVar(&scoreDays, "days", 0, "your registration time in days (required)")
	scoreCmd.Flags().BoolVar(&scoreGrowing, "growing", false, "registration time accrues one day per forecast day")
	scoreCmd.Flags().StringVar(&scoreDirection, "direction", "at-least",
		"winning condition: at-least (your time covers the predicted cost) or at-most")
}
