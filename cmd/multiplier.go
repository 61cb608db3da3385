package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
	"github.com/KaiErikNiermann/roomnl-stats/internal/render"
	"github.com/KaiErikNiermann/roomnl-stats/internal/seasonal"
	"github.com/KaiErikNiermann/roomnl-stats/internal/stats"
)

var multiplierCmd = &cobra.Command{
	Use:   "multiplier",
	Short: "Build and manage monthly seasonal profiles",
	Long: `A seasonal profile assigns every calendar month a positive multiplier
averaging 1.0. Predict and score deseasonalize the training series with a
profile before fitting, and scale the predictions back afterwards.`,
}

// ─── multiplier build ─────────────────────────────────────────────────────────

var (
	multiplierCity     string
	multiplierType     string
	multiplierStrength float64
	multiplierSmooth   int
	multiplierSave     string
)

var multiplierBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a profile from the stored listings",
	Example: `  roomnl-stats multiplier build
  roomnl-stats multiplier build --city Delft --strength 0.5
  roomnl-stats multiplier build --smooth 1 --save delft-smoothed`,
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
		listings, err := loadListings(st, multiplierCity, multiplierType)
		if err != nil {
			return err
		}

		opts := seasonal.Options{Strength: multiplierStrength, SmoothRadius: multiplierSmooth}
		months, err := seasonal.BuildMultiplier(stats.MonthlyMeans(listings), opts)
		if err != nil {
			return err
		}

		if multiplierSave != "" {
			if err := st.PutTrend(multiplierSave, months); err != nil {
				return err
			}
			if !deps.Config.Quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved profile %q to %s\n", multiplierSave, deps.Config.DBPath)
			}
		}

		result := buildResult("multiplier build", model.KindMultiplier, months, len(months))
		result.Stats.DurationMs = time.Since(begin).Milliseconds()
		format := resolveFormat(deps.Config.Format)
		if err := render.RenderTo(globalFlags.Out, result, format); err != nil {
			return err
		}
		render.PrintFooter(cmd.OutOrStdout(), result, deps.Config.Verbose)
		return nil
	},
}

// ─── multiplier show ──────────────────────────────────────────────────────────

var multiplierShowCmd = &cobra.Command{
	Use:     "show <name>",
	Short:   "Show a saved profile",
	Example: `  roomnl-stats multiplier show delft-smoothed`,
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

		result := buildResult("multiplier show", model.KindMultiplier, months, len(months))
		format := resolveFormat(deps.Config.Format)
		return render.RenderTo(globalFlags.Out, result, format)
	},
}

// ─── multiplier list ──────────────────────────────────────────────────────────

var multiplierListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profile names",
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
		names, err := st.ListTrendNames()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No saved profiles.")
			return nil
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(multiplierCmd)
	multiplierCmd.AddCommand(multiplierBuildCmd)
	multiplierCmd.AddCommand(multiplierShowCmd)
	multiplierCmd.AddCommand(multiplierListCmd)

	multiplierBuildCmd.Flags().StringVar(&multiplierCity, "city", "", "build from a single city")
	multiplierBuildCmd.Flags().StringVar(&multiplierType, "type", "", "build from a single room type")
	multiplierBuildCmd.Flags().Float64Var(&multiplierStrength, "strength", 1.0,
		"seasonal strength: 0 flattens the profile, 1 keeps it as computed")
	multiplierBuildCmd.Flags().IntVar(&multiplierSmooth, "smooth", 0,
		"circular smoothing radius in months (0 = no smoothing)")
	multiplierBuildCmd.Flags().StringVar(&multiplierSave, "save", "", "save the profile under this name")
}
