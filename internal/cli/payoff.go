package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"options-journal/internal/payoff"
	"options-journal/pkg/utils"
)

// addPayoffCommand adds the payoff curve command.
func addPayoffCommand(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "payoff <structure-id>",
		Short: "Payoff curve of a structure",
		Long:  "Sample the payoff of a structure across a spot grid: P&L at expiry and P&L today.",
		Example: `  journal payoff 3
  journal payoff 3 --min 20000 --max 22000 --steps 50
  journal payoff 3 --csv payoff.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid structure id %q", args[0])
			}

			structure, err := app.Store.GetStructure(ctx, id)
			if err != nil {
				return err
			}
			market, err := app.marketSnapshot(ctx)
			if err != nil {
				return err
			}

			steps, _ := cmd.Flags().GetInt("steps")
			if steps <= 0 {
				steps = app.Config.Journal.PayoffSteps
			}
			opts := payoff.Options{Steps: steps}

			min, _ := cmd.Flags().GetFloat64("min")
			max, _ := cmd.Flags().GetFloat64("max")
			if min > 0 || max > 0 {
				opts.Range = &payoff.SpotRange{Min: min, Max: max}
			}

			now := time.Now()
			curve, err := payoff.Curve(structure.Legs, market, structure.Multiplier, opts, now)
			if err != nil {
				return err
			}
			atExpiryNow, todayNow, err := payoff.ValueNow(structure.Legs, market, structure.Multiplier, now)
			if err != nil {
				return err
			}

			if csvPath, _ := cmd.Flags().GetString("csv"); csvPath != "" {
				if err := writePayoffCSV(csvPath, curve); err != nil {
					return err
				}
				output.Success("Wrote %d samples to %s", len(curve), csvPath)
				return nil
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"curve":            curve,
					"value_at_expiry":  atExpiryNow,
					"value_today":      todayNow,
					"spot":             market.Spot,
				})
			}

			output.Bold("Payoff: %s (#%d)", structure.Name, structure.ID)
			output.Println()

			table := NewTable(output, "Spot", "P&L at expiry", "P&L today")
			for _, p := range curve {
				table.AddRow(
					fmt.Sprintf("%.2f", p.Spot),
					output.FormatPnL(p.PnlAtExpiry),
					output.FormatPnL(p.PnlToday),
				)
			}
			table.Render()

			output.Println()
			output.Printf("  At current spot %s:\n", utils.FormatPoints(market.Spot))
			output.Printf("    Value at expiry: %s\n", output.FormatPnL(atExpiryNow))
			output.Printf("    Value today:     %s\n", output.FormatPnL(todayNow))
			return nil
		},
	}

	cmd.Flags().Int("steps", 0, "number of grid steps (default from config)")
	cmd.Flags().Float64("min", 0, "lower spot bound (default: strike-based policy)")
	cmd.Flags().Float64("max", 0, "upper spot bound (default: strike-based policy)")
	cmd.Flags().String("csv", "", "write the curve to a CSV file instead of printing")

	rootCmd.AddCommand(cmd)
}

func writePayoffCSV(path string, curve []payoff.Point) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return gocsv.MarshalFile(&curve, f)
}
