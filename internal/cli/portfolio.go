package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"options-journal/internal/models"
	"options-journal/internal/portfolio"
	"options-journal/internal/store"
	"options-journal/pkg/utils"
)

// addPortfolioCommands adds the portfolio-level aggregation commands.
func addPortfolioCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newGreeksCmd(app))
	rootCmd.AddCommand(newReportCmd(app))
}

func newGreeksCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "greeks",
		Short: "Portfolio Greeks and unrealized P&L",
		Long:  "Aggregate Greeks over the open legs of every active structure, with theta and vega monetized per structure multiplier.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			structures, err := app.Store.ListStructures(ctx, store.StructureFilter{Status: models.StructureActive})
			if err != nil {
				return err
			}
			market, err := app.marketSnapshot(ctx)
			if err != nil {
				return err
			}

			now := time.Now()
			greeks, err := portfolio.TotalGreeks(structures, market, now)
			if err != nil {
				return err
			}
			unrealized, err := portfolio.TotalUnrealizedPnl(structures, market, now)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"greeks":         greeks,
					"unrealized_pnl": unrealized,
				})
			}

			output.Bold("Portfolio Greeks at spot %.2f", market.Spot)
			output.Println()
			output.Printf("  Delta (Δ):  %s points\n", FormatSigned(greeks.Delta))
			output.Printf("  Gamma (Γ):  %s points\n", FormatSigned(greeks.Gamma))
			output.Printf("  Theta (Θ):  %s per day\n", output.FormatPnL(greeks.Theta))
			output.Printf("  Vega (ν):   %s per vol point\n", output.FormatPnL(greeks.Vega))
			output.Println()
			output.Printf("  Unrealized P&L: %s\n", output.FormatPnL(unrealized))
			return nil
		},
	}
}

func newReportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Equity curve, drawdown and trade statistics",
		Long:  "Walk the closed structures in closing-date order and report the equity curve, drawdown and summary statistics.",
		Example: `  journal report
  journal report --capital 500000
  journal report --csv equity.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			capital, _ := cmd.Flags().GetFloat64("capital")
			if capital <= 0 {
				capital = app.Config.Journal.InitialCapital
			}

			structures, err := app.Store.ListStructures(ctx, store.StructureFilter{Status: models.StructureClosed})
			if err != nil {
				return err
			}

			curve, err := portfolio.EquityCurve(structures, capital)
			if err != nil {
				return err
			}
			stats, err := portfolio.TradeStatistics(structures)
			if err != nil {
				return err
			}

			if csvPath, _ := cmd.Flags().GetString("csv"); csvPath != "" {
				if err := writeEquityCSV(csvPath, curve); err != nil {
					return err
				}
				output.Success("Wrote %d equity points to %s", len(curve), csvPath)
				return nil
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"equity_curve": curve,
					"stats":        stats,
				})
			}

			output.Bold("Equity Curve")
			table := NewTable(output, "Date", "Equity", "Drawdown")
			for _, p := range curve {
				table.AddRow(p.Label, utils.FormatIndianCurrency(p.Equity), output.FormatDrawdown(p.Drawdown))
			}
			table.Render()

			output.Println()
			output.Bold("Trade Statistics")
			output.Printf("  Closed trades:  %d\n", stats.Trades)
			output.Printf("  Total net P&L:  %s\n", output.FormatPnL(stats.TotalNetPnl))
			output.Printf("  Profit factor:  %s\n", utils.FormatRatio(stats.ProfitFactor))
			output.Printf("  Win rate:       %.1f%%\n", stats.WinRate*100)
			output.Printf("  Avg win:        %s\n", utils.FormatIndianCurrency(stats.AvgWin))
			output.Printf("  Avg loss:       %s\n", utils.FormatIndianCurrency(stats.AvgLoss))
			output.Printf("  Max drawdown:   %s\n", output.FormatDrawdown(stats.MaxDrawdown))
			return nil
		},
	}

	cmd.Flags().Float64("capital", 0, "initial capital (default from config)")
	cmd.Flags().String("csv", "", "write the equity curve to a CSV file instead of printing")

	return cmd
}

func writeEquityCSV(path string, curve []models.EquityPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return gocsv.MarshalFile(&curve, f)
}
