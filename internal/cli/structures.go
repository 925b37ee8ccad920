package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"options-journal/internal/models"
	"options-journal/internal/pnl"
	"options-journal/internal/store"
	"options-journal/pkg/utils"
)

// addStructureCommands adds the structure CRUD and lifecycle commands.
func addStructureCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "structure",
		Short: "Manage option structures",
		Long:  "Create, inspect, close and reopen multi-leg option structures.",
	}

	cmd.AddCommand(newStructureAddCmd(app))
	cmd.AddCommand(newStructureListCmd(app))
	cmd.AddCommand(newStructureShowCmd(app))
	cmd.AddCommand(newStructureCloseCmd(app))
	cmd.AddCommand(newStructureReopenCmd(app))
	cmd.AddCommand(newStructureDeleteCmd(app))

	rootCmd.AddCommand(cmd)
}

// parseLegSpec parses one --leg value of the form
// KIND:STRIKE:EXPIRY:QTY:OPEN_PRICE:IV_PCT[:OPEN_COMM[:CLOSE_COMM]].
func parseLegSpec(spec string, openDate time.Time) (models.Leg, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 6 || len(parts) > 8 {
		return models.Leg{}, fmt.Errorf("leg %q: want KIND:STRIKE:EXPIRY:QTY:OPEN_PRICE:IV_PCT[:OPEN_COMM[:CLOSE_COMM]]", spec)
	}

	kind, err := parseKind(parts[0])
	if err != nil {
		return models.Leg{}, fmt.Errorf("leg %q: %w", spec, err)
	}
	strike, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return models.Leg{}, fmt.Errorf("leg %q: strike: %w", spec, err)
	}
	expiry, err := time.Parse(dateLayout, parts[2])
	if err != nil {
		return models.Leg{}, fmt.Errorf("leg %q: expiry: %w", spec, err)
	}
	qty, err := strconv.Atoi(parts[3])
	if err != nil {
		return models.Leg{}, fmt.Errorf("leg %q: quantity: %w", spec, err)
	}
	openPrice, err := strconv.ParseFloat(parts[4], 64)
	if err != nil {
		return models.Leg{}, fmt.Errorf("leg %q: open price: %w", spec, err)
	}
	ivPct, err := strconv.ParseFloat(parts[5], 64)
	if err != nil {
		return models.Leg{}, fmt.Errorf("leg %q: implied vol: %w", spec, err)
	}

	leg := models.Leg{
		Contract:      models.OptionContract{Kind: kind, Strike: strike, Expiry: expiry},
		Quantity:      qty,
		OpenPrice:     openPrice,
		OpenDate:      openDate,
		ImpliedVolPct: ivPct,
	}

	if len(parts) >= 7 {
		if leg.OpenCommission, err = strconv.ParseFloat(parts[6], 64); err != nil {
			return models.Leg{}, fmt.Errorf("leg %q: open commission: %w", spec, err)
		}
	}
	if len(parts) == 8 {
		if leg.CloseCommission, err = strconv.ParseFloat(parts[7], 64); err != nil {
			return models.Leg{}, fmt.Errorf("leg %q: close commission: %w", spec, err)
		}
	}

	if err := leg.Validate(); err != nil {
		return models.Leg{}, fmt.Errorf("leg %q: %w", spec, err)
	}
	return leg, nil
}

func newStructureAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new structure",
		Long:  "Record a new multi-leg structure in the journal.",
		Example: `  journal structure add --name "sep strangle" \
    --leg CE:21500:2026-09-24:-1:85.0:13.2:20:20 \
    --leg PE:20500:2026-09-24:-1:92.5:15.8:20:20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			name, _ := cmd.Flags().GetString("name")
			multiplier, _ := cmd.Flags().GetInt("multiplier")
			legSpecs, _ := cmd.Flags().GetStringArray("leg")

			if len(legSpecs) == 0 {
				return fmt.Errorf("at least one --leg is required")
			}
			if multiplier <= 0 {
				multiplier = app.Config.Journal.DefaultMultiplier
			}

			now := time.Now().UTC()
			legs := make([]models.Leg, 0, len(legSpecs))
			for _, spec := range legSpecs {
				leg, err := parseLegSpec(spec, now)
				if err != nil {
					return err
				}
				legs = append(legs, leg)
			}

			structure := &models.Structure{
				Name:       name,
				Legs:       legs,
				Multiplier: multiplier,
				Status:     models.StructureActive,
			}
			if err := app.Store.SaveStructure(ctx, structure); err != nil {
				return err
			}

			app.Logger.Info().Int64("id", structure.ID).Str("name", name).Int("legs", len(legs)).Msg("structure recorded")
			output.Success("Recorded structure %d (%s) with %d legs", structure.ID, name, len(legs))
			return nil
		},
	}

	cmd.Flags().String("name", "", "structure name (required)")
	cmd.Flags().Int("multiplier", 0, "currency per index point per contract (default from config)")
	cmd.Flags().StringArray("leg", nil, "leg spec KIND:STRIKE:EXPIRY:QTY:OPEN_PRICE:IV_PCT[:OPEN_COMM[:CLOSE_COMM]] (repeatable)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newStructureListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List structures",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			statusStr, _ := cmd.Flags().GetString("status")
			limit, _ := cmd.Flags().GetInt("limit")

			structures, err := app.Store.ListStructures(ctx, store.StructureFilter{
				Status: models.StructureStatus(strings.ToUpper(statusStr)),
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(structures)
			}
			if len(structures) == 0 {
				output.Println("No structures recorded.")
				return nil
			}

			table := NewTable(output, "ID", "Name", "Status", "Legs", "Mult", "Closed", "Realized P&L")
			for _, s := range structures {
				closedAt := "-"
				if s.ClosingDate != nil {
					closedAt = s.ClosingDate.Format(dateLayout)
				}
				realized := "-"
				if v, err := s.RealizedPnlValue(); err == nil && s.RealizedPnl != "" {
					realized = output.FormatPnL(v)
				}
				table.AddRow(
					strconv.FormatInt(s.ID, 10),
					s.Name,
					string(s.Status),
					strconv.Itoa(len(s.Legs)),
					strconv.Itoa(s.Multiplier),
					closedAt,
					realized,
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().String("status", "", "filter by status: active or closed")
	cmd.Flags().Int("limit", 0, "maximum structures to list")
	return cmd
}

func newStructureShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a structure with per-leg P&L",
		Args:  cobra.ExactArgs(1),
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

			now := time.Now()
			type legView struct {
				Leg models.Leg          `json:"leg"`
				Pnl models.PnlBreakdown `json:"pnl"`
			}
			views := make([]legView, 0, len(structure.Legs))
			var totalNet float64
			for _, leg := range structure.Legs {
				breakdown, err := pnl.LegPnl(leg, market, structure.Multiplier, now)
				if err != nil {
					return err
				}
				views = append(views, legView{Leg: leg, Pnl: breakdown})
				totalNet += breakdown.NetPnl
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"structure": structure,
					"legs":      views,
					"total_net": totalNet,
				})
			}

			output.Bold("%s (#%d) %s, multiplier %d", structure.Name, structure.ID, structure.Status, structure.Multiplier)
			output.Println()

			table := NewTable(output, "Kind", "Strike", "Expiry", "Qty", "Open", "Close/Mark", "Points", "Net P&L", "State")
			for _, v := range views {
				leg := v.Leg
				state := "open"
				markOrClose := 0.0
				if leg.IsClosed() {
					state = "closed"
					markOrClose = *leg.ClosePrice
				} else if markOrClose, err = pnl.MarkPrice(leg, market, now); err != nil {
					return err
				}
				table.AddRow(
					string(leg.Contract.Kind),
					fmt.Sprintf("%.0f", leg.Contract.Strike),
					leg.Contract.Expiry.Format(dateLayout),
					strconv.Itoa(leg.Quantity),
					utils.FormatPoints(leg.OpenPrice),
					utils.FormatPoints(markOrClose),
					utils.FormatPoints(v.Pnl.PointsPnl),
					output.FormatPnL(v.Pnl.NetPnl),
					state,
				)
			}
			table.Render()

			output.Println()
			output.Printf("  Total net P&L: %s\n", output.FormatPnL(totalNet))
			return nil
		},
	}
}

func newStructureCloseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "close <id>",
		Short: "Close a structure, settling every open leg",
		Long:  "Settle every open leg at the current market snapshot and mark the structure closed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid structure id %q", args[0])
			}

			market, err := app.marketSnapshot(ctx)
			if err != nil {
				return err
			}

			settlement, err := app.Store.CloseStructure(ctx, id, market, time.Now().UTC())
			if err != nil {
				return err
			}

			app.Logger.Info().Int64("id", id).Float64("realized_pnl", settlement.RealizedPnl).Msg("structure closed")
			output.Success("Closed structure %d", id)
			output.Printf("  Realized P&L: %s\n", output.FormatPnL(settlement.RealizedPnl))
			return nil
		},
	}
}

func newStructureReopenCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reopen <id>",
		Short: "Reopen a closed structure",
		Long:  "Clear the close prices and dates of every leg and discard the cached realized P&L.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid structure id %q", args[0])
			}

			if err := app.Store.ReopenStructure(ctx, id); err != nil {
				return err
			}

			app.Logger.Info().Int64("id", id).Msg("structure reopened")
			output.Success("Reopened structure %d", id)
			return nil
		},
	}
}

func newStructureDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid structure id %q", args[0])
			}

			if err := app.Store.DeleteStructure(ctx, id); err != nil {
				return err
			}
			output.Success("Deleted structure %d", id)
			return nil
		},
	}
}
