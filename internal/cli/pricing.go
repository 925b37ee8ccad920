package cli

import (
	"time"

	"github.com/spf13/cobra"

	"options-journal/internal/models"
	"options-journal/internal/pricing"
	"options-journal/pkg/utils"
)

const dateLayout = "2006-01-02"

// addPricingCommands adds the one-shot kernel and solver commands.
func addPricingCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newPriceCmd(app))
	rootCmd.AddCommand(newImpliedVolCmd(app))
}

func parseKind(s string) (models.OptionKind, error) {
	kind := models.OptionKind(s)
	if err := kind.Validate(); err != nil {
		return "", err
	}
	return kind, nil
}

func newPriceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a single option",
		Long:  "Compute the Black-Scholes price and Greeks for a single option contract.",
		Example: `  journal price --strike 21000 --type CE --expiry 2026-09-24 --vol 14.5
  journal price --strike 21000 --type PE --expiry 2026-09-24 --vol 14.5 --spot 20850`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			strike, _ := cmd.Flags().GetFloat64("strike")
			vol, _ := cmd.Flags().GetFloat64("vol")
			kindStr, _ := cmd.Flags().GetString("type")
			expiryStr, _ := cmd.Flags().GetString("expiry")

			kind, err := parseKind(kindStr)
			if err != nil {
				return err
			}
			expiry, err := time.Parse(dateLayout, expiryStr)
			if err != nil {
				return err
			}

			market, err := app.marketSnapshot(ctx)
			if err != nil {
				return err
			}

			quote, err := pricing.Price(pricing.PriceInput{
				Spot:         market.Spot,
				Strike:       strike,
				TimeToExpiry: pricing.YearsToExpiry(time.Now(), expiry),
				Rate:         market.RateFraction(),
				VolPct:       vol,
				Kind:         kind,
			})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(quote)
			}

			output.Bold("%s %s %.0f @ spot %.2f", expiryStr, kindStr, strike, market.Spot)
			output.Println()
			output.Printf("  Price:      %s points\n", utils.FormatPoints(quote.Price))
			output.Printf("  Delta (Δ):  %s\n", FormatSigned(quote.Greeks.Delta))
			output.Printf("  Gamma (Γ):  %s\n", FormatSigned(quote.Greeks.Gamma))
			output.Printf("  Theta (Θ):  %s per day\n", FormatSigned(quote.Greeks.Theta))
			output.Printf("  Vega (ν):   %s per vol point\n", FormatSigned(quote.Greeks.Vega))
			output.Printf("  Rho (ρ):    %s per rate point\n", FormatSigned(quote.Greeks.Rho))
			return nil
		},
	}

	cmd.Flags().Float64("strike", 0, "strike price (required)")
	cmd.Flags().String("type", "CE", "option type: CE or PE")
	cmd.Flags().String("expiry", "", "expiry date, YYYY-MM-DD (required)")
	cmd.Flags().Float64("vol", 0, "implied volatility, percent (required)")
	_ = cmd.MarkFlagRequired("strike")
	_ = cmd.MarkFlagRequired("expiry")
	_ = cmd.MarkFlagRequired("vol")

	return cmd
}

func newImpliedVolCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "iv",
		Short:   "Solve for implied volatility",
		Long:    "Recover the implied volatility that reproduces an observed option price.",
		Example: `  journal iv --strike 21000 --type CE --expiry 2026-09-24 --price 145.50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			strike, _ := cmd.Flags().GetFloat64("strike")
			target, _ := cmd.Flags().GetFloat64("price")
			kindStr, _ := cmd.Flags().GetString("type")
			expiryStr, _ := cmd.Flags().GetString("expiry")

			kind, err := parseKind(kindStr)
			if err != nil {
				return err
			}
			expiry, err := time.Parse(dateLayout, expiryStr)
			if err != nil {
				return err
			}

			market, err := app.marketSnapshot(ctx)
			if err != nil {
				return err
			}

			tte := pricing.YearsToExpiry(time.Now(), expiry)
			if tte < pricing.MinTimeToExpiry {
				// Same-day expiries still carry about an hour of
				// optionality for solving purposes.
				tte = pricing.MinTimeToExpiry
			}
			vol, err := pricing.ImpliedVol(target, market.Spot, strike, tte, market.RateFraction(), kind)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]float64{"implied_vol_pct": vol})
			}

			output.Bold("%s %s %.0f @ spot %.2f", expiryStr, kindStr, strike, market.Spot)
			output.Println()
			output.Printf("  Observed price: %s points\n", utils.FormatPoints(target))
			output.Printf("  Implied vol:    %.2f%%\n", vol)
			return nil
		},
	}

	cmd.Flags().Float64("strike", 0, "strike price (required)")
	cmd.Flags().String("type", "CE", "option type: CE or PE")
	cmd.Flags().String("expiry", "", "expiry date, YYYY-MM-DD (required)")
	cmd.Flags().Float64("price", 0, "observed option price in points (required)")
	_ = cmd.MarkFlagRequired("strike")
	_ = cmd.MarkFlagRequired("expiry")
	_ = cmd.MarkFlagRequired("price")

	return cmd
}
