// Package cli provides the command-line interface for the journal.
package cli

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"options-journal/internal/config"
	"options-journal/internal/errors"
	"options-journal/internal/logging"
	"options-journal/internal/marketdata"
	"options-journal/internal/models"
	"options-journal/internal/store"
)

// Version information
const Version = "0.1.0"

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.StructureStore
	Market marketdata.Provider
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:     "journal",
		Short:   "Options journal for multi-leg index structures",
		Long:    "Record multi-leg option structures and analyze them: pricing, Greeks, implied volatility, payoff curves and portfolio statistics.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				logging.SetDebugLevel()
			}
			return app.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Store != nil {
				_ = app.Store.Close()
			}
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/options-journal)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Float64("spot", 0, "override the index spot price")
	rootCmd.PersistentFlags().Float64("rate", 0, "override the risk-free rate, percent")

	addPricingCommands(rootCmd, app)
	addStructureCommands(rootCmd, app)
	addPayoffCommand(rootCmd, app)
	addPortfolioCommands(rootCmd, app)

	return rootCmd
}

// init wires the store and market-data provider once flags are parsed.
func (a *App) init(cmd *cobra.Command) error {
	if a.Store == nil {
		s, err := store.NewSQLiteStore(a.Config.Journal.DBPath)
		if err != nil {
			return errors.Wrap(err, "opening journal database")
		}
		a.Store = s
	}

	if a.Market == nil {
		a.Market = a.buildProvider(cmd)
	}
	return nil
}

// buildProvider prefers an explicit spot override, then the configured
// override, then live Kite data.
func (a *App) buildProvider(cmd *cobra.Command) marketdata.Provider {
	rate := a.Config.Market.RiskFreeRatePct
	if flagRate, _ := cmd.Flags().GetFloat64("rate"); flagRate != 0 {
		rate = flagRate
	}

	if spot, _ := cmd.Flags().GetFloat64("spot"); spot > 0 {
		return marketdata.StaticProvider{Spot: spot, RiskFreeRatePct: rate}
	}
	if a.Config.Market.SpotOverride > 0 {
		return marketdata.StaticProvider{Spot: a.Config.Market.SpotOverride, RiskFreeRatePct: rate}
	}

	provider, err := marketdata.NewKiteProvider(marketdata.KiteConfig{
		APIKey:          a.Config.Credentials.APIKey,
		AccessToken:     a.Config.Credentials.AccessToken,
		IndexSymbol:     a.Config.Market.IndexSymbol,
		RiskFreeRatePct: rate,
	})
	if err != nil {
		a.Logger.Warn().Err(err).Msg("live market data unavailable, pass --spot to analyze")
		return nil
	}
	return provider
}

// marketSnapshot fetches the current market snapshot, failing with a
// clear message when no provider is configured.
func (a *App) marketSnapshot(ctx context.Context) (models.MarketSnapshot, error) {
	if a.Market == nil {
		return models.MarketSnapshot{}, errors.Wrap(errors.ErrMarketData,
			"no market data provider configured; pass --spot or set kite credentials")
	}
	return a.Market.Snapshot(ctx)
}

// commandContext returns the bounded context used by every command.
func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
