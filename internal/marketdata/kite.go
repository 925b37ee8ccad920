package marketdata

import (
	"context"
	"fmt"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"options-journal/internal/errors"
	"options-journal/internal/models"
)

// KiteProvider fetches the index spot from Kite Connect. The risk-free
// rate is not quoted by the exchange and comes from configuration.
type KiteProvider struct {
	client          *kiteconnect.Client
	symbol          string // e.g. NSE:NIFTY 50
	riskFreeRatePct float64
}

// KiteConfig holds the inputs for a KiteProvider.
type KiteConfig struct {
	APIKey          string
	AccessToken     string
	IndexSymbol     string
	RiskFreeRatePct float64
}

// NewKiteProvider creates a provider backed by Kite Connect.
func NewKiteProvider(cfg KiteConfig) (*KiteProvider, error) {
	if cfg.APIKey == "" || cfg.AccessToken == "" {
		return nil, errors.Wrap(errors.ErrMarketData, "kite api key and access token are required")
	}
	if cfg.IndexSymbol == "" {
		return nil, errors.Wrap(errors.ErrMarketData, "index symbol is required")
	}

	client := kiteconnect.New(cfg.APIKey)
	client.SetAccessToken(cfg.AccessToken)

	return &KiteProvider{
		client:          client,
		symbol:          cfg.IndexSymbol,
		riskFreeRatePct: cfg.RiskFreeRatePct,
	}, nil
}

// Snapshot fetches the last traded price of the configured index.
func (p *KiteProvider) Snapshot(ctx context.Context) (models.MarketSnapshot, error) {
	quotes, err := p.client.GetLTP(p.symbol)
	if err != nil {
		return models.MarketSnapshot{}, errors.Wrapf(errors.ErrMarketData, "fetching quote for %s: %v", p.symbol, err)
	}

	q, ok := quotes[p.symbol]
	if !ok {
		return models.MarketSnapshot{}, errors.Wrap(errors.ErrMarketData, fmt.Sprintf("no quote returned for %s", p.symbol))
	}

	snap := models.MarketSnapshot{
		Spot:            q.LastPrice,
		RiskFreeRatePct: p.riskFreeRatePct,
	}
	if err := snap.Validate(); err != nil {
		return models.MarketSnapshot{}, errors.Wrapf(errors.ErrMarketData, "quote for %s: %v", p.symbol, err)
	}
	return snap, nil
}
