// Package marketdata supplies the current market snapshot consumed by
// the analytics engine. Snapshots are fetched fresh on demand; nothing
// here caches market state.
package marketdata

import (
	"context"

	"options-journal/internal/models"
)

// Provider returns the current market snapshot for the configured index.
type Provider interface {
	Snapshot(ctx context.Context) (models.MarketSnapshot, error)
}

// StaticProvider returns a fixed snapshot, used for offline analysis
// and for overriding the spot from flags or config.
type StaticProvider struct {
	Spot            float64
	RiskFreeRatePct float64
}

// Snapshot returns the fixed snapshot.
func (p StaticProvider) Snapshot(ctx context.Context) (models.MarketSnapshot, error) {
	snap := models.MarketSnapshot{
		Spot:            p.Spot,
		RiskFreeRatePct: p.RiskFreeRatePct,
	}
	if err := snap.Validate(); err != nil {
		return models.MarketSnapshot{}, err
	}
	return snap, nil
}
