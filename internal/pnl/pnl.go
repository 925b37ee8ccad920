// Package pnl implements the profit-and-loss model for option legs,
// covering both settled (realized) and mark-to-model (unrealized) legs.
package pnl

import (
	"time"

	"options-journal/internal/errors"
	"options-journal/internal/models"
	"options-journal/internal/pricing"
)

// DirectionalPoints applies the single sign convention for P&L in
// points: a long position profits when price rises, a short position
// profits when price falls. Every P&L computation in the engine routes
// through this function; call sites must not re-derive the sign.
func DirectionalPoints(openPrice, currentPrice float64, quantity int) float64 {
	if quantity > 0 {
		return (currentPrice - openPrice) * float64(quantity)
	}
	return (openPrice - currentPrice) * float64(-quantity)
}

// MarkPrice returns the current model price of an open leg: the
// Black-Scholes value at the leg's stored implied volatility, or
// intrinsic value once the contract has expired.
func MarkPrice(leg models.Leg, market models.MarketSnapshot, now time.Time) (float64, error) {
	q, err := pricing.Price(pricing.PriceInput{
		Spot:         market.Spot,
		Strike:       leg.Contract.Strike,
		TimeToExpiry: pricing.YearsToExpiry(now, leg.Contract.Expiry),
		Rate:         market.RateFraction(),
		VolPct:       leg.ImpliedVolPct,
		Kind:         leg.Contract.Kind,
	})
	if err != nil {
		return 0, err
	}
	return q.Price, nil
}

// LegPnl computes the P&L breakdown of a single leg. Closed legs
// settle against their recorded close price; open legs are marked to
// model at the supplied market snapshot.
//
// Commission is charged in full (opening plus closing) for open legs
// too: unrealized P&L reserves the eventual exit cost up front.
func LegPnl(leg models.Leg, market models.MarketSnapshot, multiplier int, now time.Time) (models.PnlBreakdown, error) {
	if err := market.Validate(); err != nil {
		return models.PnlBreakdown{}, errors.NewInputError("market", market.Spot, err.Error())
	}

	var current float64
	if leg.IsClosed() {
		current = *leg.ClosePrice
	} else {
		price, err := MarkPrice(leg, market, now)
		if err != nil {
			return models.PnlBreakdown{}, err
		}
		current = price
	}

	points := DirectionalPoints(leg.OpenPrice, current, leg.Quantity)
	gross := points * float64(multiplier)
	commission := (leg.OpenCommission + leg.CloseCommission) * float64(leg.AbsQuantity())

	return models.PnlBreakdown{
		PointsPnl:      points,
		GrossPnl:       gross,
		CommissionCost: commission,
		NetPnl:         gross - commission,
		IsClosed:       leg.IsClosed(),
	}, nil
}

// CheckLegConsistency reports the stored-record defect where CloseDate
// and ClosePrice disagree on whether the leg is closed. The engine keys
// strictly off ClosePrice; this helper lets the storage layer find and
// repair inconsistent rows.
func CheckLegConsistency(leg models.Leg) error {
	if leg.ClosePrice != nil && leg.CloseDate == nil {
		return errors.Wrap(errors.ErrInconsistentLeg, "close price without close date")
	}
	if leg.ClosePrice == nil && leg.CloseDate != nil {
		return errors.Wrap(errors.ErrInconsistentLeg, "close date without close price")
	}
	return nil
}
