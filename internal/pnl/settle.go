package pnl

import (
	"time"

	"options-journal/internal/models"
)

// Settlement is the engine's output for an Active -> Closed structure
// transition. The storage layer persists it; the engine does not.
type Settlement struct {
	// ClosePrices is aligned with the structure's legs: the recorded
	// close price for legs that were already settled, the model settle
	// price for legs settled by this transition.
	ClosePrices []float64
	// RealizedPnl is the total net P&L of the structure once every leg
	// is settled at those prices.
	RealizedPnl float64
	// ClosingDate is the settlement timestamp applied to every leg
	// settled by this transition.
	ClosingDate time.Time
}

// SettleStructure computes the settlement of every open leg of a
// structure at the given market snapshot. Already-closed legs keep
// their recorded close price. The caller owns the status transition;
// this function only prices it.
func SettleStructure(s models.Structure, market models.MarketSnapshot, now time.Time) (Settlement, error) {
	settlement := Settlement{
		ClosePrices: make([]float64, len(s.Legs)),
		ClosingDate: now,
	}

	for i, leg := range s.Legs {
		if leg.IsClosed() {
			settlement.ClosePrices[i] = *leg.ClosePrice
		} else {
			price, err := MarkPrice(leg, market, now)
			if err != nil {
				return Settlement{}, err
			}
			settlement.ClosePrices[i] = price
		}

		points := DirectionalPoints(leg.OpenPrice, settlement.ClosePrices[i], leg.Quantity)
		gross := points * float64(s.Multiplier)
		commission := (leg.OpenCommission + leg.CloseCommission) * float64(leg.AbsQuantity())
		settlement.RealizedPnl += gross - commission
	}

	return settlement, nil
}
