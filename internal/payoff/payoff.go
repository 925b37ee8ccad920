// Package payoff samples leg P&L across a spot grid to produce the
// payoff curves used for charting: value at expiry and value today.
package payoff

import (
	"time"

	"options-journal/internal/errors"
	"options-journal/internal/models"
	"options-journal/internal/pnl"
	"options-journal/internal/pricing"
)

// DefaultSteps is the grid resolution when the caller does not choose one.
const DefaultSteps = 100

// Point is one sample of the payoff curve.
type Point struct {
	Spot        float64 `csv:"spot"`
	PnlAtExpiry float64 `csv:"pnl_at_expiry"`
	PnlToday    float64 `csv:"pnl_today"`
}

// SpotRange is an inclusive spot interval to sweep.
type SpotRange struct {
	Min float64
	Max float64
}

// Options controls the sweep. A nil Range selects the default policy:
// strikes of the open legs padded by max(half the strike span, 5% of
// spot), or spot +/-15% when no leg is open.
type Options struct {
	Range *SpotRange
	Steps int
}

// resolveRange applies the default range policy.
func resolveRange(legs []models.Leg, spot float64, opts Options) SpotRange {
	if opts.Range != nil {
		return *opts.Range
	}

	minStrike, maxStrike := 0.0, 0.0
	found := false
	for _, l := range legs {
		if l.IsClosed() {
			continue
		}
		if !found || l.Contract.Strike < minStrike {
			minStrike = l.Contract.Strike
		}
		if !found || l.Contract.Strike > maxStrike {
			maxStrike = l.Contract.Strike
		}
		found = true
	}

	if !found {
		return SpotRange{Min: spot * 0.85, Max: spot * 1.15}
	}

	buffer := 0.5 * (maxStrike - minStrike)
	if b := 0.05 * spot; b > buffer {
		buffer = b
	}
	return SpotRange{Min: minStrike - buffer, Max: maxStrike + buffer}
}

// realizedOffset is the constant contribution of settled legs, added to
// every sample of the curve.
func realizedOffset(legs []models.Leg, multiplier int) float64 {
	offset := 0.0
	for _, l := range legs {
		if !l.IsClosed() {
			continue
		}
		points := pnl.DirectionalPoints(l.OpenPrice, *l.ClosePrice, l.Quantity)
		commission := (l.OpenCommission + l.CloseCommission) * float64(l.AbsQuantity())
		offset += points*float64(multiplier) - commission
	}
	return offset
}

// sampleAt evaluates the two curves for one spot value: intrinsic value
// for the at-expiry curve, model value at the leg's own implied vol and
// remaining time for the today curve.
func sampleAt(legs []models.Leg, spot, rate float64, multiplier int, now time.Time) (atExpiry, today float64, err error) {
	for _, l := range legs {
		if l.IsClosed() {
			continue
		}

		intrinsic := pricing.Intrinsic(spot, l.Contract.Strike, l.Contract.Kind)
		atExpiry += pnl.DirectionalPoints(l.OpenPrice, intrinsic, l.Quantity) * float64(multiplier)

		q, perr := pricing.Price(pricing.PriceInput{
			Spot:         spot,
			Strike:       l.Contract.Strike,
			TimeToExpiry: pricing.YearsToExpiry(now, l.Contract.Expiry),
			Rate:         rate,
			VolPct:       l.ImpliedVolPct,
			Kind:         l.Contract.Kind,
		})
		if perr != nil {
			return 0, 0, perr
		}
		today += pnl.DirectionalPoints(l.OpenPrice, q.Price, l.Quantity) * float64(multiplier)
	}
	return atExpiry, today, nil
}

// Curve samples the payoff of the given legs over a spot grid of
// steps+1 evenly spaced points. Deterministic for fixed inputs.
func Curve(legs []models.Leg, market models.MarketSnapshot, multiplier int, opts Options, now time.Time) ([]Point, error) {
	if err := market.Validate(); err != nil {
		return nil, errors.NewInputError("market", market.Spot, err.Error())
	}
	steps := opts.Steps
	if steps <= 0 {
		steps = DefaultSteps
	}

	r := resolveRange(legs, market.Spot, opts)
	if r.Max <= r.Min {
		return nil, errors.NewInputError("range", r, "max must exceed min")
	}

	offset := realizedOffset(legs, multiplier)
	step := (r.Max - r.Min) / float64(steps)
	rate := market.RateFraction()

	points := make([]Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		spot := r.Min + float64(i)*step
		atExpiry, today, err := sampleAt(legs, spot, rate, multiplier, now)
		if err != nil {
			return nil, err
		}
		points = append(points, Point{
			Spot:        spot,
			PnlAtExpiry: atExpiry + offset,
			PnlToday:    today + offset,
		})
	}
	return points, nil
}

// ValueNow evaluates both curves once at the current spot, used as
// marker overlays on the chart.
func ValueNow(legs []models.Leg, market models.MarketSnapshot, multiplier int, now time.Time) (atExpiry, today float64, err error) {
	if err := market.Validate(); err != nil {
		return 0, 0, errors.NewInputError("market", market.Spot, err.Error())
	}
	offset := realizedOffset(legs, multiplier)
	atExpiry, today, err = sampleAt(legs, market.Spot, market.RateFraction(), multiplier, now)
	if err != nil {
		return 0, 0, err
	}
	return atExpiry + offset, today + offset, nil
}
