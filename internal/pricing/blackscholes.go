package pricing

import (
	"math"

	"options-journal/internal/errors"
	"options-journal/internal/models"
)

// PriceInput carries the inputs for a single option valuation.
//
// Units are part of the contract: Rate is a decimal fraction (0.07 for
// 7%) while VolPct is a percentage (15.0 for 15%). The conversion from
// percentage happens exactly once, inside Price.
type PriceInput struct {
	Spot         float64
	Strike       float64
	TimeToExpiry float64 // years
	Rate         float64 // decimal fraction
	VolPct       float64 // percentage
	Kind         models.OptionKind
}

// Quote is the output of a single valuation.
//
// Greeks follow the journal's display conventions: theta is the decay
// per calendar day, vega the price change per 1 volatility point, rho
// the price change per 1 rate point. Delta and gamma are per point of
// spot.
type Quote struct {
	Price  float64
	Greeks models.Greeks
}

// normCDF is the standard normal cumulative distribution function.
func normCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

// normPDF is the standard normal density.
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2.0*math.Pi)
}

func (in PriceInput) validate() error {
	if err := in.Kind.Validate(); err != nil {
		return errors.NewInputError("kind", in.Kind, err.Error())
	}
	if in.Spot <= 0 {
		return errors.NewInputError("spot", in.Spot, "must be positive")
	}
	if in.Strike <= 0 {
		return errors.NewInputError("strike", in.Strike, "must be positive")
	}
	if in.VolPct <= 0 {
		return errors.NewInputError("volPct", in.VolPct, "must be positive")
	}
	return nil
}

// Intrinsic returns the exercise value of an option at the given spot.
func Intrinsic(spot, strike float64, kind models.OptionKind) float64 {
	if kind.IsCall() {
		return math.Max(0, spot-strike)
	}
	return math.Max(0, strike-spot)
}

// expiredQuote is the explicit zero-time branch. The closed-form
// formula divides by sqrt(t) and is undefined at t=0, so expiry is
// handled here rather than as a degenerate limit.
func expiredQuote(spot, strike float64, kind models.OptionKind) Quote {
	q := Quote{Price: Intrinsic(spot, strike, kind)}
	if kind.IsCall() {
		if spot > strike {
			q.Greeks.Delta = 1
		}
	} else {
		if spot < strike {
			q.Greeks.Delta = -1
		}
	}
	return q
}

// Price values a single option under Black-Scholes with no dividend
// yield. At or past expiry it returns intrinsic value with boundary
// Greeks. Non-positive spot, strike or volatility is rejected rather
// than clamped.
func Price(in PriceInput) (Quote, error) {
	if err := in.validate(); err != nil {
		return Quote{}, err
	}

	if in.TimeToExpiry <= 0 {
		return expiredQuote(in.Spot, in.Strike, in.Kind), nil
	}

	sigma := in.VolPct / 100.0
	t := in.TimeToExpiry
	sqrtT := math.Sqrt(t)
	discount := math.Exp(-in.Rate * t)

	d1 := (math.Log(in.Spot/in.Strike) + (in.Rate+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	var q Quote
	if in.Kind.IsCall() {
		q.Price = in.Spot*normCDF(d1) - in.Strike*discount*normCDF(d2)
		q.Greeks.Delta = normCDF(d1)
		q.Greeks.Theta = -(in.Spot*normPDF(d1)*sigma)/(2.0*sqrtT) - in.Rate*in.Strike*discount*normCDF(d2)
		q.Greeks.Rho = in.Strike * t * discount * normCDF(d2)
	} else {
		q.Price = in.Strike*discount*normCDF(-d2) - in.Spot*normCDF(-d1)
		q.Greeks.Delta = normCDF(d1) - 1
		q.Greeks.Theta = -(in.Spot*normPDF(d1)*sigma)/(2.0*sqrtT) + in.Rate*in.Strike*discount*normCDF(-d2)
		q.Greeks.Rho = -in.Strike * t * discount * normCDF(-d2)
	}

	q.Greeks.Gamma = normPDF(d1) / (in.Spot * sigma * sqrtT)

	// Rescale to display conventions: theta per day, vega per vol
	// point, rho per rate point.
	q.Greeks.Theta /= daysPerYear
	q.Greeks.Vega = in.Spot * normPDF(d1) * sqrtT / 100.0
	q.Greeks.Rho /= 100.0

	return q, nil
}
