package pricing

import (
	"math"

	"options-journal/internal/errors"
	"options-journal/internal/models"
)

const (
	ivSeedPct      = 20.0  // initial Newton guess
	ivMinPct       = 0.1   // bisection lower bracket
	ivMaxPct       = 500.0 // bisection upper bracket
	ivPriceTol     = 1e-4  // convergence tolerance on price, points
	ivMaxNewton    = 100
	ivMaxBisection = 200
	ivMinVega      = 1e-10 // below this Newton steps blow up
)

// ImpliedVol recovers the volatility percentage that reproduces the
// observed option price under Price. Newton-Raphson with the kernel's
// vega as the derivative, falling back to bisection when the step
// degenerates (deep ITM/OTM, very short time).
//
// Returns ErrPriceUnattainable when no volatility can reach the target
// price, and a ConvergenceError when the iteration budget runs out.
func ImpliedVol(target, spot, strike, timeToExpiry, rate float64, kind models.OptionKind) (float64, error) {
	if err := kind.Validate(); err != nil {
		return 0, errors.NewInputError("kind", kind, err.Error())
	}
	if spot <= 0 {
		return 0, errors.NewInputError("spot", spot, "must be positive")
	}
	if strike <= 0 {
		return 0, errors.NewInputError("strike", strike, "must be positive")
	}
	if timeToExpiry <= 0 {
		return 0, errors.NewInputError("timeToExpiry", timeToExpiry, "must be positive to solve for volatility")
	}
	if timeToExpiry < MinTimeToExpiry {
		timeToExpiry = MinTimeToExpiry
	}

	if err := checkAttainable(target, spot, strike, timeToExpiry, rate, kind); err != nil {
		return 0, err
	}

	priceAt := func(volPct float64) (Quote, error) {
		return Price(PriceInput{
			Spot:         spot,
			Strike:       strike,
			TimeToExpiry: timeToExpiry,
			Rate:         rate,
			VolPct:       volPct,
			Kind:         kind,
		})
	}

	// Newton-Raphson in percentage space: vega is already the price
	// derivative per 1 vol point, so no extra rescaling is needed.
	sigma := ivSeedPct
	for i := 0; i < ivMaxNewton; i++ {
		q, err := priceAt(sigma)
		if err != nil {
			return 0, err
		}
		diff := q.Price - target
		if math.Abs(diff) < ivPriceTol {
			return sigma, nil
		}
		if q.Greeks.Vega < ivMinVega {
			break
		}
		next := sigma - diff/q.Greeks.Vega
		if next <= ivMinPct || next >= ivMaxPct || math.IsNaN(next) {
			break
		}
		sigma = next
	}

	return bisectVol(target, priceAt)
}

// checkAttainable rejects targets outside the no-arbitrage price range,
// which no volatility can reproduce.
func checkAttainable(target, spot, strike, t, rate float64, kind models.OptionKind) error {
	discount := math.Exp(-rate * t)
	var lower, upper float64
	if kind.IsCall() {
		lower = math.Max(0, spot-strike*discount)
		upper = spot
	} else {
		lower = math.Max(0, strike*discount-spot)
		upper = strike * discount
	}
	if target < lower-ivPriceTol || target > upper+ivPriceTol {
		return errors.Wrapf(errors.ErrPriceUnattainable,
			"target %.4f outside [%.4f, %.4f]", target, lower, upper)
	}
	return nil
}

// bisectVol brackets the volatility over [ivMinPct, ivMaxPct]. Option
// price is monotonically increasing in volatility, so plain bisection
// is reliable where Newton is not.
func bisectVol(target float64, priceAt func(float64) (Quote, error)) (float64, error) {
	lo, hi := ivMinPct, ivMaxPct
	var mid, diff float64
	for i := 0; i < ivMaxBisection; i++ {
		mid = 0.5 * (lo + hi)
		q, err := priceAt(mid)
		if err != nil {
			return 0, err
		}
		diff = q.Price - target
		if math.Abs(diff) < ivPriceTol {
			return mid, nil
		}
		if diff > 0 {
			hi = mid
		} else {
			lo = mid
		}
	}
	return 0, errors.NewConvergenceError("implied volatility bisection", ivMaxBisection, mid, diff)
}
