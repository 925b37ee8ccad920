// Package pricing implements closed-form option pricing, Greeks and the
// implied-volatility solver for index options.
package pricing

import "time"

// MinTimeToExpiry is roughly one hour expressed in years. It is the
// smallest time the solver will price with; anything shorter divides by
// near-zero in the Black-Scholes terms.
const MinTimeToExpiry = 1.0 / 365.0 / 24.0

// daysPerYear is the calendar-day convention used throughout.
const daysPerYear = 365.0

// utcDate truncates a timestamp to its calendar date in UTC. All expiry
// arithmetic runs on whole UTC days; mixing local time and UTC here
// produces off-by-one expiries.
func utcDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysToExpiry returns the whole calendar days between now and expiry.
// The result is negative once the expiry has passed; callers that need
// "has this genuinely expired" semantics should test this raw value.
func DaysToExpiry(now, expiry time.Time) float64 {
	return utcDate(expiry).Sub(utcDate(now)).Hours() / 24.0
}

// YearsToExpiry converts a calendar expiry into an annualized time
// fraction, floored at zero.
func YearsToExpiry(now, expiry time.Time) float64 {
	t := DaysToExpiry(now, expiry) / daysPerYear
	if t < 0 {
		return 0
	}
	return t
}
