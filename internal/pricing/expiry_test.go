package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestYearsToExpiry(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)

	t.Run("whole days divided by 365", func(t *testing.T) {
		expiry := time.Date(2026, 9, 24, 0, 0, 0, 0, time.UTC)
		assert.InDelta(t, 23.0/365.0, YearsToExpiry(now, expiry), 1e-12)
	})

	t.Run("same day is zero", func(t *testing.T) {
		expiry := time.Date(2026, 9, 1, 23, 59, 0, 0, time.UTC)
		assert.Equal(t, 0.0, YearsToExpiry(now, expiry))
	})

	t.Run("past expiry floors at zero", func(t *testing.T) {
		expiry := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, 0.0, YearsToExpiry(now, expiry))
	})

	t.Run("time of day does not shift the day count", func(t *testing.T) {
		expiry := time.Date(2026, 9, 24, 15, 30, 0, 0, time.UTC)
		early := time.Date(2026, 9, 1, 0, 1, 0, 0, time.UTC)
		late := time.Date(2026, 9, 1, 23, 59, 0, 0, time.UTC)
		assert.Equal(t, YearsToExpiry(early, expiry), YearsToExpiry(late, expiry))
	})

	t.Run("local timestamps resolve on their UTC date", func(t *testing.T) {
		ist := time.FixedZone("IST", 5*3600+1800)
		// 2026-09-02 03:00 IST is still 2026-09-01 in UTC.
		local := time.Date(2026, 9, 2, 3, 0, 0, 0, ist)
		expiry := time.Date(2026, 9, 24, 0, 0, 0, 0, time.UTC)
		assert.InDelta(t, 23.0/365.0, YearsToExpiry(local, expiry), 1e-12)
	})
}

func TestDaysToExpiry(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	t.Run("negative once expired", func(t *testing.T) {
		expiry := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, -3.0, DaysToExpiry(now, expiry))
	})

	t.Run("positive before expiry", func(t *testing.T) {
		expiry := time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, 7.0, DaysToExpiry(now, expiry))
	})
}

func TestMinTimeToExpiry(t *testing.T) {
	// Roughly one hour in years, strictly positive.
	assert.Greater(t, MinTimeToExpiry, 0.0)
	assert.InDelta(t, 1.0/8760.0, MinTimeToExpiry, 1e-12)
}
