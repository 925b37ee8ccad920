package pnl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-journal/internal/errors"
	"options-journal/internal/models"
)

var testNow = time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)

func testMarket() models.MarketSnapshot {
	return models.MarketSnapshot{Spot: 20000, RiskFreeRatePct: 7}
}

func floatPtr(v float64) *float64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func testLeg(qty int, openPrice float64) models.Leg {
	return models.Leg{
		Contract: models.OptionContract{
			Kind:   models.OptionKindCall,
			Strike: 21000,
			Expiry: testNow.AddDate(0, 1, 0),
		},
		Quantity:      qty,
		OpenPrice:     openPrice,
		OpenDate:      testNow.AddDate(0, 0, -10),
		ImpliedVolPct: 15,
	}
}

func TestDirectionalPoints(t *testing.T) {
	tests := []struct {
		name    string
		open    float64
		current float64
		qty     int
		want    float64
	}{
		{"long profits on rise", 100, 300, 1, 200},
		{"short loses on rise", 100, 300, -1, -200},
		{"long loses on fall", 300, 100, 1, -200},
		{"short profits on fall", 300, 100, -1, 200},
		{"quantity scales", 100, 150, 3, 150},
		{"short quantity scales", 100, 150, -2, -100},
		{"flat", 250, 250, 5, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DirectionalPoints(tc.open, tc.current, tc.qty))
		})
	}
}

func TestLegPnl_ClosedLeg(t *testing.T) {
	leg := testLeg(1, 100)
	leg.ClosePrice = floatPtr(300)
	leg.CloseDate = timePtr(testNow.AddDate(0, 0, -1))

	got, err := LegPnl(leg, testMarket(), 50, testNow)
	require.NoError(t, err)

	assert.True(t, got.IsClosed)
	assert.Equal(t, 200.0, got.PointsPnl)
	assert.Equal(t, 10000.0, got.GrossPnl)
	assert.Equal(t, 0.0, got.CommissionCost)
	assert.Equal(t, 10000.0, got.NetPnl)
}

func TestLegPnl_ClosedShortLeg(t *testing.T) {
	leg := testLeg(-1, 100)
	leg.ClosePrice = floatPtr(300)
	leg.CloseDate = timePtr(testNow.AddDate(0, 0, -1))

	got, err := LegPnl(leg, testMarket(), 50, testNow)
	require.NoError(t, err)

	assert.Equal(t, -200.0, got.PointsPnl)
	assert.Equal(t, -10000.0, got.GrossPnl)
}

func TestLegPnl_CommissionChargedInFullForOpenLegs(t *testing.T) {
	leg := testLeg(2, 150)
	leg.OpenCommission = 20
	leg.CloseCommission = 20

	got, err := LegPnl(leg, testMarket(), 50, testNow)
	require.NoError(t, err)

	assert.False(t, got.IsClosed)
	// Both sides of commission are reserved even though the leg is
	// still open: (20+20) * |2|.
	assert.Equal(t, 80.0, got.CommissionCost)
	assert.Equal(t, got.GrossPnl-80, got.NetPnl)
}

func TestLegPnl_OpenLegMarksToModel(t *testing.T) {
	leg := testLeg(1, 100)

	got, err := LegPnl(leg, testMarket(), 50, testNow)
	require.NoError(t, err)

	mark, err := MarkPrice(leg, testMarket(), testNow)
	require.NoError(t, err)
	assert.Greater(t, mark, 0.0)
	assert.InDelta(t, (mark-100)*50, got.GrossPnl, 1e-9)
}

func TestMarkPrice_ExpiredLegUsesIntrinsic(t *testing.T) {
	t.Run("ITM call", func(t *testing.T) {
		leg := testLeg(1, 100)
		leg.Contract.Strike = 19500
		leg.Contract.Expiry = testNow.AddDate(0, 0, -3)

		price, err := MarkPrice(leg, testMarket(), testNow)
		require.NoError(t, err)
		assert.Equal(t, 500.0, price)
	})

	t.Run("OTM call", func(t *testing.T) {
		leg := testLeg(1, 100)
		leg.Contract.Expiry = testNow.AddDate(0, 0, -3)

		price, err := MarkPrice(leg, testMarket(), testNow)
		require.NoError(t, err)
		assert.Equal(t, 0.0, price)
	})
}

func TestLegPnl_InvalidMarket(t *testing.T) {
	leg := testLeg(1, 100)
	_, err := LegPnl(leg, models.MarketSnapshot{Spot: 0, RiskFreeRatePct: 7}, 50, testNow)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestCheckLegConsistency(t *testing.T) {
	t.Run("open leg is consistent", func(t *testing.T) {
		assert.NoError(t, CheckLegConsistency(testLeg(1, 100)))
	})

	t.Run("fully closed leg is consistent", func(t *testing.T) {
		leg := testLeg(1, 100)
		leg.ClosePrice = floatPtr(50)
		leg.CloseDate = timePtr(testNow)
		assert.NoError(t, CheckLegConsistency(leg))
	})

	t.Run("price without date", func(t *testing.T) {
		leg := testLeg(1, 100)
		leg.ClosePrice = floatPtr(50)
		err := CheckLegConsistency(leg)
		assert.True(t, errors.Is(err, errors.ErrInconsistentLeg))
	})

	t.Run("date without price", func(t *testing.T) {
		leg := testLeg(1, 100)
		leg.CloseDate = timePtr(testNow)
		err := CheckLegConsistency(leg)
		assert.True(t, errors.Is(err, errors.ErrInconsistentLeg))
	})

	t.Run("date without price still counts as open", func(t *testing.T) {
		leg := testLeg(1, 100)
		leg.CloseDate = timePtr(testNow)
		assert.False(t, leg.IsClosed())
	})
}
