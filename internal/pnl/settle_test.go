package pnl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-journal/internal/models"
)

func TestSettleStructure(t *testing.T) {
	open := testLeg(-1, 150)
	open.OpenCommission = 20
	open.CloseCommission = 20

	closed := testLeg(1, 100)
	closed.ClosePrice = floatPtr(300)
	closed.CloseDate = timePtr(testNow.AddDate(0, 0, -1))

	st := models.Structure{
		Name:       "mixed",
		Multiplier: 50,
		Status:     models.StructureActive,
		Legs:       []models.Leg{open, closed},
	}

	settlement, err := SettleStructure(st, testMarket(), testNow)
	require.NoError(t, err)
	require.Len(t, settlement.ClosePrices, 2)
	assert.Equal(t, testNow, settlement.ClosingDate)

	// The already-closed leg keeps its recorded exit.
	assert.Equal(t, 300.0, settlement.ClosePrices[1])

	// The open leg settles at its model mark.
	mark, err := MarkPrice(open, testMarket(), testNow)
	require.NoError(t, err)
	assert.InDelta(t, mark, settlement.ClosePrices[0], 1e-9)

	wantOpen := (150-mark)*50 - 40
	wantClosed := (300 - 100) * 50.0
	assert.InDelta(t, wantOpen+wantClosed, settlement.RealizedPnl, 1e-9)
}

func TestSettleStructure_InvalidMarket(t *testing.T) {
	st := models.Structure{
		Name:       "bad market",
		Multiplier: 50,
		Status:     models.StructureActive,
		Legs:       []models.Leg{testLeg(1, 100)},
	}
	_, err := SettleStructure(st, models.MarketSnapshot{}, testNow)
	require.Error(t, err)
}
