package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-journal/internal/errors"
	"options-journal/internal/models"
)

var testNow = time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)

func testMarket() models.MarketSnapshot {
	return models.MarketSnapshot{Spot: 21000, RiskFreeRatePct: 7}
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleStructure() *models.Structure {
	return &models.Structure{
		Name:       "short strangle",
		Multiplier: 50,
		Status:     models.StructureActive,
		Legs: []models.Leg{
			{
				Contract: models.OptionContract{
					Kind:   models.OptionKindCall,
					Strike: 21500,
					Expiry: testNow.AddDate(0, 1, 0),
				},
				Quantity:        -1,
				OpenPrice:       120,
				OpenDate:        testNow.AddDate(0, 0, -3),
				ImpliedVolPct:   14,
				OpenCommission:  20,
				CloseCommission: 20,
			},
			{
				Contract: models.OptionContract{
					Kind:   models.OptionKindPut,
					Strike: 20500,
					Expiry: testNow.AddDate(0, 1, 0),
				},
				Quantity:        -1,
				OpenPrice:       130,
				OpenDate:        testNow.AddDate(0, 0, -3),
				ImpliedVolPct:   16,
				OpenCommission:  20,
				CloseCommission: 20,
			},
		},
	}
}

func TestSaveAndGetStructure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st := sampleStructure()
	require.NoError(t, s.SaveStructure(ctx, st))
	require.NotZero(t, st.ID)

	got, err := s.GetStructure(ctx, st.ID)
	require.NoError(t, err)

	assert.Equal(t, st.Name, got.Name)
	assert.Equal(t, st.Multiplier, got.Multiplier)
	assert.Equal(t, models.StructureActive, got.Status)
	require.Len(t, got.Legs, 2)

	// Legs come back in insertion order.
	assert.Equal(t, models.OptionKindCall, got.Legs[0].Contract.Kind)
	assert.Equal(t, models.OptionKindPut, got.Legs[1].Contract.Kind)
	assert.Equal(t, -1, got.Legs[0].Quantity)
	assert.Equal(t, 120.0, got.Legs[0].OpenPrice)
	assert.Equal(t, 14.0, got.Legs[0].ImpliedVolPct)
	assert.Nil(t, got.Legs[0].ClosePrice)
	assert.True(t, got.Legs[0].Contract.Expiry.Equal(st.Legs[0].Contract.Expiry))
}

func TestSaveStructure_RejectsInvalidLeg(t *testing.T) {
	s := newTestStore(t)

	st := sampleStructure()
	st.Legs[0].Quantity = 0

	err := s.SaveStructure(context.Background(), st)
	require.Error(t, err)
}

func TestSaveStructure_UpdateReplacesLegs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st := sampleStructure()
	require.NoError(t, s.SaveStructure(ctx, st))
	id := st.ID

	st.Legs = st.Legs[:1]
	st.Name = "short call"
	require.NoError(t, s.SaveStructure(ctx, st))
	assert.Equal(t, id, st.ID)

	got, err := s.GetStructure(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "short call", got.Name)
	assert.Len(t, got.Legs, 1)
}

func TestGetStructure_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetStructure(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStructureNotFound))
}

func TestListStructures(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := sampleStructure()
	first.Name = "iron condor"
	require.NoError(t, s.SaveStructure(ctx, first))

	second := sampleStructure()
	require.NoError(t, s.SaveStructure(ctx, second))

	t.Run("all", func(t *testing.T) {
		all, err := s.ListStructures(ctx, StructureFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("name filter", func(t *testing.T) {
		got, err := s.ListStructures(ctx, StructureFilter{Name: "condor"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "iron condor", got[0].Name)
	})

	t.Run("status filter", func(t *testing.T) {
		_, err := s.CloseStructure(ctx, first.ID, testMarket(), testNow)
		require.NoError(t, err)

		active, err := s.ListStructures(ctx, StructureFilter{Status: models.StructureActive})
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, second.ID, active[0].ID)

		closed, err := s.ListStructures(ctx, StructureFilter{Status: models.StructureClosed})
		require.NoError(t, err)
		require.Len(t, closed, 1)
		assert.Equal(t, first.ID, closed[0].ID)
	})

	t.Run("limit", func(t *testing.T) {
		got, err := s.ListStructures(ctx, StructureFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

func TestDeleteStructure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st := sampleStructure()
	require.NoError(t, s.SaveStructure(ctx, st))
	require.NoError(t, s.DeleteStructure(ctx, st.ID))

	_, err := s.GetStructure(ctx, st.ID)
	assert.True(t, errors.Is(err, errors.ErrStructureNotFound))

	err = s.DeleteStructure(ctx, st.ID)
	assert.True(t, errors.Is(err, errors.ErrStructureNotFound))
}

func TestCloseStructure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st := sampleStructure()
	require.NoError(t, s.SaveStructure(ctx, st))

	settlement, err := s.CloseStructure(ctx, st.ID, testMarket(), testNow)
	require.NoError(t, err)
	require.Len(t, settlement.ClosePrices, 2)
	assert.Greater(t, settlement.ClosePrices[0], 0.0)

	got, err := s.GetStructure(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StructureClosed, got.Status)
	require.NotNil(t, got.ClosingDate)
	for i, leg := range got.Legs {
		require.NotNil(t, leg.ClosePrice, "leg %d", i)
		require.NotNil(t, leg.CloseDate, "leg %d", i)
		assert.InDelta(t, settlement.ClosePrices[i], *leg.ClosePrice, 1e-9)
	}

	// Realized P&L is cached as formatted text and parses back to the
	// settlement amount.
	realized, err := got.RealizedPnlValue()
	require.NoError(t, err)
	assert.InDelta(t, settlement.RealizedPnl, realized, 0.01)
}

func TestCloseStructure_AlreadyClosed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st := sampleStructure()
	require.NoError(t, s.SaveStructure(ctx, st))
	_, err := s.CloseStructure(ctx, st.ID, testMarket(), testNow)
	require.NoError(t, err)

	_, err = s.CloseStructure(ctx, st.ID, testMarket(), testNow)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDomainViolation))

	var te *errors.TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, st.ID, te.StructureID)
}

func TestCloseStructure_PreservesManuallyClosedLegs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st := sampleStructure()
	closePrice := 40.0
	closeDate := testNow.AddDate(0, 0, -1)
	st.Legs[0].ClosePrice = &closePrice
	st.Legs[0].CloseDate = &closeDate
	require.NoError(t, s.SaveStructure(ctx, st))

	_, err := s.CloseStructure(ctx, st.ID, testMarket(), testNow)
	require.NoError(t, err)

	got, err := s.GetStructure(ctx, st.ID)
	require.NoError(t, err)
	// The already-settled leg keeps its recorded exit.
	require.NotNil(t, got.Legs[0].ClosePrice)
	assert.Equal(t, 40.0, *got.Legs[0].ClosePrice)
	require.NotNil(t, got.Legs[0].CloseDate)
	assert.True(t, got.Legs[0].CloseDate.Equal(closeDate))
}

func TestReopenStructure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st := sampleStructure()
	require.NoError(t, s.SaveStructure(ctx, st))

	t.Run("reopening active is a domain violation", func(t *testing.T) {
		err := s.ReopenStructure(ctx, st.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrDomainViolation))
	})

	_, err := s.CloseStructure(ctx, st.ID, testMarket(), testNow)
	require.NoError(t, err)

	t.Run("reopen clears close fields", func(t *testing.T) {
		require.NoError(t, s.ReopenStructure(ctx, st.ID))

		got, err := s.GetStructure(ctx, st.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StructureActive, got.Status)
		assert.Nil(t, got.ClosingDate)
		assert.Empty(t, got.RealizedPnl)
		for i, leg := range got.Legs {
			assert.Nil(t, leg.ClosePrice, "leg %d", i)
			assert.Nil(t, leg.CloseDate, "leg %d", i)
		}
	})
}
