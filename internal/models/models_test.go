package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLeg() Leg {
	return Leg{
		Contract: OptionContract{
			Kind:   OptionKindCall,
			Strike: 21000,
			Expiry: time.Date(2025, 6, 26, 0, 0, 0, 0, time.UTC),
		},
		Quantity:      1,
		OpenPrice:     150,
		OpenDate:      time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		ImpliedVolPct: 15,
	}
}

func TestOptionKindValidate(t *testing.T) {
	assert.NoError(t, OptionKindCall.Validate())
	assert.NoError(t, OptionKindPut.Validate())
	assert.Error(t, OptionKind("CALL").Validate())
	assert.Error(t, OptionKind("").Validate())
}

func TestLegValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Leg)
		ok     bool
	}{
		{"valid", func(*Leg) {}, true},
		{"short leg", func(l *Leg) { l.Quantity = -2 }, true},
		{"zero quantity", func(l *Leg) { l.Quantity = 0 }, false},
		{"zero open price", func(l *Leg) { l.OpenPrice = 0 }, false},
		{"zero vol", func(l *Leg) { l.ImpliedVolPct = 0 }, false},
		{"negative commission", func(l *Leg) { l.OpenCommission = -1 }, false},
		{"bad kind", func(l *Leg) { l.Contract.Kind = "X" }, false},
		{"zero strike", func(l *Leg) { l.Contract.Strike = 0 }, false},
		{"zero expiry", func(l *Leg) { l.Contract.Expiry = time.Time{} }, false},
		{"non-positive close price", func(l *Leg) { v := 0.0; l.ClosePrice = &v }, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			leg := validLeg()
			tc.mutate(&leg)
			err := leg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLegIsClosed(t *testing.T) {
	leg := validLeg()
	assert.False(t, leg.IsClosed())

	// Only ClosePrice decides: a stray CloseDate leaves the leg open.
	now := time.Now()
	leg.CloseDate = &now
	assert.False(t, leg.IsClosed())

	price := 80.0
	leg.ClosePrice = &price
	assert.True(t, leg.IsClosed())
}

func TestLegDirectionHelpers(t *testing.T) {
	leg := validLeg()
	assert.True(t, leg.IsLong())
	assert.Equal(t, 1, leg.AbsQuantity())

	leg.Quantity = -3
	assert.False(t, leg.IsLong())
	assert.Equal(t, 3, leg.AbsQuantity())
}

func TestMarketSnapshot(t *testing.T) {
	m := MarketSnapshot{Spot: 21000, RiskFreeRatePct: 7}
	assert.NoError(t, m.Validate())
	assert.InDelta(t, 0.07, m.RateFraction(), 1e-12)

	assert.Error(t, MarketSnapshot{Spot: 0}.Validate())
	assert.Error(t, MarketSnapshot{Spot: -100}.Validate())
}

func TestStructureRealizedPnlValue(t *testing.T) {
	t.Run("parses stored text", func(t *testing.T) {
		s := Structure{RealizedPnl: "-1234.50"}
		v, err := s.RealizedPnlValue()
		require.NoError(t, err)
		assert.Equal(t, -1234.5, v)
	})

	t.Run("empty means zero", func(t *testing.T) {
		v, err := Structure{}.RealizedPnlValue()
		require.NoError(t, err)
		assert.Equal(t, 0.0, v)
	})

	t.Run("garbage errors", func(t *testing.T) {
		_, err := Structure{RealizedPnl: "n/a"}.RealizedPnlValue()
		assert.Error(t, err)
	})
}

func TestStructureOpenLegs(t *testing.T) {
	closed := validLeg()
	price := 80.0
	closed.ClosePrice = &price

	s := Structure{
		Status: StructureActive,
		Legs:   []Leg{validLeg(), closed, validLeg()},
	}
	assert.Len(t, s.OpenLegs(), 2)
	assert.True(t, s.IsActive())

	s.Status = StructureClosed
	assert.False(t, s.IsActive())
}
