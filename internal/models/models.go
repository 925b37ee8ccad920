// Package models defines the domain types shared across the application.
package models

import (
	"fmt"
	"strconv"
	"time"
)

// OptionKind represents the side of an option contract.
type OptionKind string

const (
	OptionKindCall OptionKind = "CE"
	OptionKindPut  OptionKind = "PE"
)

// Validate checks that the option kind is one of the known values.
func (k OptionKind) Validate() error {
	if k != OptionKindCall && k != OptionKindPut {
		return fmt.Errorf("invalid option kind: %q", k)
	}
	return nil
}

// IsCall returns true for call contracts.
func (k OptionKind) IsCall() bool {
	return k == OptionKindCall
}

// OptionContract identifies a single option series on the index.
// Identity is structural: two contracts with the same kind, strike and
// expiry are the same contract.
type OptionContract struct {
	Kind   OptionKind
	Strike float64
	Expiry time.Time
}

// Validate checks the contract fields.
func (c OptionContract) Validate() error {
	if err := c.Kind.Validate(); err != nil {
		return err
	}
	if c.Strike <= 0 {
		return fmt.Errorf("strike must be positive, got %v", c.Strike)
	}
	if c.Expiry.IsZero() {
		return fmt.Errorf("expiry date is required")
	}
	return nil
}

// Leg is one option position within a structure. Positive quantity is
// long, negative is short; the magnitude is the contract count.
//
// A leg is closed iff ClosePrice is set. CloseDate should accompany
// ClosePrice but stored records are not guaranteed to be consistent, so
// nothing besides ClosePrice may be used to decide open vs closed.
type Leg struct {
	Contract        OptionContract
	Quantity        int
	OpenPrice       float64 // points
	OpenDate        time.Time
	ClosePrice      *float64 // points, nil while open
	CloseDate       *time.Time
	ImpliedVolPct   float64 // e.g. 15.0 for 15%
	OpenCommission  float64 // per contract
	CloseCommission float64 // per contract
}

// IsClosed reports whether the leg has been settled.
func (l Leg) IsClosed() bool {
	return l.ClosePrice != nil
}

// IsLong reports whether the leg is a long position.
func (l Leg) IsLong() bool {
	return l.Quantity > 0
}

// AbsQuantity returns the contract count regardless of direction.
func (l Leg) AbsQuantity() int {
	if l.Quantity < 0 {
		return -l.Quantity
	}
	return l.Quantity
}

// Validate checks the leg fields at construction time.
func (l Leg) Validate() error {
	if err := l.Contract.Validate(); err != nil {
		return err
	}
	if l.Quantity == 0 {
		return fmt.Errorf("leg quantity must be non-zero")
	}
	if l.OpenPrice <= 0 {
		return fmt.Errorf("open price must be positive, got %v", l.OpenPrice)
	}
	if l.ImpliedVolPct <= 0 {
		return fmt.Errorf("implied volatility must be positive, got %v", l.ImpliedVolPct)
	}
	if l.OpenCommission < 0 || l.CloseCommission < 0 {
		return fmt.Errorf("commissions must be non-negative")
	}
	if l.ClosePrice != nil && *l.ClosePrice <= 0 {
		return fmt.Errorf("close price must be positive, got %v", *l.ClosePrice)
	}
	return nil
}

// MarketSnapshot carries the current market inputs for a computation.
// It is supplied fresh on every call; nothing caches it.
type MarketSnapshot struct {
	Spot            float64 // index spot price, points
	RiskFreeRatePct float64 // e.g. 7.0 for 7%
}

// RateFraction returns the risk-free rate as a decimal fraction.
func (m MarketSnapshot) RateFraction() float64 {
	return m.RiskFreeRatePct / 100.0
}

// Validate checks the snapshot fields.
func (m MarketSnapshot) Validate() error {
	if m.Spot <= 0 {
		return fmt.Errorf("spot price must be positive, got %v", m.Spot)
	}
	return nil
}

// StructureStatus represents the lifecycle state of a structure.
type StructureStatus string

const (
	StructureActive StructureStatus = "ACTIVE"
	StructureClosed StructureStatus = "CLOSED"
)

// Structure is a named group of legs traded as one strategy, with a
// monetary multiplier (currency per index point per contract).
type Structure struct {
	ID          int64
	Name        string
	Legs        []Leg
	Multiplier  int
	Status      StructureStatus
	ClosingDate *time.Time
	// RealizedPnl is the cached settled P&L of a closed structure. The
	// storage layer persists it as text, so it is kept as a string here
	// and parsed on demand.
	RealizedPnl string
	CreatedAt   time.Time
}

// IsActive reports whether the structure is still open.
func (s Structure) IsActive() bool {
	return s.Status == StructureActive
}

// RealizedPnlValue parses the cached realized P&L. Returns 0 for an
// empty value.
func (s Structure) RealizedPnlValue() (float64, error) {
	if s.RealizedPnl == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s.RealizedPnl, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing realized pnl %q: %w", s.RealizedPnl, err)
	}
	return v, nil
}

// OpenLegs returns the legs that have not been settled yet.
func (s Structure) OpenLegs() []Leg {
	var open []Leg
	for _, l := range s.Legs {
		if !l.IsClosed() {
			open = append(open, l)
		}
	}
	return open
}

// Greeks holds option price sensitivities. Values are per contract in
// index points unless a caller has explicitly monetized them.
type Greeks struct {
	Delta float64
	Gamma float64
	Theta float64 // per calendar day
	Vega  float64 // per 1 vol point
	Rho   float64 // per 1 rate point
}

// PnlBreakdown is the P&L of a leg or an aggregate of legs.
type PnlBreakdown struct {
	PointsPnl      float64 // unmonetized, index points
	GrossPnl       float64 // PointsPnl * multiplier
	CommissionCost float64
	NetPnl         float64 // GrossPnl - CommissionCost
	IsClosed       bool
}

// EquityPoint is one sample of the portfolio equity curve. Derived for
// charting, never persisted.
type EquityPoint struct {
	Label    string  `csv:"label"`
	Equity   float64 `csv:"equity"`
	Drawdown float64 `csv:"drawdown"` // <= 0, distance below running peak
}
