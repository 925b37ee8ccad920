// Package portfolio aggregates leg-level analytics across structures:
// portfolio Greeks, unrealized P&L, the equity curve and trade
// statistics.
package portfolio

import (
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"options-journal/internal/errors"
	"options-journal/internal/models"
	"options-journal/internal/pnl"
	"options-journal/internal/pricing"
)

// TradeStats summarizes the closed structures of the journal.
type TradeStats struct {
	TotalNetPnl  float64
	ProfitFactor float64 // +Inf when there are wins and no losses
	WinRate      float64 // fraction in [0, 1]
	AvgWin       float64
	AvgLoss      float64
	MaxDrawdown  float64 // <= 0
	Trades       int
}

// TotalGreeks sums per-leg Greeks over the open legs of every active
// structure, weighted by signed quantity. Theta and vega are monetized
// by each structure's multiplier before the cross-structure sum; delta
// and gamma remain in points per contract.
func TotalGreeks(structures []models.Structure, market models.MarketSnapshot, now time.Time) (models.Greeks, error) {
	if err := market.Validate(); err != nil {
		return models.Greeks{}, errors.NewInputError("market", market.Spot, err.Error())
	}

	var total models.Greeks
	for _, s := range structures {
		if !s.IsActive() {
			continue
		}
		for _, leg := range s.OpenLegs() {
			q, err := pricing.Price(pricing.PriceInput{
				Spot:         market.Spot,
				Strike:       leg.Contract.Strike,
				TimeToExpiry: pricing.YearsToExpiry(now, leg.Contract.Expiry),
				Rate:         market.RateFraction(),
				VolPct:       leg.ImpliedVolPct,
				Kind:         leg.Contract.Kind,
			})
			if err != nil {
				return models.Greeks{}, errors.Wrapf(err, "pricing leg of structure %q", s.Name)
			}

			qty := float64(leg.Quantity)
			mult := float64(s.Multiplier)
			total.Delta += q.Greeks.Delta * qty
			total.Gamma += q.Greeks.Gamma * qty
			total.Theta += q.Greeks.Theta * qty * mult
			total.Vega += q.Greeks.Vega * qty * mult
			total.Rho += q.Greeks.Rho * qty
		}
	}
	return total, nil
}

// TotalUnrealizedPnl sums the net P&L of every open leg of every active
// structure.
func TotalUnrealizedPnl(structures []models.Structure, market models.MarketSnapshot, now time.Time) (float64, error) {
	total := 0.0
	for _, s := range structures {
		if !s.IsActive() {
			continue
		}
		for _, leg := range s.OpenLegs() {
			breakdown, err := pnl.LegPnl(leg, market, s.Multiplier, now)
			if err != nil {
				return 0, errors.Wrapf(err, "marking leg of structure %q", s.Name)
			}
			total += breakdown.NetPnl
		}
	}
	return total, nil
}

// EquityCurve walks the closed structures in closing-date order and
// produces the cumulative equity series with running-peak drawdown. The
// series is prefixed with a synthetic point at the initial capital.
func EquityCurve(structures []models.Structure, initialCapital float64) ([]models.EquityPoint, error) {
	closed := make([]models.Structure, 0, len(structures))
	for _, s := range structures {
		if s.Status == models.StructureClosed {
			closed = append(closed, s)
		}
	}

	sort.SliceStable(closed, func(i, j int) bool {
		return closingTime(closed[i]).Before(closingTime(closed[j]))
	})

	curve := make([]models.EquityPoint, 0, len(closed)+1)
	curve = append(curve, models.EquityPoint{Label: "start", Equity: initialCapital})

	equity := initialCapital
	peak := initialCapital
	for _, s := range closed {
		realized, err := s.RealizedPnlValue()
		if err != nil {
			return nil, errors.Wrapf(err, "structure %q", s.Name)
		}
		equity += realized
		if equity > peak {
			peak = equity
		}
		curve = append(curve, models.EquityPoint{
			Label:    equityLabel(s),
			Equity:   equity,
			Drawdown: equity - peak,
		})
	}
	return curve, nil
}

func closingTime(s models.Structure) time.Time {
	if s.ClosingDate == nil {
		return time.Time{}
	}
	return *s.ClosingDate
}

func equityLabel(s models.Structure) string {
	if s.ClosingDate == nil {
		return s.Name
	}
	return s.ClosingDate.UTC().Format("2006-01-02")
}

// TradeStatistics computes the summary statistics of the closed
// structures. Profit factor is reported as +Inf, not an error, when
// every trade is a winner.
func TradeStatistics(structures []models.Structure) (TradeStats, error) {
	var (
		wins, losses []float64
		grossProfit  float64
		grossLoss    float64
		total        float64
		trades       int
	)

	for _, s := range structures {
		if s.Status != models.StructureClosed {
			continue
		}
		realized, err := s.RealizedPnlValue()
		if err != nil {
			return TradeStats{}, errors.Wrapf(err, "structure %q", s.Name)
		}
		trades++
		total += realized
		if realized > 0 {
			wins = append(wins, realized)
			grossProfit += realized
		} else {
			losses = append(losses, realized)
			grossLoss += realized
		}
	}

	result := TradeStats{TotalNetPnl: total, Trades: trades}
	if trades == 0 {
		return result, nil
	}

	result.WinRate = float64(len(wins)) / float64(trades)

	switch {
	case grossLoss == 0 && grossProfit == 0:
		result.ProfitFactor = 0
	case grossLoss == 0:
		result.ProfitFactor = math.Inf(1)
	default:
		result.ProfitFactor = grossProfit / math.Abs(grossLoss)
	}

	if len(wins) > 0 {
		avg, err := stats.Mean(wins)
		if err != nil {
			return TradeStats{}, errors.Wrap(err, "averaging wins")
		}
		result.AvgWin = avg
	}
	if len(losses) > 0 {
		avg, err := stats.Mean(losses)
		if err != nil {
			return TradeStats{}, errors.Wrap(err, "averaging losses")
		}
		result.AvgLoss = avg
	}

	curve, err := EquityCurve(structures, 0)
	if err != nil {
		return TradeStats{}, err
	}
	if len(curve) >= 2 {
		for _, p := range curve {
			if p.Drawdown < result.MaxDrawdown {
				result.MaxDrawdown = p.Drawdown
			}
		}
	}
	return result, nil
}
