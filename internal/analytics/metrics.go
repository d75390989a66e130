// Package analytics derives reporting figures from journal trades.
//
// Every function here is pure: inputs are never mutated (slices are copied
// before sorting), nothing is logged, and the owner's autoCalculateProfit
// setting is passed explicitly rather than looked up.
package analytics

import (
	"math"

	"github.com/shopspring/decimal"

	"tradeJournal/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// TradeMetrics holds the derived figures for a single trade.
type TradeMetrics struct {
	Profit           decimal.Decimal `json:"profit"`
	ProfitPercentage decimal.Decimal `json:"profitPercentage"`
	DurationDays     *int            `json:"durationDays"` // nil while the trade is not closed
}

// NormalizedTrade pairs a trade with its metrics so that downstream
// aggregations compute profit exactly once.
type NormalizedTrade struct {
	Trade   domain.Trade
	Metrics TradeMetrics
}

// CalculateTradeMetrics derives profit, profit percentage and holding period.
// Only closed trades have realized P&L; open and cancelled trades report zeros.
func CalculateTradeMetrics(t domain.Trade, autoCalculateProfit bool) TradeMetrics {
	if t.Status != domain.StatusClosed {
		return TradeMetrics{}
	}

	entryValue := t.EntryValue()
	var profit decimal.Decimal

	if autoCalculateProfit {
		exitValue := t.ExitPrice.Decimal.Mul(t.Quantity)
		switch t.Side {
		case domain.Sell:
			profit = entryValue.Sub(exitValue)
		default:
			profit = exitValue.Sub(entryValue)
		}
		profit = profit.Sub(t.Costs())
	} else if t.ManualProfit.Valid {
		profit = t.ManualProfit.Decimal
	}

	return TradeMetrics{
		Profit:           profit,
		ProfitPercentage: percentOf(profit, entryValue),
		DurationDays:     durationDays(t),
	}
}

// Normalize computes metrics for every trade, preserving input order.
func Normalize(trades []domain.Trade, autoCalculateProfit bool) []NormalizedTrade {
	out := make([]NormalizedTrade, len(trades))
	for i, t := range trades {
		out[i] = NormalizedTrade{Trade: t, Metrics: CalculateTradeMetrics(t, autoCalculateProfit)}
	}
	return out
}

// durationDays rounds the holding period up to whole days. A trade closed
// before it was opened yields a negative value.
func durationDays(t domain.Trade) *int {
	if t.ExitDate == nil {
		return nil
	}
	days := int(math.Ceil(t.ExitDate.Sub(t.EntryDate).Hours() / 24))
	return &days
}

// percentOf returns part/whole*100, or zero when whole is zero.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// ratio returns a/b, or zero when b is zero.
func ratio(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Div(b)
}

// Round2 rounds a value for display. Calculations never round.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
