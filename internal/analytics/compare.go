package analytics

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tradeJournal/internal/domain"
)

// Delta describes how a figure moved between two periods.
type Delta struct {
	Current       decimal.Decimal `json:"current"`
	Previous      decimal.Decimal `json:"previous"`
	Absolute      decimal.Decimal `json:"absolute"`
	PercentChange decimal.Decimal `json:"percentChange"` // zero when Previous is zero
}

// ComparisonResult holds both period summaries and their deltas.
type ComparisonResult struct {
	CurrentWindow  Window            `json:"currentWindow"`
	PreviousWindow Window            `json:"previousWindow"`
	Current        SummaryStatistics `json:"current"`
	Previous       SummaryStatistics `json:"previous"`
	TotalTrades    Delta             `json:"totalTrades"`
	TotalProfit    Delta             `json:"totalProfit"`
	WinRate        Delta             `json:"winRate"`
}

// Compare summarizes the trades entered in each window and reports the
// change in trade count, total profit and win rate. The windows are chosen by
// the caller; see CalendarWindow and PrecedingWindow.
func Compare(trades []domain.Trade, autoCalculateProfit bool, current, previous Window) (ComparisonResult, error) {
	if err := current.Validate(); err != nil {
		return ComparisonResult{}, fmt.Errorf("current window: %w", err)
	}
	if err := previous.Validate(); err != nil {
		return ComparisonResult{}, fmt.Errorf("previous window: %w", err)
	}
	if current.Overlaps(previous) {
		return ComparisonResult{}, fmt.Errorf("%w: current and previous windows overlap", ErrInvalidWindow)
	}

	cur := Summarize(current.Select(trades), autoCalculateProfit)
	prev := Summarize(previous.Select(trades), autoCalculateProfit)

	return ComparisonResult{
		CurrentWindow:  current,
		PreviousWindow: previous,
		Current:        cur,
		Previous:       prev,
		TotalTrades: newDelta(
			decimal.NewFromInt(int64(cur.TotalTrades)),
			decimal.NewFromInt(int64(prev.TotalTrades)),
		),
		TotalProfit: newDelta(cur.TotalProfit, prev.TotalProfit),
		WinRate:     newDelta(cur.WinRate, prev.WinRate),
	}, nil
}

func newDelta(current, previous decimal.Decimal) Delta {
	abs := current.Sub(previous)
	return Delta{
		Current:       current,
		Previous:      previous,
		Absolute:      abs,
		PercentChange: percentOf(abs, previous.Abs()),
	}
}
