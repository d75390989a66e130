package analytics

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"tradeJournal/internal/domain"
)

// ProfitFactor is gross profit divided by absolute gross loss. Infinite marks
// the case where there are winning trades but no losses.
type ProfitFactor struct {
	Value    decimal.Decimal
	Infinite bool
}

const infiniteLabel = "Infinity"

func (p ProfitFactor) String() string {
	if p.Infinite {
		return infiniteLabel
	}
	return p.Value.StringFixed(2)
}

// MarshalJSON renders the infinite sentinel as the string "Infinity".
func (p ProfitFactor) MarshalJSON() ([]byte, error) {
	if p.Infinite {
		return json.Marshal(infiniteLabel)
	}
	return p.Value.MarshalJSON()
}

// UnmarshalJSON accepts the output of MarshalJSON.
func (p *ProfitFactor) UnmarshalJSON(data []byte) error {
	if strings.Trim(string(data), `"`) == infiniteLabel {
		*p = ProfitFactor{Infinite: true}
		return nil
	}
	p.Infinite = false
	return p.Value.UnmarshalJSON(data)
}

// SummaryStatistics aggregates a collection of trades.
type SummaryStatistics struct {
	TotalTrades     int `json:"totalTrades"`
	OpenTrades      int `json:"openTrades"`
	ClosedTrades    int `json:"closedTrades"`
	CancelledTrades int `json:"cancelledTrades"`
	WinningTrades   int `json:"winningTrades"`
	LosingTrades    int `json:"losingTrades"`

	TotalProfit   decimal.Decimal `json:"totalProfit"`
	GrossProfit   decimal.Decimal `json:"grossProfit"` // sum of winning profits
	GrossLoss     decimal.Decimal `json:"grossLoss"`   // sum of losing profits (<= 0)
	AverageProfit decimal.Decimal `json:"averageProfit"`
	AverageWin    decimal.Decimal `json:"averageWin"`
	AverageLoss   decimal.Decimal `json:"averageLoss"`
	BiggestWin    decimal.Decimal `json:"biggestWin"`
	BiggestLoss   decimal.Decimal `json:"biggestLoss"`
	WinRate       decimal.Decimal `json:"winRate"`
	ProfitFactor  ProfitFactor    `json:"profitFactor"`

	TotalVolume      decimal.Decimal `json:"totalVolume"`
	TotalCommissions decimal.Decimal `json:"totalCommissions"`
	NetProfit        decimal.Decimal `json:"netProfit"`
	ROI              decimal.Decimal `json:"roi"`

	AverageHoldDurationDays decimal.Decimal `json:"averageHoldDurationDays"`
}

// Summarize reduces trades to summary statistics.
func Summarize(trades []domain.Trade, autoCalculateProfit bool) SummaryStatistics {
	return summarize(Normalize(trades, autoCalculateProfit))
}

func summarize(items []NormalizedTrade) SummaryStatistics {
	var s SummaryStatistics
	var holdDays int64

	for _, it := range items {
		t := it.Trade
		s.TotalTrades++

		switch t.Status {
		case domain.StatusCancelled:
			s.CancelledTrades++
			continue // never executed: no volume, no costs
		case domain.StatusOpen:
			s.OpenTrades++
		}

		s.TotalVolume = s.TotalVolume.Add(t.EntryValue())
		s.TotalCommissions = s.TotalCommissions.Add(t.Costs())

		if t.Status != domain.StatusClosed {
			continue
		}

		profit := it.Metrics.Profit
		s.ClosedTrades++
		s.TotalProfit = s.TotalProfit.Add(profit)

		if s.ClosedTrades == 1 {
			s.BiggestWin = profit
			s.BiggestLoss = profit
		} else {
			s.BiggestWin = decimal.Max(s.BiggestWin, profit)
			s.BiggestLoss = decimal.Min(s.BiggestLoss, profit)
		}

		switch profit.Sign() {
		case 1:
			s.WinningTrades++
			s.GrossProfit = s.GrossProfit.Add(profit)
		case -1:
			s.LosingTrades++
			s.GrossLoss = s.GrossLoss.Add(profit)
		}

		if it.Metrics.DurationDays != nil {
			holdDays += int64(*it.Metrics.DurationDays)
		}
	}

	closed := decimal.NewFromInt(int64(s.ClosedTrades))
	s.AverageProfit = ratio(s.TotalProfit, closed)
	s.AverageWin = ratio(s.GrossProfit, decimal.NewFromInt(int64(s.WinningTrades)))
	s.AverageLoss = ratio(s.GrossLoss, decimal.NewFromInt(int64(s.LosingTrades)))
	s.WinRate = percentOf(decimal.NewFromInt(int64(s.WinningTrades)), closed)
	s.ProfitFactor = profitFactor(s.GrossProfit, s.GrossLoss)
	s.NetProfit = s.TotalProfit.Sub(s.TotalCommissions)
	s.ROI = percentOf(s.TotalProfit, s.TotalVolume)
	s.AverageHoldDurationDays = ratio(decimal.NewFromInt(holdDays), closed)

	return s
}

// profitFactor is computed from the actual sums of wins and losses.
func profitFactor(grossProfit, grossLoss decimal.Decimal) ProfitFactor {
	if !grossProfit.IsPositive() {
		return ProfitFactor{}
	}
	if grossLoss.IsZero() {
		return ProfitFactor{Infinite: true}
	}
	return ProfitFactor{Value: grossProfit.Div(grossLoss.Abs())}
}

// Rounded returns a copy with every decimal rounded to two places for display.
func (s SummaryStatistics) Rounded() SummaryStatistics {
	r := s
	for _, d := range []*decimal.Decimal{
		&r.TotalProfit, &r.GrossProfit, &r.GrossLoss, &r.AverageProfit,
		&r.AverageWin, &r.AverageLoss, &r.BiggestWin, &r.BiggestLoss,
		&r.WinRate, &r.TotalVolume, &r.TotalCommissions, &r.NetProfit,
		&r.ROI, &r.AverageHoldDurationDays,
	} {
		*d = Round2(*d)
	}
	if !r.ProfitFactor.Infinite {
		r.ProfitFactor.Value = Round2(r.ProfitFactor.Value)
	}
	return r
}
