package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"tradeJournal/internal/domain"
)

// RiskMetrics holds path-dependent statistics over closed trades in exit order.
type RiskMetrics struct {
	MaxDrawdown          decimal.Decimal `json:"maxDrawdown"` // largest peak-to-trough fall of cumulative profit
	MaxConsecutiveWins   int             `json:"maxConsecutiveWins"`
	MaxConsecutiveLosses int             `json:"maxConsecutiveLosses"`
	Expectancy           decimal.Decimal `json:"expectancy"`      // expected profit per closed trade
	RiskRewardRatio      decimal.Decimal `json:"riskRewardRatio"` // average win / |average loss|
	RecoveryFactor       decimal.Decimal `json:"recoveryFactor"`  // total profit / max drawdown

	// Statistical figures are float64 and meant for display only.
	ProfitStdDev float64 `json:"profitStdDev"`
	SharpeRatio  float64 `json:"sharpeRatio"` // mean / stddev of per-trade profit percentages

	Drawdowns   []Drawdown    `json:"drawdowns"`
	EquityCurve []EquityPoint `json:"equityCurve"`
}

// Drawdown represents a drawdown period
type Drawdown struct {
	StartTime  time.Time       `json:"startTime"`
	EndTime    time.Time       `json:"endTime"`
	StartValue decimal.Decimal `json:"startValue"` // peak cumulative profit
	EndValue   decimal.Decimal `json:"endValue"`
	Depth      decimal.Decimal `json:"depth"`
	Duration   time.Duration   `json:"duration"`
	Recovered  bool            `json:"recovered"`
}

// EquityPoint represents a point on the cumulative profit curve
type EquityPoint struct {
	Time     time.Time       `json:"time"`
	Value    decimal.Decimal `json:"value"`
	Drawdown decimal.Decimal `json:"drawdown"`
}

// AnalyzeRisk walks closed trades in exit order and derives drawdown, streak
// and dispersion figures.
func AnalyzeRisk(trades []domain.Trade, autoCalculateProfit bool) RiskMetrics {
	return analyzeRisk(Normalize(trades, autoCalculateProfit))
}

func analyzeRisk(items []NormalizedTrade) RiskMetrics {
	metrics := RiskMetrics{
		Drawdowns:   make([]Drawdown, 0),
		EquityCurve: make([]EquityPoint, 0),
	}

	closed := closedInExitOrder(items)
	if len(closed) == 0 {
		return metrics
	}

	var equity, peak decimal.Decimal
	var currentDrawdown *Drawdown
	var consecutiveWins, consecutiveLosses int
	profits := make([]float64, 0, len(closed))
	percents := make([]float64, 0, len(closed))

	for _, it := range closed {
		profit := it.Metrics.Profit
		exitTime := *it.Trade.ExitDate

		switch profit.Sign() {
		case 1:
			consecutiveWins++
			consecutiveLosses = 0
		case -1:
			consecutiveLosses++
			consecutiveWins = 0
		default:
			consecutiveWins, consecutiveLosses = 0, 0
		}
		if consecutiveWins > metrics.MaxConsecutiveWins {
			metrics.MaxConsecutiveWins = consecutiveWins
		}
		if consecutiveLosses > metrics.MaxConsecutiveLosses {
			metrics.MaxConsecutiveLosses = consecutiveLosses
		}

		equity = equity.Add(profit)

		if equity.GreaterThanOrEqual(peak) {
			peak = equity
			if currentDrawdown != nil {
				currentDrawdown.EndTime = exitTime
				currentDrawdown.EndValue = equity
				currentDrawdown.Duration = currentDrawdown.EndTime.Sub(currentDrawdown.StartTime)
				currentDrawdown.Recovered = true
				metrics.Drawdowns = append(metrics.Drawdowns, *currentDrawdown)
				currentDrawdown = nil
			}
		} else {
			depth := peak.Sub(equity)
			if currentDrawdown == nil {
				currentDrawdown = &Drawdown{
					StartTime:  exitTime,
					StartValue: peak,
					Depth:      depth,
				}
			} else {
				currentDrawdown.Depth = decimal.Max(currentDrawdown.Depth, depth)
			}
			metrics.MaxDrawdown = decimal.Max(metrics.MaxDrawdown, depth)
		}

		metrics.EquityCurve = append(metrics.EquityCurve, EquityPoint{
			Time:     exitTime,
			Value:    equity,
			Drawdown: peak.Sub(equity),
		})

		profits = append(profits, profit.InexactFloat64())
		percents = append(percents, it.Metrics.ProfitPercentage.InexactFloat64())
	}

	// Close any open drawdown
	if currentDrawdown != nil {
		currentDrawdown.EndTime = *closed[len(closed)-1].Trade.ExitDate
		currentDrawdown.EndValue = equity
		currentDrawdown.Duration = currentDrawdown.EndTime.Sub(currentDrawdown.StartTime)
		metrics.Drawdowns = append(metrics.Drawdowns, *currentDrawdown)
	}

	summary := summarize(closed)
	metrics.Expectancy = summary.AverageProfit
	if summary.LosingTrades > 0 {
		metrics.RiskRewardRatio = ratio(summary.AverageWin, summary.AverageLoss.Abs())
	}
	metrics.RecoveryFactor = ratio(summary.TotalProfit, metrics.MaxDrawdown)

	if len(closed) > 1 {
		metrics.ProfitStdDev = stat.StdDev(profits, nil)
		mean, std := stat.MeanStdDev(percents, nil)
		if std > 0 {
			metrics.SharpeRatio = mean / std
		}
	}

	return metrics
}

// closedInExitOrder returns the closed trades sorted by exit date, then entry
// date, then ID. The input slice is left untouched.
func closedInExitOrder(items []NormalizedTrade) []NormalizedTrade {
	closed := make([]NormalizedTrade, 0, len(items))
	for _, it := range items {
		if it.Trade.Status == domain.StatusClosed && it.Trade.ExitDate != nil {
			closed = append(closed, it)
		}
	}
	sort.SliceStable(closed, func(i, j int) bool {
		a, b := closed[i].Trade, closed[j].Trade
		if !a.ExitDate.Equal(*b.ExitDate) {
			return a.ExitDate.Before(*b.ExitDate)
		}
		if !a.EntryDate.Equal(b.EntryDate) {
			return a.EntryDate.Before(b.EntryDate)
		}
		return a.ID < b.ID
	})
	return closed
}
