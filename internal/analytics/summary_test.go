package analytics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeJournal/internal/domain"
)

func TestSummarize_MixedOutcomes(t *testing.T) {
	trades := []domain.Trade{
		manualTrade("1", "100", baseTime),
		manualTrade("2", "-40", baseTime.Add(time.Hour)),
		manualTrade("3", "25", baseTime.Add(2*time.Hour)),
		manualTrade("4", "-10", baseTime.Add(3*time.Hour)),
	}

	s := Summarize(trades, false)

	assert.Equal(t, 4, s.TotalTrades)
	assert.Equal(t, 4, s.ClosedTrades)
	assert.Equal(t, 2, s.WinningTrades)
	assert.Equal(t, 2, s.LosingTrades)
	assert.True(t, s.TotalProfit.Equal(dec("75")), "total = %s", s.TotalProfit)
	assert.True(t, s.GrossProfit.Equal(dec("125")))
	assert.True(t, s.GrossLoss.Equal(dec("-50")))
	assert.True(t, s.WinRate.Equal(dec("50")), "winRate = %s", s.WinRate)
	assert.False(t, s.ProfitFactor.Infinite)
	assert.True(t, s.ProfitFactor.Value.Equal(dec("2.5")), "pf = %s", s.ProfitFactor)
	assert.True(t, s.AverageProfit.Equal(dec("18.75")))
	assert.True(t, s.AverageWin.Equal(dec("62.5")))
	assert.True(t, s.AverageLoss.Equal(dec("-25")))
	assert.True(t, s.BiggestWin.Equal(dec("100")))
	assert.True(t, s.BiggestLoss.Equal(dec("-40")))
	assert.True(t, s.AverageHoldDurationDays.Equal(dec("1")))
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, true)

	assert.Zero(t, s.TotalTrades)
	assert.True(t, s.TotalProfit.IsZero())
	assert.True(t, s.WinRate.IsZero())
	assert.True(t, s.AverageProfit.IsZero())
	assert.True(t, s.ROI.IsZero())
	assert.False(t, s.ProfitFactor.Infinite)
	assert.True(t, s.ProfitFactor.Value.IsZero())
	assert.Equal(t, "0.00", s.ProfitFactor.String())
}

func TestSummarize_ProfitFactor(t *testing.T) {
	tests := []struct {
		name     string
		profits  []string
		infinite bool
		value    string
	}{
		{name: "only wins", profits: []string{"10", "5"}, infinite: true},
		{name: "only losses", profits: []string{"-10", "-5"}, value: "0"},
		{name: "only breakeven", profits: []string{"0"}, value: "0"},
		{name: "wins and losses", profits: []string{"30", "-10", "-5"}, value: "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trades := make([]domain.Trade, 0, len(tt.profits))
			for i, p := range tt.profits {
				trades = append(trades, manualTrade(string(rune('a'+i)), p, baseTime))
			}
			pf := Summarize(trades, false).ProfitFactor
			assert.Equal(t, tt.infinite, pf.Infinite)
			if !tt.infinite {
				assert.True(t, pf.Value.Equal(dec(tt.value)), "pf = %s", pf.Value)
			}
		})
	}
}

func TestSummarize_BreakevenCountsAsNeither(t *testing.T) {
	trades := []domain.Trade{
		manualTrade("1", "0", baseTime),
		manualTrade("2", "10", baseTime),
	}
	s := Summarize(trades, false)

	assert.Equal(t, 2, s.ClosedTrades)
	assert.Equal(t, 1, s.WinningTrades)
	assert.Equal(t, 0, s.LosingTrades)
	assert.True(t, s.WinRate.Equal(dec("50")))
}

func TestSummarize_StatusHandling(t *testing.T) {
	closed := closedTrade("c", "AAPL", domain.Buy, "100", "110", "10", baseTime, 2)
	closed.Commission = dec("2")
	closed.Fees = dec("1")

	open := openTrade("o", "MSFT", "50", "4", baseTime)
	open.Commission = dec("0.5")

	cancelled := openTrade("x", "TSLA", "300", "10", baseTime)
	cancelled.Status = domain.StatusCancelled
	cancelled.Commission = dec("9")

	s := Summarize([]domain.Trade{closed, open, cancelled}, true)

	assert.Equal(t, 3, s.TotalTrades)
	assert.Equal(t, 1, s.OpenTrades)
	assert.Equal(t, 1, s.ClosedTrades)
	assert.Equal(t, 1, s.CancelledTrades)
	assert.True(t, s.TotalProfit.Equal(dec("97")), "profit = %s", s.TotalProfit)
	// Volume and costs cover open and closed trades only.
	assert.True(t, s.TotalVolume.Equal(dec("1200")), "volume = %s", s.TotalVolume)
	assert.True(t, s.TotalCommissions.Equal(dec("3.5")), "commissions = %s", s.TotalCommissions)
	assert.True(t, s.NetProfit.Equal(dec("93.5")))
	assert.True(t, Round2(s.ROI).Equal(dec("8.08")), "roi = %s", s.ROI)
	assert.True(t, s.AverageHoldDurationDays.Equal(dec("2")))
}

func TestSummarize_WinRateBounds(t *testing.T) {
	profits := []string{"1", "-1", "0", "3.5", "-0.01", "7", "0", "-12"}
	for n := 0; n <= len(profits); n++ {
		trades := make([]domain.Trade, 0, n)
		for i := 0; i < n; i++ {
			trades = append(trades, manualTrade(string(rune('a'+i)), profits[i], baseTime))
		}
		s := Summarize(trades, false)
		assert.False(t, s.WinRate.IsNegative(), "n=%d", n)
		assert.True(t, s.WinRate.LessThanOrEqual(hundred), "n=%d", n)
		assert.LessOrEqual(t, s.WinningTrades+s.LosingTrades, s.ClosedTrades)
	}
}

func TestSummarize_DoesNotMutateInput(t *testing.T) {
	trades := []domain.Trade{
		manualTrade("b", "5", baseTime.Add(time.Hour)),
		manualTrade("a", "-5", baseTime),
	}
	snapshot := append([]domain.Trade(nil), trades...)

	Summarize(trades, false)
	GroupBy(trades, false, BySymbol, 0)
	TopTrades(trades, false, 1, true)
	AnalyzeRisk(trades, false)

	assert.Equal(t, snapshot, trades)
}

func TestProfitFactor_JSON(t *testing.T) {
	data, err := json.Marshal(ProfitFactor{Infinite: true})
	require.NoError(t, err)
	assert.JSONEq(t, `"Infinity"`, string(data))

	data, err = json.Marshal(ProfitFactor{Value: dec("2.5")})
	require.NoError(t, err)
	assert.JSONEq(t, `"2.5"`, string(data))

	var pf ProfitFactor
	require.NoError(t, json.Unmarshal([]byte(`"Infinity"`), &pf))
	assert.True(t, pf.Infinite)
	assert.Equal(t, "Infinity", pf.String())

	require.NoError(t, json.Unmarshal([]byte(`"1.25"`), &pf))
	assert.False(t, pf.Infinite)
	assert.Equal(t, "1.25", pf.String())
}

func TestSummaryStatistics_Rounded(t *testing.T) {
	trades := []domain.Trade{
		manualTrade("1", "10", baseTime),
		manualTrade("2", "-3", baseTime),
		manualTrade("3", "-3", baseTime),
	}
	s := Summarize(trades, false)
	r := s.Rounded()

	assert.True(t, r.WinRate.Equal(dec("33.33")), "winRate = %s", r.WinRate)
	assert.True(t, r.ProfitFactor.Value.Equal(dec("1.67")))
	// The original is unchanged.
	assert.False(t, s.WinRate.Equal(r.WinRate))
}
