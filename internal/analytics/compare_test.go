package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeJournal/internal/domain"
)

func TestCompare_PreviousPeriodEmpty(t *testing.T) {
	current := Window{Start: baseTime, End: baseTime.AddDate(0, 0, 7)}
	previous := PrecedingWindow(current)

	trades := []domain.Trade{manualTrade("1", "200", baseTime.Add(time.Hour))}

	res, err := Compare(trades, false, current, previous)
	require.NoError(t, err)

	assert.True(t, res.TotalProfit.Current.Equal(dec("200")))
	assert.True(t, res.TotalProfit.Previous.IsZero())
	assert.True(t, res.TotalProfit.Absolute.Equal(dec("200")))
	assert.True(t, res.TotalProfit.PercentChange.IsZero())
	assert.True(t, res.TotalTrades.Absolute.Equal(dec("1")))
}

func TestCompare_Deltas(t *testing.T) {
	current := Window{Start: baseTime, End: baseTime.AddDate(0, 0, 7)}
	previous := PrecedingWindow(current)

	trades := []domain.Trade{
		manualTrade("p1", "100", baseTime.AddDate(0, 0, -3)),
		manualTrade("p2", "-100", baseTime.AddDate(0, 0, -2)),
		manualTrade("c1", "150", baseTime),
		manualTrade("c2", "0", baseTime.AddDate(0, 0, 6)),
		manualTrade("late", "999", current.End),
	}

	res, err := Compare(trades, false, current, previous)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Current.TotalTrades)
	assert.Equal(t, 2, res.Previous.TotalTrades)
	assert.True(t, res.TotalProfit.Previous.IsZero())
	assert.True(t, res.TotalProfit.PercentChange.IsZero())
	assert.True(t, res.WinRate.Current.Equal(dec("50")))
	assert.True(t, res.WinRate.Previous.Equal(dec("50")))
	assert.True(t, res.WinRate.Absolute.IsZero())
}

func TestCompare_PercentChange(t *testing.T) {
	current := Window{Start: baseTime, End: baseTime.AddDate(0, 0, 1)}
	previous := PrecedingWindow(current)

	trades := []domain.Trade{
		manualTrade("p", "-40", previous.Start),
		manualTrade("c", "-10", current.Start),
	}

	res, err := Compare(trades, false, current, previous)
	require.NoError(t, err)

	// A loss shrinking from -40 to -10 is a 75% improvement.
	assert.True(t, res.TotalProfit.Absolute.Equal(dec("30")))
	assert.True(t, res.TotalProfit.PercentChange.Equal(dec("75")), "pct = %s", res.TotalProfit.PercentChange)
}

func TestCompare_InvalidWindows(t *testing.T) {
	w := Window{Start: baseTime, End: baseTime.AddDate(0, 0, 7)}

	_, err := Compare(nil, true, w, Window{Start: baseTime.AddDate(0, 0, 3), End: baseTime.AddDate(0, 0, 10)})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = Compare(nil, true, Window{Start: baseTime, End: baseTime}, PrecedingWindow(w))
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = Compare(nil, true, w, Window{Start: baseTime, End: baseTime.Add(-time.Hour)})
	assert.ErrorIs(t, err, ErrInvalidWindow)
}
