package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"tradeJournal/internal/domain"
)

var baseTime = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// closedTrade builds a closed trade held for the given number of days.
func closedTrade(id, symbol string, side domain.Side, entry, exit, qty string, opened time.Time, days int) domain.Trade {
	exitDate := opened.Add(time.Duration(days) * 24 * time.Hour)
	return domain.Trade{
		ID:         id,
		Symbol:     symbol,
		Side:       side,
		EntryDate:  opened,
		EntryPrice: dec(entry),
		Quantity:   dec(qty),
		ExitDate:   &exitDate,
		ExitPrice:  decimal.NewNullDecimal(dec(exit)),
		Status:     domain.StatusClosed,
	}
}

// manualTrade builds a closed trade whose profit is entered by hand.
func manualTrade(id string, profit string, opened time.Time) domain.Trade {
	t := closedTrade(id, "AAPL", domain.Buy, "100", "100", "1", opened, 1)
	t.ManualProfit = decimal.NewNullDecimal(dec(profit))
	return t
}

func openTrade(id, symbol, entry, qty string, opened time.Time) domain.Trade {
	return domain.Trade{
		ID:         id,
		Symbol:     symbol,
		Side:       domain.Buy,
		EntryDate:  opened,
		EntryPrice: dec(entry),
		Quantity:   dec(qty),
		Status:     domain.StatusOpen,
	}
}
