package domain

import "strings"

// Side represents the direction of a trade (BUY or SELL).
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL" // Short: profit when the price falls
)

// Valid reports whether s is a known side.
func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

// ParseSide converts user input to a Side, ignoring case and surrounding spaces.
func ParseSide(v string) (Side, bool) {
	s := Side(strings.ToUpper(strings.TrimSpace(v)))
	return s, s.Valid()
}

// TradeStatus represents the lifecycle state of a trade.
type TradeStatus string

const (
	StatusOpen      TradeStatus = "OPEN"
	StatusClosed    TradeStatus = "CLOSED"
	StatusCancelled TradeStatus = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s TradeStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus converts user input to a TradeStatus, ignoring case and surrounding spaces.
func ParseStatus(v string) (TradeStatus, bool) {
	s := TradeStatus(strings.ToUpper(strings.TrimSpace(v)))
	return s, s.Valid()
}

// NormalizeSymbol trims and uppercases a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
