package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidTrade is wrapped by every ValidationError.
var ErrInvalidTrade = errors.New("invalid trade")

// ValidationError lists every invariant a trade violates.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidTrade, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidTrade
}

// Trade represents a single journal entry as entered by its owner.
type Trade struct {
	ID           string              // Opaque identifier (uuid)
	OwnerID      string              // Used by the host for scoping only
	Symbol       string              // Uppercase ticker
	Side         Side                // BUY or SELL
	Strategy     string              // Optional, empty when unset
	EntryDate    time.Time           // When the trade was opened
	EntryPrice   decimal.Decimal     // >= 0
	Quantity     decimal.Decimal     // > 0
	ExitDate     *time.Time          // Set iff the trade is closed
	ExitPrice    decimal.NullDecimal // Set iff the trade is closed
	Status       TradeStatus         // OPEN, CLOSED or CANCELLED
	Commission   decimal.Decimal     // >= 0
	Fees         decimal.Decimal     // >= 0
	ManualProfit decimal.NullDecimal // User-entered profit, used when auto calculation is off
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsClosed checks if the trade has been closed.
func (t *Trade) IsClosed() bool {
	return t.Status == StatusClosed
}

// EntryValue returns the entry notional (price x quantity).
func (t *Trade) EntryValue() decimal.Decimal {
	return t.EntryPrice.Mul(t.Quantity)
}

// Costs returns commission plus fees.
func (t *Trade) Costs() decimal.Decimal {
	return t.Commission.Add(t.Fees)
}

// Validate checks the record invariants. An exit date earlier than the entry
// date is accepted: analytics report it as a negative duration.
func (t *Trade) Validate() error {
	var problems []string

	if strings.TrimSpace(t.Symbol) == "" {
		problems = append(problems, "symbol is required")
	}
	if !t.Side.Valid() {
		problems = append(problems, fmt.Sprintf("side %q must be BUY or SELL", t.Side))
	}
	if !t.Status.Valid() {
		problems = append(problems, fmt.Sprintf("status %q must be OPEN, CLOSED or CANCELLED", t.Status))
	}
	if t.EntryDate.IsZero() {
		problems = append(problems, "entry date is required")
	}
	if t.EntryPrice.IsNegative() {
		problems = append(problems, "entry price cannot be negative")
	}
	if !t.Quantity.IsPositive() {
		problems = append(problems, "quantity must be positive")
	}
	if t.Commission.IsNegative() {
		problems = append(problems, "commission cannot be negative")
	}
	if t.Fees.IsNegative() {
		problems = append(problems, "fees cannot be negative")
	}

	hasExitDate := t.ExitDate != nil
	if hasExitDate != t.ExitPrice.Valid {
		problems = append(problems, "exit date and exit price must be set together")
	}
	if t.ExitPrice.Valid && t.ExitPrice.Decimal.IsNegative() {
		problems = append(problems, "exit price cannot be negative")
	}
	if t.Status == StatusClosed && (!hasExitDate || !t.ExitPrice.Valid) {
		problems = append(problems, "closed trade requires exit date and exit price")
	}
	if t.Status != StatusClosed && (hasExitDate || t.ExitPrice.Valid) {
		problems = append(problems, "only closed trades carry exit fields")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
