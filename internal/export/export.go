// Package export renders journal trades as flat records and CSV, and reads
// the same CSV layout back for import.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tradeJournal/internal/analytics"
	"tradeJournal/internal/domain"
)

const dateLayout = "2006-01-02"

// Header is the fixed CSV column order.
var Header = []string{
	"Symbol", "Side", "Strategy", "Entry Date", "Entry Price",
	"Exit Date", "Exit Price", "Quantity", "Profit", "Status", "Notes",
}

var (
	// ErrHeaderMismatch is returned by ReadCSV when the first row is not Header.
	ErrHeaderMismatch = errors.New("csv header does not match export layout")
	// ErrMalformedRow is returned by ReadCSV for a row that cannot be parsed.
	ErrMalformedRow = errors.New("malformed csv row")
)

var freeText = strings.NewReplacer(",", ";", "\r\n", " ", "\r", " ", "\n", " ")

// Row is one exported trade with every value rendered as text.
type Row struct {
	Symbol     string `json:"symbol"`
	Side       string `json:"side"`
	Strategy   string `json:"strategy"`
	EntryDate  string `json:"entryDate"`
	EntryPrice string `json:"entryPrice"`
	ExitDate   string `json:"exitDate"`
	ExitPrice  string `json:"exitPrice"`
	Quantity   string `json:"quantity"`
	Profit     string `json:"profit"` // empty unless the trade is closed
	Status     string `json:"status"`
	Notes      string `json:"notes"`
}

// Record returns the row's fields in Header order.
func (r Row) Record() []string {
	return []string{
		r.Symbol, r.Side, r.Strategy, r.EntryDate, r.EntryPrice,
		r.ExitDate, r.ExitPrice, r.Quantity, r.Profit, r.Status, r.Notes,
	}
}

// Rows converts trades to export rows, preserving order. Dates are rendered
// as calendar days in loc (UTC when nil).
func Rows(trades []domain.Trade, autoCalculateProfit bool, loc *time.Location) []Row {
	if loc == nil {
		loc = time.UTC
	}
	items := analytics.Normalize(trades, autoCalculateProfit)
	rows := make([]Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, toRow(it, loc))
	}
	return rows
}

func toRow(it analytics.NormalizedTrade, loc *time.Location) Row {
	t := it.Trade
	row := Row{
		Symbol:     sanitize(t.Symbol),
		Side:       string(t.Side),
		Strategy:   sanitize(t.Strategy),
		EntryDate:  formatDate(t.EntryDate, loc),
		EntryPrice: t.EntryPrice.String(),
		Quantity:   t.Quantity.String(),
		Status:     string(t.Status),
		Notes:      sanitize(t.Notes),
	}
	if t.ExitDate != nil {
		row.ExitDate = formatDate(*t.ExitDate, loc)
	}
	if t.ExitPrice.Valid {
		row.ExitPrice = t.ExitPrice.Decimal.String()
	}
	if t.IsClosed() {
		row.Profit = it.Metrics.Profit.String()
	}
	return row
}

// WriteCSV writes Header followed by one record per trade, with dates in loc.
func WriteCSV(w io.Writer, trades []domain.Trade, autoCalculateProfit bool, loc *time.Location) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range Rows(trades, autoCalculateProfit, loc) {
		if err := writer.Write(row.Record()); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadCSV parses a file produced by WriteCSV. Imported trades carry no ID or
// owner. Dates are read as midnight in loc (UTC when nil). A profit value on
// a closed trade is kept as its manual profit.
func ReadCSV(r io.Reader, loc *time.Location) ([]domain.Trade, error) {
	if loc == nil {
		loc = time.UTC
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", ErrHeaderMismatch)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	if len(header) != len(Header) {
		return nil, fmt.Errorf("%w: got %d columns, want %d", ErrHeaderMismatch, len(header), len(Header))
	}
	for i := range Header {
		if strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")) != Header[i] {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrHeaderMismatch, i+1, header[i], Header[i])
		}
	}

	trades := make([]domain.Trade, 0)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) != len(Header) {
			return nil, fmt.Errorf("line %d: %w: got %d fields, want %d", line, ErrMalformedRow, len(record), len(Header))
		}
		t, err := parseRecord(record, loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		trades = append(trades, t)
	}
	return trades, nil
}

func parseRecord(rec []string, loc *time.Location) (domain.Trade, error) {
	var errs []string
	field := func(i int) string { return strings.TrimSpace(rec[i]) }

	side, ok := domain.ParseSide(field(1))
	if !ok {
		errs = append(errs, fmt.Sprintf("side %q", field(1)))
	}
	status, ok := domain.ParseStatus(field(9))
	if !ok {
		errs = append(errs, fmt.Sprintf("status %q", field(9)))
	}
	entryDate, err := time.ParseInLocation(dateLayout, field(3), loc)
	if err != nil {
		errs = append(errs, fmt.Sprintf("entry date %q", field(3)))
	}
	entryPrice, err := decimal.NewFromString(field(4))
	if err != nil {
		errs = append(errs, fmt.Sprintf("entry price %q", field(4)))
	}
	quantity, err := decimal.NewFromString(field(7))
	if err != nil {
		errs = append(errs, fmt.Sprintf("quantity %q", field(7)))
	}

	t := domain.Trade{
		Symbol:     domain.NormalizeSymbol(field(0)),
		Side:       side,
		Strategy:   field(2),
		EntryDate:  entryDate,
		EntryPrice: entryPrice,
		Quantity:   quantity,
		Status:     status,
		Notes:      rec[10],
	}

	if v := field(5); v != "" {
		d, err := time.ParseInLocation(dateLayout, v, loc)
		if err != nil {
			errs = append(errs, fmt.Sprintf("exit date %q", v))
		} else {
			t.ExitDate = &d
		}
	}
	if v := field(6); v != "" {
		if t.ExitPrice, err = nullDecimal(v); err != nil {
			errs = append(errs, fmt.Sprintf("exit price %q", v))
		}
	}
	if v := field(8); v != "" && status == domain.StatusClosed {
		if t.ManualProfit, err = nullDecimal(v); err != nil {
			errs = append(errs, fmt.Sprintf("profit %q", v))
		}
	}

	if len(errs) > 0 {
		return domain.Trade{}, fmt.Errorf("%w: %s", ErrMalformedRow, strings.Join(errs, ", "))
	}
	return t, nil
}

// Filename names an export covering w, or every trade when w is nil.
func Filename(w *analytics.Window) string {
	if w == nil {
		return "trades.csv"
	}
	// End is exclusive; name the last day covered.
	last := w.End.Add(-time.Nanosecond)
	return fmt.Sprintf("trades-%s-%s.csv", formatDate(w.Start, w.Start.Location()), formatDate(last, w.Start.Location()))
}

func nullDecimal(v string) (decimal.NullDecimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func formatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(dateLayout)
}

func sanitize(s string) string {
	return freeText.Replace(s)
}
