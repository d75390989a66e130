package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tradeJournal/internal/domain"
)

// ErrInvalidWindow is returned for a window whose end is not after its start,
// or for comparison windows that overlap.
var ErrInvalidWindow = errors.New("invalid time window")

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Length returns End - Start.
func (w Window) Length() time.Duration {
	return w.End.Sub(w.Start)
}

// Validate checks that the window is non-empty.
func (w Window) Validate() error {
	if !w.End.After(w.Start) {
		return fmt.Errorf("%w: end %s is not after start %s", ErrInvalidWindow,
			w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339))
	}
	return nil
}

// Overlaps reports whether the two windows share any instant.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// Select returns the trades whose entry date falls inside the window.
func (w Window) Select(trades []domain.Trade) []domain.Trade {
	out := make([]domain.Trade, 0, len(trades))
	for _, t := range trades {
		if w.Contains(t.EntryDate) {
			out = append(out, t)
		}
	}
	return out
}

// PrecedingWindow returns the window of identical length ending where w starts.
func PrecedingWindow(w Window) Window {
	return Window{Start: w.Start.Add(-w.Length()), End: w.Start}
}

// CalendarUnit is the granularity of a calendar window.
type CalendarUnit string

const (
	UnitDay   CalendarUnit = "day"
	UnitWeek  CalendarUnit = "week"
	UnitMonth CalendarUnit = "month"
	UnitYear  CalendarUnit = "year"
)

// ParseCalendarUnit accepts day, week, month or year.
func ParseCalendarUnit(v string) (CalendarUnit, error) {
	u := CalendarUnit(strings.ToLower(strings.TrimSpace(v)))
	switch u {
	case UnitDay, UnitWeek, UnitMonth, UnitYear:
		return u, nil
	}
	return "", fmt.Errorf("%w: unknown period %q", ErrInvalidWindow, v)
}

// CalendarWindow returns the calendar day, week (Monday first), month or year
// containing ref, in loc (UTC when nil).
func CalendarWindow(unit CalendarUnit, ref time.Time, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.UTC
	}
	ref = ref.In(loc)
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, loc)

	switch unit {
	case UnitDay:
		return Window{Start: day, End: day.AddDate(0, 0, 1)}, nil
	case UnitWeek:
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return Window{Start: start, End: start.AddDate(0, 0, 7)}, nil
	case UnitMonth:
		start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, loc)
		return Window{Start: start, End: start.AddDate(0, 1, 0)}, nil
	case UnitYear:
		start := time.Date(ref.Year(), 1, 1, 0, 0, 0, 0, loc)
		return Window{Start: start, End: start.AddDate(1, 0, 0)}, nil
	}
	return Window{}, fmt.Errorf("%w: unknown period %q", ErrInvalidWindow, unit)
}

// PreviousCalendarWindow returns the calendar period immediately before w,
// where w was produced by CalendarWindow with the same unit. Months and years
// keep calendar boundaries, so their lengths may differ from w.
func PreviousCalendarWindow(unit CalendarUnit, w Window) Window {
	switch unit {
	case UnitMonth:
		return Window{Start: w.Start.AddDate(0, -1, 0), End: w.Start}
	case UnitYear:
		return Window{Start: w.Start.AddDate(-1, 0, 0), End: w.Start}
	case UnitWeek:
		return Window{Start: w.Start.AddDate(0, 0, -7), End: w.Start}
	case UnitDay:
		return Window{Start: w.Start.AddDate(0, 0, -1), End: w.Start}
	}
	return PrecedingWindow(w)
}

// DateLayout is the date-only form accepted by ParseTime.
const DateLayout = "2006-01-02"

// ParseTime accepts YYYY-MM-DD (midnight in loc) or RFC 3339.
func ParseTime(v string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(DateLayout, v, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}

// ParseWindow builds a window from optional bounds. A missing bound is open
// ended and a date-only "to" includes that whole day. Returns nil when both
// bounds are empty.
func ParseWindow(from, to string, loc *time.Location) (*Window, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	w := Window{
		Start: time.Date(1970, 1, 1, 0, 0, 0, 0, loc),
		End:   time.Date(9999, 1, 1, 0, 0, 0, 0, loc),
	}
	var err error
	if from != "" {
		if w.Start, err = ParseTime(from, loc); err != nil {
			return nil, fmt.Errorf("%w: invalid from: %v", ErrInvalidWindow, err)
		}
	}
	if to != "" {
		if w.End, err = ParseTime(to, loc); err != nil {
			return nil, fmt.Errorf("%w: invalid to: %v", ErrInvalidWindow, err)
		}
		if len(to) == len(DateLayout) {
			w.End = w.End.AddDate(0, 0, 1)
		}
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}
