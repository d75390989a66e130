package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"tradeJournal/internal/analytics"
	"tradeJournal/internal/domain"
	"tradeJournal/internal/export"
)

const (
	defaultTopN    = 5
	maxImportBytes = 10 << 20
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r, s.service.Location())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := s.service.Summary(r.Context(), ownerFrom(r), f)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	report.Summary = report.Summary.Rounded()
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	by := q.Get("by")
	if by == "" {
		by = analytics.BySymbol.Name
	}
	top, err := parseInt(q.Get("top"), 0)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid top: "+err.Error())
		return
	}
	f, err := parseFilter(r, s.service.Location())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	groups, err := s.service.Breakdown(r.Context(), ownerFrom(r), by, top, f)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	for i := range groups {
		groups[i].Summary = groups[i].Summary.Rounded()
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"by":     by,
		"groups": groups,
	})
}

func (s *Server) handleTopTrades(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	n, err := parseInt(q.Get("n"), defaultTopN)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid n: "+err.Error())
		return
	}

	var winners bool
	switch kind := strings.ToLower(q.Get("kind")); kind {
	case "", "winners":
		winners = true
	case "losers":
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid kind %q: want winners or losers", kind))
		return
	}

	f, err := parseFilter(r, s.service.Location())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := s.service.TopTrades(r.Context(), ownerFrom(r), n, winners, f)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newTradeViews(items))
}

// handleCompare compares calendar periods (period=day|week|month|year,
// ref=YYYY-MM-DD) or, when from and to are both given, an explicit range
// against the range of equal length before it. A single bound is rejected.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	loc := s.service.Location()

	if q.Get("from") != "" || q.Get("to") != "" {
		if q.Get("from") == "" || q.Get("to") == "" {
			s.writeError(w, http.StatusBadRequest, "from and to are both required for a range comparison")
			return
		}
		window, err := analytics.ParseWindow(q.Get("from"), q.Get("to"), loc)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		res, err := s.service.CompareRange(r.Context(), ownerFrom(r), *window)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, roundComparison(res))
		return
	}

	period := q.Get("period")
	if period == "" {
		period = string(analytics.UnitMonth)
	}
	unit, err := analytics.ParseCalendarUnit(period)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ref := time.Now().In(loc)
	if v := q.Get("ref"); v != "" {
		if ref, err = analytics.ParseTime(v, loc); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid ref: "+err.Error())
			return
		}
	}

	res, err := s.service.ComparePeriods(r.Context(), ownerFrom(r), unit, ref)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, roundComparison(res))
}

// handleExport streams CSV (default) or returns JSON rows.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	window, err := analytics.ParseWindow(q.Get("from"), q.Get("to"), s.service.Location())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch format := strings.ToLower(q.Get("format")); format {
	case "", "csv":
		// Render first so that a failure can still produce a JSON error.
		var buf strings.Builder
		if err := s.service.ExportCSV(r.Context(), ownerFrom(r), window, &buf); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(window)))
		w.WriteHeader(http.StatusOK)
		if _, err := io.WriteString(w, buf.String()); err != nil {
			s.log.Warn().Err(err).Str("request_id", requestID(r)).Msg("Failed to write export")
		}
	case "json":
		rows, err := s.service.ExportRows(r.Context(), ownerFrom(r), window)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, rows)
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid format %q: want csv or json", format))
	}
}

// handleImport creates trades from a CSV body in the export layout.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	created, err := s.service.ImportCSV(r.Context(), ownerFrom(r), body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "import body too large")
			return
		}
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]interface{}{"imported": len(created)})
}

func roundComparison(res analytics.ComparisonResult) analytics.ComparisonResult {
	res.Current = res.Current.Rounded()
	res.Previous = res.Previous.Rounded()
	for _, d := range []*analytics.Delta{&res.TotalTrades, &res.TotalProfit, &res.WinRate} {
		d.Current = analytics.Round2(d.Current)
		d.Previous = analytics.Round2(d.Previous)
		d.Absolute = analytics.Round2(d.Absolute)
		d.PercentChange = analytics.Round2(d.PercentChange)
	}
	return res
}

// parseFilter reads symbol, strategy, side, status, from and to.
func parseFilter(r *http.Request, loc *time.Location) (analytics.Filter, error) {
	q := r.URL.Query()
	f := analytics.Filter{
		Symbol:   q.Get("symbol"),
		Strategy: q.Get("strategy"),
	}
	if v := q.Get("side"); v != "" {
		side, ok := domain.ParseSide(v)
		if !ok {
			return f, fmt.Errorf("invalid side %q", v)
		}
		f.Side = side
	}
	if v := q.Get("status"); v != "" {
		status, ok := domain.ParseStatus(v)
		if !ok {
			return f, fmt.Errorf("invalid status %q", v)
		}
		f.Status = status
	}
	window, err := analytics.ParseWindow(q.Get("from"), q.Get("to"), loc)
	if err != nil {
		return f, err
	}
	f.Window = window
	return f, nil
}

func parseInt(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return n, nil
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
