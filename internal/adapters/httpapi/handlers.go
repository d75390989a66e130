package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"tradeJournal/internal/analytics"
	"tradeJournal/internal/app"
	"tradeJournal/internal/domain"
	"tradeJournal/internal/export"
	"tradeJournal/internal/ports"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"service": "trade-journal",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// tradeView is the JSON representation of a trade and its metrics.
type tradeView struct {
	ID           string                 `json:"id"`
	Symbol       string                 `json:"symbol"`
	Side         domain.Side            `json:"side"`
	Strategy     string                 `json:"strategy"`
	EntryDate    time.Time              `json:"entryDate"`
	EntryPrice   decimal.Decimal        `json:"entryPrice"`
	Quantity     decimal.Decimal        `json:"quantity"`
	ExitDate     *time.Time             `json:"exitDate"`
	ExitPrice    decimal.NullDecimal    `json:"exitPrice"`
	Status       domain.TradeStatus     `json:"status"`
	Commission   decimal.Decimal        `json:"commission"`
	Fees         decimal.Decimal        `json:"fees"`
	ManualProfit decimal.NullDecimal    `json:"manualProfit"`
	Notes        string                 `json:"notes"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
	Metrics      *analytics.TradeMetrics `json:"metrics,omitempty"`
}

func newTradeView(t domain.Trade, m *analytics.TradeMetrics) tradeView {
	if m != nil {
		rounded := *m
		rounded.ProfitPercentage = analytics.Round2(rounded.ProfitPercentage)
		m = &rounded
	}
	return tradeView{
		ID:           t.ID,
		Symbol:       t.Symbol,
		Side:         t.Side,
		Strategy:     t.Strategy,
		EntryDate:    t.EntryDate,
		EntryPrice:   t.EntryPrice,
		Quantity:     t.Quantity,
		ExitDate:     t.ExitDate,
		ExitPrice:    t.ExitPrice,
		Status:       t.Status,
		Commission:   t.Commission,
		Fees:         t.Fees,
		ManualProfit: t.ManualProfit,
		Notes:        t.Notes,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		Metrics:      m,
	}
}

func newTradeViews(items []analytics.NormalizedTrade) []tradeView {
	views := make([]tradeView, 0, len(items))
	for _, it := range items {
		m := it.Metrics
		views = append(views, newTradeView(it.Trade, &m))
	}
	return views
}

// createTradeRequest is the body of POST /api/trades.
type createTradeRequest struct {
	Symbol       string              `json:"symbol"`
	Side         string              `json:"side"`
	Strategy     string              `json:"strategy"`
	EntryDate    time.Time           `json:"entryDate"`
	EntryPrice   decimal.Decimal     `json:"entryPrice"`
	Quantity     decimal.Decimal     `json:"quantity"`
	Commission   decimal.Decimal     `json:"commission"`
	Fees         decimal.Decimal     `json:"fees"`
	Notes        string              `json:"notes"`
	Status       string              `json:"status"`
	ExitDate     *time.Time          `json:"exitDate"`
	ExitPrice    decimal.NullDecimal `json:"exitPrice"`
	ManualProfit decimal.NullDecimal `json:"manualProfit"`
}

func (req createTradeRequest) toTrade() domain.Trade {
	// Unknown values pass through and are rejected by validation.
	side, _ := domain.ParseSide(req.Side)
	var status domain.TradeStatus
	if req.Status != "" {
		status, _ = domain.ParseStatus(req.Status)
	}
	return domain.Trade{
		Symbol:       req.Symbol,
		Side:         side,
		Strategy:     req.Strategy,
		EntryDate:    req.EntryDate,
		EntryPrice:   req.EntryPrice,
		Quantity:     req.Quantity,
		Commission:   req.Commission,
		Fees:         req.Fees,
		Notes:        req.Notes,
		Status:       status,
		ExitDate:     req.ExitDate,
		ExitPrice:    req.ExitPrice,
		ManualProfit: req.ManualProfit,
	}
}

// closeTradeRequest is the body of POST /api/trades/{id}/close.
type closeTradeRequest struct {
	ExitDate     time.Time           `json:"exitDate"`
	ExitPrice    decimal.NullDecimal `json:"exitPrice"`
	Commission   decimal.NullDecimal `json:"commission"`
	Fees         decimal.NullDecimal `json:"fees"`
	ManualProfit decimal.NullDecimal `json:"manualProfit"`
}

type settingsView struct {
	AutoCalculateProfit bool `json:"autoCalculateProfit"`
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r, s.service.Location())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.Limit, err = parseInt(r.URL.Query().Get("limit"), 0); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid limit: "+err.Error())
		return
	}
	items, err := s.service.ListTrades(r.Context(), ownerFrom(r), f)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newTradeViews(items))
}

func (s *Server) handleCreateTrade(w http.ResponseWriter, r *http.Request) {
	var req createTradeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t, err := s.service.CreateTrade(r.Context(), ownerFrom(r), req.toTrade())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newTradeView(*t, nil))
}

func (s *Server) handleGetTrade(w http.ResponseWriter, r *http.Request) {
	it, err := s.service.GetTrade(r.Context(), ownerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newTradeView(it.Trade, &it.Metrics))
}

func (s *Server) handleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteTrade(r.Context(), ownerFrom(r), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCloseTrade(w http.ResponseWriter, r *http.Request) {
	var req closeTradeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.ExitPrice.Valid {
		s.writeError(w, http.StatusBadRequest, "exitPrice is required")
		return
	}
	t, err := s.service.CloseTrade(r.Context(), ownerFrom(r), chi.URLParam(r, "id"), app.CloseInput{
		ExitDate:     req.ExitDate,
		ExitPrice:    req.ExitPrice.Decimal,
		Commission:   req.Commission,
		Fees:         req.Fees,
		ManualProfit: req.ManualProfit,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newTradeView(*t, nil))
}

func (s *Server) handleCancelTrade(w http.ResponseWriter, r *http.Request) {
	t, err := s.service.CancelTrade(r.Context(), ownerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newTradeView(*t, nil))
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.service.GetSettings(r.Context(), ownerFrom(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settingsView{AutoCalculateProfit: settings.AutoCalculateProfit})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AutoCalculateProfit *bool `json:"autoCalculateProfit"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.AutoCalculateProfit == nil {
		s.writeError(w, http.StatusBadRequest, "autoCalculateProfit is required")
		return
	}
	settings, err := s.service.UpdateSettings(r.Context(), ownerFrom(r), *req.AutoCalculateProfit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settingsView{AutoCalculateProfit: settings.AutoCalculateProfit})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeServiceError maps service errors to status codes. Unexpected errors
// are logged and reported without detail.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).
			Str("path", r.URL.Path).
			Str("request_id", requestID(r)).
			Msg("Request failed")
		s.writeError(w, status, "internal error")
		return
	}
	s.writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ports.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ports.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ports.ErrInvalidTransition),
		errors.Is(err, ports.ErrManualProfitSet),
		errors.Is(err, ports.ErrDuplicateEntry):
		return http.StatusConflict
	case errors.Is(err, ports.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidTrade),
		errors.Is(err, analytics.ErrInvalidWindow),
		errors.Is(err, analytics.ErrUnknownGrouping),
		errors.Is(err, export.ErrHeaderMismatch),
		errors.Is(err, export.ErrMalformedRow):
		return http.StatusBadRequest
	case errors.Is(err, ports.ErrTimeout),
		errors.Is(err, ports.ErrContextCanceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
