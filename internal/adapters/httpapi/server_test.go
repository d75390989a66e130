package httpapi

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeJournal/config"
	"tradeJournal/internal/adapters/logger"
	"tradeJournal/internal/adapters/sqlite"
	"tradeJournal/internal/app"
	"tradeJournal/internal/export"
	"tradeJournal/internal/ports"
)

func setupServer(t *testing.T) http.Handler {
	t.Helper()

	log := logger.NewZerologLogger(logger.Config{Level: logger.LevelError, Output: io.Discard})
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: filepath.Join(t.TempDir(), "journal.db"),
		Logger: log,
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	cfg := &config.Config{DefaultAutoCalculateProfit: true, Location: time.UTC}
	svc, err := app.NewJournalService(cfg, log, repo, repo)
	require.NoError(t, err)

	srv := New(Config{
		Port:    0,
		Log:     zerolog.Nop(),
		Service: svc,
		Timeout: 5 * time.Second,
		DevMode: true,
	})
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, owner string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if owner != "" {
		req.Header.Set(OwnerHeader, owner)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func createTrade(t *testing.T, h http.Handler, owner string, body map[string]interface{}) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/trades", owner, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var view struct {
		ID string `json:"id"`
	}
	decode(t, rec, &view)
	require.NotEmpty(t, view.ID)
	return view.ID
}

func aaplTrade() map[string]interface{} {
	return map[string]interface{}{
		"symbol":     "aapl",
		"side":       "buy",
		"strategy":   "breakout",
		"entryDate":  "2024-03-01T14:30:00Z",
		"entryPrice": "150.50",
		"quantity":   "100",
		"commission": "1.50",
		"fees":       "0.50",
		"notes":      "gap, then run",
	}
}

func TestHealth(t *testing.T) {
	h := setupServer(t)
	rec := do(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestOwnerRequired(t *testing.T) {
	h := setupServer(t)
	rec := do(t, h, http.MethodGet, "/api/trades", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), OwnerHeader)
}

func TestTradeLifecycle(t *testing.T) {
	h := setupServer(t)
	id := createTrade(t, h, "alice", aaplTrade())

	rec := do(t, h, http.MethodPost, "/api/trades/"+id+"/close", "alice", map[string]interface{}{
		"exitDate":  "2024-03-03T14:30:00Z",
		"exitPrice": "158.75",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/trades/"+id, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Symbol  string `json:"symbol"`
		Status  string `json:"status"`
		Metrics struct {
			Profit           string `json:"profit"`
			ProfitPercentage string `json:"profitPercentage"`
			DurationDays     int    `json:"durationDays"`
		} `json:"metrics"`
	}
	decode(t, rec, &view)
	assert.Equal(t, "AAPL", view.Symbol)
	assert.Equal(t, "CLOSED", view.Status)
	assert.Equal(t, "823", view.Metrics.Profit)
	assert.Equal(t, "5.47", view.Metrics.ProfitPercentage)
	assert.Equal(t, 2, view.Metrics.DurationDays)

	// Closing twice conflicts.
	rec = do(t, h, http.MethodPost, "/api/trades/"+id+"/close", "alice", map[string]interface{}{"exitPrice": "1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Other owners cannot see the trade.
	rec = do(t, h, http.MethodGet, "/api/trades/"+id, "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/trades/"+id, "alice", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/trades/"+id, "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTradeValidation(t *testing.T) {
	h := setupServer(t)

	bad := aaplTrade()
	bad["quantity"] = "0"
	bad["side"] = "long"
	rec := do(t, h, http.MethodPost, "/api/trades", "alice", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "quantity must be positive")

	rec = do(t, h, http.MethodPost, "/api/trades", "alice", `{"symbol": 12`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/trades", "alice", `{"ticker": "AAPL"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelTrade(t *testing.T) {
	h := setupServer(t)
	id := createTrade(t, h, "alice", aaplTrade())

	rec := do(t, h, http.MethodPost, "/api/trades/"+id+"/cancel", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"CANCELLED"`)

	rec = do(t, h, http.MethodPost, "/api/trades/"+id+"/cancel", "alice", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListTradesFilters(t *testing.T) {
	h := setupServer(t)
	createTrade(t, h, "alice", aaplTrade())
	msft := aaplTrade()
	msft["symbol"] = "MSFT"
	msft["side"] = "SELL"
	msft["entryDate"] = "2024-04-10T10:00:00Z"
	createTrade(t, h, "alice", msft)

	tests := []struct {
		query string
		want  int
		code  int
	}{
		{"", 2, http.StatusOK},
		{"?symbol=msft", 1, http.StatusOK},
		{"?side=buy", 1, http.StatusOK},
		{"?from=2024-04-01", 1, http.StatusOK},
		{"?to=2024-03-01", 1, http.StatusOK},
		{"?status=closed", 0, http.StatusOK},
		{"?side=sideways", 0, http.StatusBadRequest},
		{"?from=yesterday", 0, http.StatusBadRequest},
		{"?limit=1", 1, http.StatusOK},
		{"?limit=0", 2, http.StatusOK},
		{"?symbol=msft&limit=5", 1, http.StatusOK},
		{"?limit=-1", 0, http.StatusBadRequest},
		{"?limit=few", 0, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/api/trades"+tt.query, "alice", nil)
			require.Equal(t, tt.code, rec.Code, rec.Body.String())
			if tt.code != http.StatusOK {
				return
			}
			var views []map[string]interface{}
			decode(t, rec, &views)
			assert.Len(t, views, tt.want)
		})
	}
}

func TestSettings(t *testing.T) {
	h := setupServer(t)

	rec := do(t, h, http.MethodGet, "/api/settings", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"autoCalculateProfit": true}`, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/api/settings", "alice", map[string]interface{}{"autoCalculateProfit": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"autoCalculateProfit": false}`, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/api/settings", "alice", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// seedManual switches alice to manual profits and stores closed trades.
func seedManual(t *testing.T, h http.Handler, profits map[string]string) {
	t.Helper()
	rec := do(t, h, http.MethodPut, "/api/settings", "alice", map[string]interface{}{"autoCalculateProfit": false})
	require.Equal(t, http.StatusOK, rec.Code)

	day := 1
	for symbol, profit := range profits {
		entry := time.Date(2024, 3, day, 10, 0, 0, 0, time.UTC)
		day++
		body := map[string]interface{}{
			"symbol":       symbol,
			"side":         "BUY",
			"entryDate":    entry.Format(time.RFC3339),
			"entryPrice":   "100",
			"quantity":     "1",
			"status":       "CLOSED",
			"exitDate":     entry.Add(24 * time.Hour).Format(time.RFC3339),
			"exitPrice":    "100",
			"manualProfit": profit,
		}
		createTrade(t, h, "alice", body)
	}
}

func TestReports(t *testing.T) {
	h := setupServer(t)
	seedManual(t, h, map[string]string{"AAPL": "100", "MSFT": "-40", "TSLA": "25", "NVDA": "-10"})

	rec := do(t, h, http.MethodGet, "/api/reports/summary", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report struct {
		Summary struct {
			WinningTrades int    `json:"winningTrades"`
			LosingTrades  int    `json:"losingTrades"`
			TotalProfit   string `json:"totalProfit"`
			WinRate       string `json:"winRate"`
			ProfitFactor  string `json:"profitFactor"`
		} `json:"summary"`
		Risk struct {
			MaxDrawdown string `json:"maxDrawdown"`
		} `json:"risk"`
	}
	decode(t, rec, &report)
	assert.Equal(t, 2, report.Summary.WinningTrades)
	assert.Equal(t, 2, report.Summary.LosingTrades)
	assert.Equal(t, "75", report.Summary.TotalProfit)
	assert.Equal(t, "50", report.Summary.WinRate)
	assert.Equal(t, "2.5", report.Summary.ProfitFactor)
	assert.NotEmpty(t, report.Risk.MaxDrawdown)

	rec = do(t, h, http.MethodGet, "/api/reports/breakdown?by=symbol&top=2", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var breakdown struct {
		Groups []struct {
			Key string `json:"key"`
		} `json:"groups"`
	}
	decode(t, rec, &breakdown)
	require.Len(t, breakdown.Groups, 2)
	assert.Equal(t, "AAPL", breakdown.Groups[0].Key)
	assert.Equal(t, "TSLA", breakdown.Groups[1].Key)

	rec = do(t, h, http.MethodGet, "/api/reports/breakdown?by=broker", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/reports/top?n=1&kind=losers", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"MSFT"`)
	assert.NotContains(t, rec.Body.String(), `"NVDA"`)

	rec = do(t, h, http.MethodGet, "/api/reports/top?kind=sideways", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportsProfitFactorInfinity(t *testing.T) {
	h := setupServer(t)
	seedManual(t, h, map[string]string{"AAPL": "10"})

	rec := do(t, h, http.MethodGet, "/api/reports/summary", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"profitFactor":"Infinity"`)
}

func TestCompare(t *testing.T) {
	h := setupServer(t)
	seedManual(t, h, map[string]string{"AAPL": "200"})

	rec := do(t, h, http.MethodGet, "/api/reports/compare?period=month&ref=2024-03-15", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		TotalProfit struct {
			Current       string `json:"current"`
			Previous      string `json:"previous"`
			PercentChange string `json:"percentChange"`
		} `json:"totalProfit"`
	}
	decode(t, rec, &res)
	assert.Equal(t, "200", res.TotalProfit.Current)
	assert.Equal(t, "0", res.TotalProfit.Previous)
	assert.Equal(t, "0", res.TotalProfit.PercentChange)

	rec = do(t, h, http.MethodGet, "/api/reports/compare?from=2024-03-01&to=2024-03-31", "alice", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/reports/compare?period=quarter", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/reports/compare?from=2024-03-10&to=2024-03-01", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompareRangeBounds(t *testing.T) {
	h := setupServer(t)
	seedManual(t, h, map[string]string{"AAPL": "200"})

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{name: "both bounds", query: "from=2024-03-01&to=2024-03-31", want: http.StatusOK},
		{name: "from only", query: "from=2024-03-01", want: http.StatusBadRequest},
		{name: "to only", query: "to=2024-03-31", want: http.StatusBadRequest},
		{name: "from only with period", query: "period=month&from=2024-03-01", want: http.StatusBadRequest},
		{name: "malformed bound", query: "from=2024-03-01&to=March", want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/api/reports/compare?"+tt.query, "alice", nil)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestExportCSVAndImport(t *testing.T) {
	h := setupServer(t)
	createTrade(t, h, "alice", aaplTrade())

	rec := do(t, h, http.MethodGet, "/api/export?from=2024-03-01&to=2024-03-31", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="trades-2024-03-01-2024-03-31.csv"`, rec.Header().Get("Content-Disposition"))

	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, export.Header, records[0])
	assert.Equal(t, "gap; then run", records[1][10])

	imported := do(t, h, http.MethodPost, "/api/import", "bob", rec.Body.String())
	require.Equal(t, http.StatusCreated, imported.Code, imported.Body.String())
	assert.JSONEq(t, `{"imported": 1}`, imported.Body.String())

	rec = do(t, h, http.MethodPost, "/api/import", "bob", "not,a,journal\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportJSON(t *testing.T) {
	h := setupServer(t)
	createTrade(t, h, "alice", aaplTrade())

	rec := do(t, h, http.MethodGet, "/api/export?format=json", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []export.Row
	decode(t, rec, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "AAPL", rows[0].Symbol)
	assert.Empty(t, rows[0].Profit)

	rec = do(t, h, http.MethodGet, "/api/export?format=xml", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ports.ErrUnauthorized, http.StatusUnauthorized},
		{ports.ErrNotFound, http.StatusNotFound},
		{ports.ErrInvalidTransition, http.StatusConflict},
		{ports.ErrManualProfitSet, http.StatusConflict},
		{ports.ErrInvalidRequest, http.StatusBadRequest},
		{export.ErrHeaderMismatch, http.StatusBadRequest},
		{context.Canceled, http.StatusInternalServerError},
		{ports.ErrContextCanceled, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
