package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradeJournal/config"
	"tradeJournal/internal/analytics"
	"tradeJournal/internal/domain"
	"tradeJournal/internal/export"
	"tradeJournal/internal/ports"
)

// JournalService orchestrates journal operations for authenticated owners.
// All reporting is delegated to the pure analytics package.
type JournalService struct {
	cfg      *config.Config
	logger   ports.Logger
	trades   ports.TradeRepository
	settings ports.SettingsRepository

	now   func() time.Time
	newID func() string
}

// NewJournalService creates a new application service instance.
func NewJournalService(
	cfg *config.Config,
	logger ports.Logger,
	trades ports.TradeRepository,
	settings ports.SettingsRepository,
) (*JournalService, error) {

	// Validate dependencies
	if cfg == nil || logger == nil || trades == nil || settings == nil {
		return nil, fmt.Errorf("missing required dependencies for JournalService")
	}

	return &JournalService{
		cfg:      cfg,
		logger:   logger,
		trades:   trades,
		settings: settings,
		now:      time.Now,
		newID:    uuid.NewString,
	}, nil
}

// Location returns the time zone used for calendar grouping and periods.
func (s *JournalService) Location() *time.Location {
	if s.cfg.Location == nil {
		return time.UTC
	}
	return s.cfg.Location
}

// --- Trades ---

// CreateTrade records a new trade for the owner. A missing status defaults to
// OPEN. The stored trade, with its generated ID, is returned.
func (s *JournalService) CreateTrade(ctx context.Context, ownerID string, t domain.Trade) (*domain.Trade, error) {
	if err := s.prepare(ownerID, &t); err != nil {
		return nil, err
	}
	if err := s.trades.Create(ctx, &t); err != nil {
		s.logger.Error(ctx, err, "Failed to create trade", map[string]interface{}{"owner": ownerID, "symbol": t.Symbol})
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}

	s.logger.Info(ctx, "Trade created", map[string]interface{}{
		"owner":   ownerID,
		"tradeID": t.ID,
		"symbol":  t.Symbol,
		"side":    t.Side,
		"status":  t.Status,
	})
	return &t, nil
}

// prepare assigns identity, ownership and timestamps, then validates.
func (s *JournalService) prepare(ownerID string, t *domain.Trade) error {
	if ownerID == "" {
		return ports.ErrUnauthorized
	}
	now := s.now().UTC()
	t.ID = s.newID()
	t.OwnerID = ownerID
	t.Symbol = domain.NormalizeSymbol(t.Symbol)
	if t.Status == "" {
		t.Status = domain.StatusOpen
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	return t.Validate()
}

// GetTrade returns one of the owner's trades with its metrics.
func (s *JournalService) GetTrade(ctx context.Context, ownerID, id string) (*analytics.NormalizedTrade, error) {
	t, err := s.findTrade(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	auto, err := s.autoCalculate(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &analytics.NormalizedTrade{Trade: *t, Metrics: analytics.CalculateTradeMetrics(*t, auto)}, nil
}

// ListTrades returns the owner's trades matching f, with metrics, ordered by entry date.
func (s *JournalService) ListTrades(ctx context.Context, ownerID string, f analytics.Filter) ([]analytics.NormalizedTrade, error) {
	trades, auto, err := s.load(ctx, ownerID, f)
	if err != nil {
		return nil, err
	}
	return analytics.Normalize(trades, auto), nil
}

// CloseInput carries the fields recorded when a trade is closed.
type CloseInput struct {
	ExitDate     time.Time
	ExitPrice    decimal.Decimal
	Commission   decimal.NullDecimal // replaces the stored value when set
	Fees         decimal.NullDecimal // replaces the stored value when set
	ManualProfit decimal.NullDecimal
}

// CloseTrade moves an OPEN trade to CLOSED. A manual profit already on the
// trade is never overwritten.
func (s *JournalService) CloseTrade(ctx context.Context, ownerID, id string, in CloseInput) (*domain.Trade, error) {
	t, err := s.findTrade(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if t.Status != domain.StatusOpen {
		return nil, fmt.Errorf("cannot close trade %s in status %s: %w", id, t.Status, ports.ErrInvalidTransition)
	}
	if in.ManualProfit.Valid && t.ManualProfit.Valid {
		return nil, fmt.Errorf("trade %s: %w", id, ports.ErrManualProfitSet)
	}

	exitDate := in.ExitDate
	if exitDate.IsZero() {
		exitDate = s.now().UTC()
	}
	t.ExitDate = &exitDate
	t.ExitPrice = decimal.NewNullDecimal(in.ExitPrice)
	t.Status = domain.StatusClosed
	if in.Commission.Valid {
		t.Commission = in.Commission.Decimal
	}
	if in.Fees.Valid {
		t.Fees = in.Fees.Decimal
	}
	if in.ManualProfit.Valid {
		t.ManualProfit = in.ManualProfit
	}

	if err := s.update(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "Trade closed", map[string]interface{}{
		"owner":     ownerID,
		"tradeID":   id,
		"exitPrice": in.ExitPrice.String(),
	})
	return t, nil
}

// CancelTrade marks an OPEN trade as CANCELLED.
func (s *JournalService) CancelTrade(ctx context.Context, ownerID, id string) (*domain.Trade, error) {
	t, err := s.findTrade(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if t.Status != domain.StatusOpen {
		return nil, fmt.Errorf("cannot cancel trade %s in status %s: %w", id, t.Status, ports.ErrInvalidTransition)
	}
	t.Status = domain.StatusCancelled

	if err := s.update(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "Trade cancelled", map[string]interface{}{"owner": ownerID, "tradeID": id})
	return t, nil
}

// DeleteTrade removes one of the owner's trades.
func (s *JournalService) DeleteTrade(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return ports.ErrUnauthorized
	}
	if err := s.trades.Delete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}
	s.logger.Info(ctx, "Trade deleted", map[string]interface{}{"owner": ownerID, "tradeID": id})
	return nil
}

// --- Settings ---

// GetSettings returns the owner's stored settings, or the configured defaults.
func (s *JournalService) GetSettings(ctx context.Context, ownerID string) (domain.Settings, error) {
	if ownerID == "" {
		return domain.Settings{}, ports.ErrUnauthorized
	}
	stored, err := s.settings.GetSettings(ctx, ownerID)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	if stored == nil {
		return domain.DefaultSettings(ownerID, s.cfg.DefaultAutoCalculateProfit), nil
	}
	return *stored, nil
}

// UpdateSettings stores the owner's profit calculation mode.
func (s *JournalService) UpdateSettings(ctx context.Context, ownerID string, autoCalculateProfit bool) (domain.Settings, error) {
	if ownerID == "" {
		return domain.Settings{}, ports.ErrUnauthorized
	}
	settings := domain.Settings{OwnerID: ownerID, AutoCalculateProfit: autoCalculateProfit}
	if err := s.settings.SaveSettings(ctx, &settings); err != nil {
		return domain.Settings{}, fmt.Errorf("failed to save settings: %w", err)
	}
	s.logger.Info(ctx, "Settings updated", map[string]interface{}{"owner": ownerID, "autoCalculateProfit": autoCalculateProfit})
	return settings, nil
}

// --- Reports ---

// Report bundles the aggregate and path-dependent statistics.
type Report struct {
	Summary analytics.SummaryStatistics `json:"summary"`
	Risk    analytics.RiskMetrics       `json:"risk"`
}

// Summary aggregates the owner's trades matching f.
func (s *JournalService) Summary(ctx context.Context, ownerID string, f analytics.Filter) (Report, error) {
	trades, auto, err := s.load(ctx, ownerID, f)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Summary: analytics.Summarize(trades, auto),
		Risk:    analytics.AnalyzeRisk(trades, auto),
	}, nil
}

// Breakdown groups the owner's trades by the named key (symbol, strategy,
// side, day, month or year). topN > 0 truncates after sorting.
func (s *JournalService) Breakdown(ctx context.Context, ownerID, by string, topN int, f analytics.Filter) ([]analytics.GroupBreakdown, error) {
	g, err := analytics.ParseGrouping(by, s.Location())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
	}
	trades, auto, err := s.load(ctx, ownerID, f)
	if err != nil {
		return nil, err
	}
	return analytics.GroupBy(trades, auto, g, topN), nil
}

// TopTrades returns the owner's n biggest winners or losers.
func (s *JournalService) TopTrades(ctx context.Context, ownerID string, n int, winners bool, f analytics.Filter) ([]analytics.NormalizedTrade, error) {
	trades, auto, err := s.load(ctx, ownerID, f)
	if err != nil {
		return nil, err
	}
	return analytics.TopTrades(trades, auto, n, winners), nil
}

// ComparePeriods compares the calendar period containing ref with the one
// before it, in the service's location.
func (s *JournalService) ComparePeriods(ctx context.Context, ownerID string, unit analytics.CalendarUnit, ref time.Time) (analytics.ComparisonResult, error) {
	current, err := analytics.CalendarWindow(unit, ref, s.Location())
	if err != nil {
		return analytics.ComparisonResult{}, fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
	}
	return s.compare(ctx, ownerID, current, analytics.PreviousCalendarWindow(unit, current))
}

// CompareRange compares current with the window of identical length right before it.
func (s *JournalService) CompareRange(ctx context.Context, ownerID string, current analytics.Window) (analytics.ComparisonResult, error) {
	return s.compare(ctx, ownerID, current, analytics.PrecedingWindow(current))
}

func (s *JournalService) compare(ctx context.Context, ownerID string, current, previous analytics.Window) (analytics.ComparisonResult, error) {
	if err := current.Validate(); err != nil {
		return analytics.ComparisonResult{}, fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
	}
	span := analytics.Window{Start: previous.Start, End: current.End}
	trades, auto, err := s.load(ctx, ownerID, analytics.Filter{Window: &span})
	if err != nil {
		return analytics.ComparisonResult{}, err
	}
	res, err := analytics.Compare(trades, auto, current, previous)
	if err != nil {
		return analytics.ComparisonResult{}, fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
	}
	return res, nil
}

// --- Export / Import ---

// ExportRows returns the owner's trades entered in w (all when nil) as export rows.
func (s *JournalService) ExportRows(ctx context.Context, ownerID string, w *analytics.Window) ([]export.Row, error) {
	trades, auto, err := s.load(ctx, ownerID, analytics.Filter{Window: w})
	if err != nil {
		return nil, err
	}
	return export.Rows(trades, auto, s.Location()), nil
}

// ExportCSV writes the owner's trades entered in w (all when nil) as CSV.
func (s *JournalService) ExportCSV(ctx context.Context, ownerID string, w *analytics.Window, out io.Writer) error {
	trades, auto, err := s.load(ctx, ownerID, analytics.Filter{Window: w})
	if err != nil {
		return err
	}
	if err := export.WriteCSV(out, trades, auto, s.Location()); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	s.logger.Debug(ctx, "Trades exported", map[string]interface{}{"owner": ownerID, "count": len(trades)})
	return nil
}

// ImportCSV creates a trade for every row of a CSV export. The import is
// all or nothing: an invalid row or a storage failure stores no trade.
func (s *JournalService) ImportCSV(ctx context.Context, ownerID string, in io.Reader) ([]domain.Trade, error) {
	if ownerID == "" {
		return nil, ports.ErrUnauthorized
	}
	rows, err := export.ReadCSV(in, s.Location())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
	}
	for i := range rows {
		if err := s.prepare(ownerID, &rows[i]); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	if err := s.trades.CreateBatch(ctx, rows); err != nil {
		s.logger.Error(ctx, err, "Failed to import trades", map[string]interface{}{"owner": ownerID, "count": len(rows)})
		return nil, fmt.Errorf("failed to import trades: %w", err)
	}
	s.logger.Info(ctx, "Trades imported", map[string]interface{}{"owner": ownerID, "count": len(rows)})
	return rows, nil
}

// Owners lists every owner with stored trades.
func (s *JournalService) Owners(ctx context.Context) ([]string, error) {
	owners, err := s.trades.ListOwners(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}
	return owners, nil
}

// --- Helpers ---

func (s *JournalService) findTrade(ctx context.Context, ownerID, id string) (*domain.Trade, error) {
	if ownerID == "" {
		return nil, ports.ErrUnauthorized
	}
	t, err := s.trades.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load trade: %w", err)
	}
	if t == nil {
		return nil, fmt.Errorf("trade %s: %w", id, ports.ErrNotFound)
	}
	return t, nil
}

func (s *JournalService) update(ctx context.Context, t *domain.Trade) error {
	t.UpdatedAt = s.now().UTC()
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.trades.Update(ctx, t); err != nil {
		s.logger.Error(ctx, err, "Failed to update trade", map[string]interface{}{"tradeID": t.ID})
		return fmt.Errorf("failed to update trade: %w", err)
	}
	return nil
}

func (s *JournalService) autoCalculate(ctx context.Context, ownerID string) (bool, error) {
	settings, err := s.GetSettings(ctx, ownerID)
	if err != nil {
		return false, err
	}
	return settings.AutoCalculateProfit, nil
}

// load fetches the owner's trades matching f together with the owner's
// profit calculation mode.
func (s *JournalService) load(ctx context.Context, ownerID string, f analytics.Filter) ([]domain.Trade, bool, error) {
	if ownerID == "" {
		return nil, false, ports.ErrUnauthorized
	}
	auto, err := s.autoCalculate(ctx, ownerID)
	if err != nil {
		return nil, false, err
	}
	trades, err := s.trades.FindByOwner(ctx, ownerID, toQuery(f))
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return nil, false, fmt.Errorf("%w: %w", ports.ErrContextCanceled, err)
		case errors.Is(err, context.DeadlineExceeded):
			return nil, false, fmt.Errorf("%w: %w", ports.ErrTimeout, err)
		}
		return nil, false, fmt.Errorf("failed to load trades: %w", err)
	}
	return trades, auto, nil
}

func toQuery(f analytics.Filter) ports.TradeQuery {
	q := ports.TradeQuery{
		Symbol:   f.Symbol,
		Strategy: f.Strategy,
		Side:     f.Side,
		Status:   f.Status,
		Limit:    f.Limit,
	}
	if f.Window != nil {
		q.From = f.Window.Start
		q.To = f.Window.End
	}
	return q
}
