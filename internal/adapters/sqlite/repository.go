package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/shopspring/decimal"

	"tradeJournal/internal/domain"
	"tradeJournal/internal/ports"
)

// Repository implements the ports.TradeRepository and ports.SettingsRepository interfaces using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/journal.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Data directory checked/created", map[string]interface{}{"path": filepath.Dir(dbPath)})

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %v", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// A single connection serializes writers; WAL keeps readers unblocked.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
// Money columns are TEXT so decimals survive without float rounding.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		strategy TEXT NOT NULL DEFAULT '',
		entry_date TIMESTAMP NOT NULL,
		entry_price TEXT NOT NULL,
		quantity TEXT NOT NULL,
		exit_date TIMESTAMP DEFAULT NULL,
		exit_price TEXT DEFAULT NULL,
		status TEXT NOT NULL,
		commission TEXT NOT NULL DEFAULT '0',
		fees TEXT NOT NULL DEFAULT '0',
		manual_profit TEXT DEFAULT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		owner_id TEXT PRIMARY KEY,
		auto_calculate_profit INTEGER NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	-- Add indexes for common lookups
	CREATE INDEX IF NOT EXISTS idx_trades_owner_entry_date ON trades (owner_id, entry_date);
	CREATE INDEX IF NOT EXISTS idx_trades_owner_symbol ON trades (owner_id, symbol);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- TradeRepository Implementation ---

const tradeColumns = `id, owner_id, symbol, side, strategy, entry_date, entry_price, quantity,
	       exit_date, exit_price, status, commission, fees, manual_profit, notes, created_at, updated_at`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Create saves a new trade.
func (r *Repository) Create(ctx context.Context, trade *domain.Trade) error {
	if err := insertTrade(ctx, r.db, trade); err != nil {
		return err
	}
	r.logger.Debug(ctx, "Trade created", map[string]interface{}{"tradeID": trade.ID, "symbol": trade.Symbol})
	return nil
}

// CreateBatch saves every trade in one transaction. On error nothing is stored.
func (r *Repository) CreateBatch(ctx context.Context, trades []domain.Trade) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w: %v", ports.ErrQueryFailed, err)
	}
	defer tx.Rollback() // no-op after Commit

	for i := range trades {
		if err := insertTrade(ctx, tx, &trades[i]); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trades: %w: %v", ports.ErrQueryFailed, err)
	}

	r.logger.Debug(ctx, "Trades created", map[string]interface{}{"count": len(trades)})
	return nil
}

func insertTrade(ctx context.Context, ex execer, trade *domain.Trade) error {
	const query = `
	INSERT INTO trades (` + tradeColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := ex.ExecContext(ctx, query,
		trade.ID, trade.OwnerID, trade.Symbol, trade.Side, trade.Strategy,
		trade.EntryDate.UTC(), trade.EntryPrice, trade.Quantity,
		nullTime(trade.ExitDate), trade.ExitPrice, trade.Status,
		trade.Commission, trade.Fees, trade.ManualProfit, trade.Notes,
		trade.CreatedAt.UTC(), trade.UpdatedAt.UTC())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return fmt.Errorf("trade ID %s: %w", trade.ID, ports.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to insert trade for symbol %s: %w: %v", trade.Symbol, ports.ErrQueryFailed, err)
	}
	return nil
}

// Update modifies an existing trade based on its ID and owner.
func (r *Repository) Update(ctx context.Context, trade *domain.Trade) error {
	const query = `
	UPDATE trades
	SET symbol = ?, side = ?, strategy = ?, entry_date = ?, entry_price = ?, quantity = ?,
	    exit_date = ?, exit_price = ?, status = ?, commission = ?, fees = ?,
	    manual_profit = ?, notes = ?, updated_at = ?
	WHERE id = ? AND owner_id = ?`

	result, err := r.db.ExecContext(ctx, query,
		trade.Symbol, trade.Side, trade.Strategy, trade.EntryDate.UTC(), trade.EntryPrice, trade.Quantity,
		nullTime(trade.ExitDate), trade.ExitPrice, trade.Status, trade.Commission, trade.Fees,
		trade.ManualProfit, trade.Notes, trade.UpdatedAt.UTC(),
		trade.ID, trade.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to update trade ID %s: %w: %v", trade.ID, ports.ErrUpdateFailed, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for update trade ID %s: %w", trade.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("trade ID %s not found for update: %w", trade.ID, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Trade updated", map[string]interface{}{"tradeID": trade.ID, "status": trade.Status})
	return nil
}

// Delete removes a trade.
func (r *Repository) Delete(ctx context.Context, ownerID, id string) error {
	const query = `DELETE FROM trades WHERE id = ? AND owner_id = ?`

	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete trade ID %s: %w: %v", id, ports.ErrDeleteFailed, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for delete trade ID %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("trade ID %s not found for delete: %w", id, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Trade deleted", map[string]interface{}{"tradeID": id})
	return nil
}

// FindByID retrieves a trade by its ID.
func (r *Repository) FindByID(ctx context.Context, ownerID, id string) (*domain.Trade, error) {
	const query = `SELECT ` + tradeColumns + ` FROM trades WHERE id = ? AND owner_id = ?`

	row := r.db.QueryRowContext(ctx, query, id, ownerID)
	trade, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "Trade not found by ID", map[string]interface{}{"tradeID": id})
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("failed to query trade by ID %s: %w", id, err)
	}
	return trade, nil
}

// FindByOwner retrieves the owner's trades matching q, ordered by entry date.
func (r *Repository) FindByOwner(ctx context.Context, ownerID string, q ports.TradeQuery) ([]domain.Trade, error) {
	conds := []string{"owner_id = ?"}
	args := []interface{}{ownerID}

	if q.Symbol != "" {
		conds = append(conds, "symbol = ?")
		args = append(args, domain.NormalizeSymbol(q.Symbol))
	}
	if s := strings.TrimSpace(q.Strategy); s != "" {
		conds = append(conds, "LOWER(TRIM(strategy)) = LOWER(?)")
		args = append(args, s)
	}
	if q.Side != "" {
		conds = append(conds, "side = ?")
		args = append(args, q.Side)
	}
	if q.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, q.Status)
	}
	if !q.From.IsZero() {
		conds = append(conds, "entry_date >= ?")
		args = append(args, q.From.UTC())
	}
	if !q.To.IsZero() {
		conds = append(conds, "entry_date < ?")
		args = append(args, q.To.UTC())
	}

	query := `SELECT ` + tradeColumns + ` FROM trades WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY entry_date ASC, id ASC`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for owner %s: %w: %v", ownerID, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	trades := make([]domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade during FindByOwner: %w", err)
		}
		trades = append(trades, *trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

// ListOwners returns every owner with at least one trade, sorted.
func (r *Repository) ListOwners(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT owner_id FROM trades ORDER BY owner_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	owners := make([]string, 0)
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("failed to scan owner: %w", err)
		}
		owners = append(owners, owner)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating owner rows: %w", err)
	}
	return owners, nil
}

// --- SettingsRepository Implementation ---

// GetSettings returns nil, nil when the owner has never saved settings.
func (r *Repository) GetSettings(ctx context.Context, ownerID string) (*domain.Settings, error) {
	const query = `SELECT owner_id, auto_calculate_profit FROM settings WHERE owner_id = ?`

	s := &domain.Settings{}
	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(&s.OwnerID, &s.AutoCalculateProfit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query settings for owner %s: %w", ownerID, err)
	}
	return s, nil
}

// SaveSettings inserts or replaces the owner's settings.
func (r *Repository) SaveSettings(ctx context.Context, s *domain.Settings) error {
	const query = `
	INSERT INTO settings (owner_id, auto_calculate_profit, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(owner_id) DO UPDATE SET
		auto_calculate_profit = excluded.auto_calculate_profit,
		updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query, s.OwnerID, s.AutoCalculateProfit, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save settings for owner %s: %w: %v", s.OwnerID, ports.ErrUpdateFailed, err)
	}
	r.logger.Debug(ctx, "Settings saved", map[string]interface{}{"owner": s.OwnerID, "autoCalculateProfit": s.AutoCalculateProfit})
	return nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanTrade scans a row into a domain.Trade struct.
func scanTrade(s scanner) (*domain.Trade, error) {
	t := &domain.Trade{}
	var side, status string
	var exitDate sql.NullTime
	var exitPrice, manualProfit decimal.NullDecimal
	err := s.Scan(
		&t.ID, &t.OwnerID, &t.Symbol, &side, &t.Strategy, &t.EntryDate, &t.EntryPrice, &t.Quantity,
		&exitDate, &exitPrice, &status, &t.Commission, &t.Fees, &manualProfit, &t.Notes,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	t.Side = domain.Side(side)
	t.Status = domain.TradeStatus(status)
	if exitDate.Valid {
		d := exitDate.Time
		t.ExitDate = &d
	}
	t.ExitPrice = exitPrice
	t.ManualProfit = manualProfit
	return t, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
