package ports

import (
	"context"
	"time"

	"tradeJournal/internal/domain"
)

// TradeQuery narrows FindByOwner. Zero-valued fields are ignored.
type TradeQuery struct {
	Symbol   string
	Strategy string // case-insensitive
	Side     domain.Side
	Status   domain.TradeStatus
	From     time.Time // inclusive, on entry date
	To       time.Time // exclusive, on entry date
	Limit    int
}

// TradeRepository defines the interface for storing and retrieving journal trades.
// Every lookup is scoped to a single owner.
type TradeRepository interface {
	// Create saves a new trade. The trade must already carry its ID.
	Create(ctx context.Context, trade *domain.Trade) error
	// CreateBatch saves all trades or none of them.
	CreateBatch(ctx context.Context, trades []domain.Trade) error
	// Update modifies an existing trade. Returns ErrNotFound if it does not exist.
	Update(ctx context.Context, trade *domain.Trade) error
	// Delete removes a trade. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, ownerID, id string) error
	// FindByID retrieves a trade by its ID.
	// Returns nil, nil if not found.
	FindByID(ctx context.Context, ownerID, id string) (*domain.Trade, error)
	// FindByOwner retrieves the owner's trades ordered by entry date ascending.
	FindByOwner(ctx context.Context, ownerID string, q TradeQuery) ([]domain.Trade, error)
	// ListOwners returns every owner that has at least one trade.
	ListOwners(ctx context.Context) ([]string, error)
}

// SettingsRepository stores per-owner journal preferences.
type SettingsRepository interface {
	// GetSettings returns nil, nil when the owner has never saved settings.
	GetSettings(ctx context.Context, ownerID string) (*domain.Settings, error)
	SaveSettings(ctx context.Context, s *domain.Settings) error
}
