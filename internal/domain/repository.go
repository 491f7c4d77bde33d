package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by repositories when the requested entity does
// not exist. Callers use errors.Is to distinguish absence from failure.
var ErrNotFound = errors.New("entity not found")

// AssetRepository defines the interface for asset persistence operations
type AssetRepository interface {
	// Create creates a new asset
	Create(ctx context.Context, asset *Asset) error

	// GetByID retrieves an asset by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Asset, error)

	// List retrieves all tracked assets
	List(ctx context.Context) ([]*Asset, error)

	// UpdatePrice overwrites the asset's current price and last-updated
	// timestamp (last-write-wins)
	UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal, updatedAt time.Time) error
}

// HoldingRepository defines the interface for holding persistence operations
type HoldingRepository interface {
	// Create creates a new holding
	Create(ctx context.Context, holding *Holding) error

	// GetByUserAndAsset retrieves the user's holding in one asset
	GetByUserAndAsset(ctx context.Context, userID, assetID uuid.UUID) (*Holding, error)

	// Update overwrites the holding's quantity, average cost, and derived
	// total invested
	Update(ctx context.Context, holding *Holding) error

	// ListPositions performs the holdings-with-assets join for a user.
	// Positions whose asset row is missing come back with empty ticker and
	// name; the caller maps them to placeholders.
	ListPositions(ctx context.Context, userID uuid.UUID) ([]*Position, error)
}

// TransactionRepository defines the interface for the append-only
// transaction log
type TransactionRepository interface {
	// Create appends a transaction record
	Create(ctx context.Context, tx *Transaction) error
}

// CashRepository defines the interface for cash balance persistence
type CashRepository interface {
	// Get retrieves the user's balance for a currency
	Get(ctx context.Context, userID uuid.UUID, currency string) (*CashBalance, error)

	// Upsert overwrites the user's balance for a currency
	Upsert(ctx context.Context, balance *CashBalance) error
}

// HistoryRepository defines the interface for portfolio value snapshots
type HistoryRepository interface {
	// Add appends a history point
	Add(ctx context.Context, point *HistoryPoint) error

	// ListRecent retrieves at most limit points, most recent first
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*HistoryPoint, error)
}
