package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facuvazquez/portfolio-backend/internal/domain"
)

// assetRepository implements domain.AssetRepository
type assetRepository struct {
	db *DB
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(db *DB) domain.AssetRepository {
	return &assetRepository{db: db}
}

// Create creates a new asset
func (r *assetRepository) Create(ctx context.Context, asset *domain.Asset) error {
	query := `
		INSERT INTO assets (id, symbol, name, type, current_price, currency, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		asset.ID,
		asset.Symbol,
		asset.Name,
		string(asset.Type),
		asset.CurrentPrice.String(),
		asset.Currency,
		asset.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to insert asset: %w", err)
	}

	return nil
}

// GetByID retrieves an asset by its ID
func (r *assetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	query := `
		SELECT id, symbol, name, type, current_price, currency, last_updated
		FROM assets
		WHERE id = $1
	`

	asset, err := scanAsset(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	return asset, nil
}

// List retrieves all tracked assets
func (r *assetRepository) List(ctx context.Context) ([]*domain.Asset, error) {
	query := `
		SELECT id, symbol, name, type, current_price, currency, last_updated
		FROM assets
		ORDER BY symbol
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var assets []*domain.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assets: %w", err)
	}

	return assets, nil
}

// UpdatePrice overwrites the asset's current price and timestamp
func (r *assetRepository) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal, updatedAt time.Time) error {
	query := `
		UPDATE assets
		SET current_price = $2, last_updated = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, price.String(), updatedAt)
	if err != nil {
		return fmt.Errorf("failed to update asset price: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*domain.Asset, error) {
	var asset domain.Asset
	var assetType string
	var priceStr string

	err := row.Scan(
		&asset.ID,
		&asset.Symbol,
		&asset.Name,
		&assetType,
		&priceStr,
		&asset.Currency,
		&asset.LastUpdated,
	)
	if err != nil {
		return nil, err
	}

	asset.Type = domain.AssetType(assetType)

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse current_price: %w", err)
	}
	asset.CurrentPrice = price

	return &asset, nil
}
