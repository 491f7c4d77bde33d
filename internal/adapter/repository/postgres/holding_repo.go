package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facuvazquez/portfolio-backend/internal/domain"
)

// holdingRepository implements domain.HoldingRepository
type holdingRepository struct {
	db *DB
}

// NewHoldingRepository creates a new holding repository
func NewHoldingRepository(db *DB) domain.HoldingRepository {
	return &holdingRepository{db: db}
}

// Create creates a new holding
func (r *holdingRepository) Create(ctx context.Context, holding *domain.Holding) error {
	query := `
		INSERT INTO portfolio_holdings (id, user_id, asset_id, total_quantity, average_cost, total_invested)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		holding.ID,
		holding.UserID,
		holding.AssetID,
		holding.Quantity.String(),
		holding.AverageCost.String(),
		holding.TotalInvested().String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert holding: %w", err)
	}

	return nil
}

// GetByUserAndAsset retrieves the user's holding in one asset
func (r *holdingRepository) GetByUserAndAsset(ctx context.Context, userID, assetID uuid.UUID) (*domain.Holding, error) {
	query := `
		SELECT id, user_id, asset_id, total_quantity, average_cost
		FROM portfolio_holdings
		WHERE user_id = $1 AND asset_id = $2
	`

	var holding domain.Holding
	var quantityStr, avgCostStr string

	err := r.db.QueryRowContext(ctx, query, userID, assetID).Scan(
		&holding.ID,
		&holding.UserID,
		&holding.AssetID,
		&quantityStr,
		&avgCostStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}

	if holding.Quantity, err = decimal.NewFromString(quantityStr); err != nil {
		return nil, fmt.Errorf("failed to parse total_quantity: %w", err)
	}
	if holding.AverageCost, err = decimal.NewFromString(avgCostStr); err != nil {
		return nil, fmt.Errorf("failed to parse average_cost: %w", err)
	}

	return &holding, nil
}

// Update overwrites the holding's quantity, average cost, and total invested
func (r *holdingRepository) Update(ctx context.Context, holding *domain.Holding) error {
	query := `
		UPDATE portfolio_holdings
		SET total_quantity = $2, average_cost = $3, total_invested = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		holding.ID,
		holding.Quantity.String(),
		holding.AverageCost.String(),
		holding.TotalInvested().String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
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

// ListPositions performs the holdings-with-assets join for a user. A LEFT
// JOIN keeps holdings whose asset row is gone; their ticker and name come
// back empty and the caller maps them to placeholders.
func (r *holdingRepository) ListPositions(ctx context.Context, userID uuid.UUID) ([]*domain.Position, error) {
	query := `
		SELECT h.id, h.asset_id, COALESCE(a.symbol, ''), COALESCE(a.name, ''),
		       h.total_quantity, h.average_cost, COALESCE(a.current_price, 0)
		FROM portfolio_holdings h
		LEFT JOIN assets a ON a.id = h.asset_id
		WHERE h.user_id = $1
		ORDER BY a.symbol
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	defer rows.Close()

	var positions []*domain.Position
	for rows.Next() {
		var pos domain.Position
		var quantityStr, avgCostStr, priceStr string

		err := rows.Scan(
			&pos.ID,
			&pos.AssetID,
			&pos.Ticker,
			&pos.Name,
			&quantityStr,
			&avgCostStr,
			&priceStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}

		if pos.Quantity, err = decimal.NewFromString(quantityStr); err != nil {
			return nil, fmt.Errorf("failed to parse total_quantity: %w", err)
		}
		if pos.AvgPurchasePrice, err = decimal.NewFromString(avgCostStr); err != nil {
			return nil, fmt.Errorf("failed to parse average_cost: %w", err)
		}
		if pos.CurrentPrice, err = decimal.NewFromString(priceStr); err != nil {
			return nil, fmt.Errorf("failed to parse current_price: %w", err)
		}

		positions = append(positions, &pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate positions: %w", err)
	}

	return positions, nil
}
