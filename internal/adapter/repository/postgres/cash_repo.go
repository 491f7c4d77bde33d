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

// cashRepository implements domain.CashRepository
type cashRepository struct {
	db *DB
}

// NewCashRepository creates a new cash balance repository
func NewCashRepository(db *DB) domain.CashRepository {
	return &cashRepository{db: db}
}

// Get retrieves the user's balance for a currency
func (r *cashRepository) Get(ctx context.Context, userID uuid.UUID, currency string) (*domain.CashBalance, error) {
	query := `
		SELECT user_id, currency, amount, updated_at
		FROM cash_balance
		WHERE user_id = $1 AND currency = $2
	`

	var balance domain.CashBalance
	var amountStr string

	err := r.db.QueryRowContext(ctx, query, userID, currency).Scan(
		&balance.UserID,
		&balance.Currency,
		&amountStr,
		&balance.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cash balance: %w", err)
	}

	if balance.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}

	return &balance, nil
}

// Upsert overwrites the user's balance for a currency (last-write-wins)
func (r *cashRepository) Upsert(ctx context.Context, balance *domain.CashBalance) error {
	query := `
		INSERT INTO cash_balance (user_id, currency, amount, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, currency)
		DO UPDATE SET amount = EXCLUDED.amount, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		balance.UserID,
		balance.Currency,
		balance.Amount.String(),
		balance.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cash balance: %w", err)
	}

	return nil
}
