package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facuvazquez/portfolio-backend/internal/domain"
)

// historyRepository implements domain.HistoryRepository
type historyRepository struct {
	db *DB
}

// NewHistoryRepository creates a new portfolio history repository
func NewHistoryRepository(db *DB) domain.HistoryRepository {
	return &historyRepository{db: db}
}

// Add appends a history point
func (r *historyRepository) Add(ctx context.Context, point *domain.HistoryPoint) error {
	query := `
		INSERT INTO portfolio_history (id, user_id, recorded_at, total_value)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		point.ID,
		point.UserID,
		point.RecordedAt,
		point.TotalValue.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history point: %w", err)
	}

	return nil
}

// ListRecent retrieves at most limit points, most recent first
func (r *historyRepository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.HistoryPoint, error) {
	query := `
		SELECT id, user_id, recorded_at, total_value
		FROM portfolio_history
		WHERE user_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var points []*domain.HistoryPoint
	for rows.Next() {
		var point domain.HistoryPoint
		var valueStr string

		err := rows.Scan(&point.ID, &point.UserID, &point.RecordedAt, &valueStr)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history point: %w", err)
		}

		if point.TotalValue, err = decimal.NewFromString(valueStr); err != nil {
			return nil, fmt.Errorf("failed to parse total_value: %w", err)
		}

		points = append(points, &point)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}

	return points, nil
}
