package postgres

import (
	"context"
	"fmt"
)

// schema creates the dashboard tables when they do not exist yet. DECIMAL
// precision is generous enough for crypto quantities and peso prices.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS assets (
		id UUID PRIMARY KEY,
		symbol TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		current_price DECIMAL(28, 10) NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT 'USD',
		last_updated TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS portfolio_holdings (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		asset_id UUID NOT NULL,
		total_quantity DECIMAL(28, 10) NOT NULL DEFAULT 0,
		average_cost DECIMAL(28, 10) NOT NULL DEFAULT 0,
		total_invested DECIMAL(28, 10) NOT NULL DEFAULT 0,
		UNIQUE (user_id, asset_id)
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		asset_id UUID NOT NULL,
		type TEXT NOT NULL,
		quantity DECIMAL(28, 10) NOT NULL,
		price_per_unit DECIMAL(28, 10) NOT NULL,
		total_amount DECIMAL(28, 10) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cash_balance (
		user_id UUID NOT NULL,
		currency TEXT NOT NULL,
		amount DECIMAL(28, 10) NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, currency)
	)`,
	`CREATE TABLE IF NOT EXISTS portfolio_history (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL,
		total_value DECIMAL(28, 10) NOT NULL
	)`,
}

// Bootstrap ensures the dashboard schema exists.
func Bootstrap(ctx context.Context, db *DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to bootstrap schema: %w", err)
		}
	}
	return nil
}
