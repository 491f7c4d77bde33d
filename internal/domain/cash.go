package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashBalance is a single scalar per user per currency. It is directly
// overwritten by user edits and is not derived from transactions.
type CashBalance struct {
	UserID    uuid.UUID
	Currency  string
	Amount    decimal.Decimal
	UpdatedAt time.Time
}

// Validate ensures the cash balance adheres to domain rules
func (c *CashBalance) Validate() error {
	if c.UserID == uuid.Nil {
		return errors.New("cash balance must belong to a user")
	}

	if c.Currency == "" {
		return errors.New("cash balance currency cannot be empty")
	}

	if c.Amount.IsNegative() {
		return errors.New("cash balance amount cannot be negative")
	}

	return nil
}
