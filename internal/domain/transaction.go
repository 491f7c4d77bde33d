package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the direction of a recorded operation
type TransactionType string

const (
	TransactionTypeBuy  TransactionType = "buy"
	TransactionTypeSell TransactionType = "sell"
)

// Transaction is an immutable, append-only record of a buy or sell
// operation. It is written alongside the holding mutation and serves as an
// audit trail; nothing is ever reconciled back from it.
type Transaction struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	AssetID      uuid.UUID
	Type         TransactionType
	Quantity     decimal.Decimal
	PricePerUnit decimal.Decimal
	TotalAmount  decimal.Decimal // Quantity * PricePerUnit
	CreatedAt    time.Time
}

// NewTransaction builds a transaction record for an operation, deriving the
// total amount from quantity and unit price.
func NewTransaction(userID, assetID uuid.UUID, txType TransactionType, quantity, pricePerUnit decimal.Decimal, at time.Time) *Transaction {
	return &Transaction{
		ID:           uuid.New(),
		UserID:       userID,
		AssetID:      assetID,
		Type:         txType,
		Quantity:     quantity,
		PricePerUnit: pricePerUnit,
		TotalAmount:  quantity.Mul(pricePerUnit),
		CreatedAt:    at,
	}
}

// Validate ensures the transaction adheres to domain rules
// Returns an error if validation fails
func (t *Transaction) Validate() error {
	if t.UserID == uuid.Nil {
		return errors.New("transaction must belong to a user")
	}

	if t.AssetID == uuid.Nil {
		return errors.New("transaction must reference an asset")
	}

	if t.Type != TransactionTypeBuy && t.Type != TransactionTypeSell {
		return errors.New("transaction type must be buy or sell")
	}

	if t.Quantity.LessThanOrEqual(decimal.Zero) {
		return errors.New("transaction quantity must be positive")
	}

	if t.PricePerUnit.IsNegative() {
		return errors.New("transaction price per unit cannot be negative")
	}

	if !t.TotalAmount.Equal(t.Quantity.Mul(t.PricePerUnit)) {
		return errors.New("transaction total amount must equal quantity * price per unit")
	}

	return nil
}
