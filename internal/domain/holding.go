package domain

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Holding represents a user's accumulated position in one asset:
// quantity held plus the cost basis paid per unit.
// Quantity is never negative; short selling is not modeled.
type Holding struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	AssetID     uuid.UUID
	Quantity    decimal.Decimal
	AverageCost decimal.Decimal
}

// TotalInvested returns the cost basis of the whole position
// (quantity * average cost per unit).
func (h *Holding) TotalInvested() decimal.Decimal {
	return h.Quantity.Mul(h.AverageCost)
}

// ApplyBuy increases the position and recomputes the weighted-average cost:
// newAvg = (oldQty*oldAvg + qty*price) / (oldQty + qty)
func (h *Holding) ApplyBuy(quantity, pricePerUnit decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return errors.New("buy quantity must be positive")
	}
	if pricePerUnit.IsNegative() {
		return errors.New("buy price cannot be negative")
	}

	newQuantity := h.Quantity.Add(quantity)
	totalCost := h.TotalInvested().Add(quantity.Mul(pricePerUnit))

	h.AverageCost = totalCost.Div(newQuantity)
	h.Quantity = newQuantity

	return nil
}

// ApplySell reduces the position. The average cost is unchanged; selling
// realizes P&L but does not alter the basis of the remaining units.
func (h *Holding) ApplySell(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return errors.New("sell quantity must be positive")
	}
	if quantity.GreaterThan(h.Quantity) {
		return errors.New("sell quantity exceeds held quantity")
	}

	h.Quantity = h.Quantity.Sub(quantity)

	return nil
}

// Validate ensures the holding adheres to domain rules
// Returns an error if validation fails
func (h *Holding) Validate() error {
	if h.UserID == uuid.Nil {
		return errors.New("holding must belong to a user")
	}

	if h.AssetID == uuid.Nil {
		return errors.New("holding must reference an asset")
	}

	if h.Quantity.IsNegative() {
		return errors.New("holding quantity cannot be negative")
	}

	if h.AverageCost.IsNegative() {
		return errors.New("holding average cost cannot be negative")
	}

	return nil
}
