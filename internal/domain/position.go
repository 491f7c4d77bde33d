package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Placeholder values rendered when a holding's asset row is missing or
// incomplete. The dashboard shows these instead of failing the whole load.
const (
	PlaceholderSymbol = "N/A"
	PlaceholderName   = "Sin nombre"
)

// Position is the ephemeral view model computed per load from the
// Holding + Asset join. It is never persisted.
type Position struct {
	ID               uuid.UUID
	AssetID          uuid.UUID
	Ticker           string
	Name             string
	Quantity         decimal.Decimal
	AvgPurchasePrice decimal.Decimal
	CurrentPrice     decimal.Decimal // zero when unknown
}

// MarketValue returns the position's current market value.
func (p *Position) MarketValue() decimal.Decimal {
	return p.Quantity.Mul(p.CurrentPrice)
}

// Invested returns the position's cost basis.
func (p *Position) Invested() decimal.Decimal {
	return p.Quantity.Mul(p.AvgPurchasePrice)
}
