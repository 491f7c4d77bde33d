package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetType represents the class of a tracked asset
type AssetType string

const (
	AssetTypeEquity AssetType = "equity"
	AssetTypeCrypto AssetType = "crypto"
	AssetTypeFund   AssetType = "fund"
	AssetTypeBond   AssetType = "bond"
)

// Asset represents a tradable instrument tracked by the dashboard.
// The current price is mutable and last-write-wins: it is overwritten by
// price refreshes and by manual edits.
type Asset struct {
	ID           uuid.UUID
	Symbol       string
	Name         string
	Type         AssetType
	CurrentPrice decimal.Decimal
	Currency     string
	LastUpdated  time.Time
}

// HasQuoteSource reports whether a market price source is wired for this
// asset class. Only equity-like assets can be refreshed; crypto and bonds
// have no provider.
func (a *Asset) HasQuoteSource() bool {
	return a.Type == AssetTypeEquity || a.Type == AssetTypeFund
}

// Validate ensures the asset adheres to domain rules
// Returns an error if validation fails
func (a *Asset) Validate() error {
	if a.Symbol == "" {
		return errors.New("asset symbol cannot be empty")
	}

	if a.Name == "" {
		return errors.New("asset name cannot be empty")
	}

	switch a.Type {
	case AssetTypeEquity, AssetTypeCrypto, AssetTypeFund, AssetTypeBond:
	default:
		return errors.New("asset type must be equity, crypto, fund, or bond")
	}

	if a.CurrentPrice.IsNegative() {
		return errors.New("asset current price cannot be negative")
	}

	return nil
}
