// Package valuation computes aggregate portfolio KPIs from positions.
// Everything here is pure: no I/O, no clock, deterministic for a given
// input, and no rounding; the presentation layer formats for display.
package valuation

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/facuvazquez/portfolio-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// KPISet holds the aggregate profit/loss figures for a set of positions.
type KPISet struct {
	TotalValue    decimal.Decimal
	TotalInvested decimal.Decimal
	PnL           decimal.Decimal
	PnLPercentage decimal.Decimal
}

// ComputeKPIs aggregates market value, invested cost, and P&L over the
// given positions. Zero invested capital yields a 0% P&L, not a division
// blow-up.
func ComputeKPIs(positions []*domain.Position) KPISet {
	totalValue := decimal.Zero
	totalInvested := decimal.Zero

	for _, pos := range positions {
		totalValue = totalValue.Add(pos.MarketValue())
		totalInvested = totalInvested.Add(pos.Invested())
	}

	pnl := totalValue.Sub(totalInvested)

	pnlPercentage := decimal.Zero
	if totalInvested.IsPositive() {
		pnlPercentage = pnl.Div(totalInvested).Mul(hundred)
	}

	return KPISet{
		TotalValue:    totalValue,
		TotalInvested: totalInvested,
		PnL:           pnl,
		PnLPercentage: pnlPercentage,
	}
}

// Annualize converts a holding-period return into an annualized percentage:
// ((value/invested)^(365/days) - 1) * 100. Returns zero when the span is
// shorter than a day or nothing was invested. Computed through float64
// since the exponent is fractional; callers only display this figure.
func Annualize(invested, value decimal.Decimal, span time.Duration) decimal.Decimal {
	days := span.Hours() / 24
	if days < 1 || !invested.IsPositive() {
		return decimal.Zero
	}

	growth, _ := value.Div(invested).Float64()
	if growth <= 0 {
		// A total loss (or worse input) has no meaningful annualized rate.
		return decimal.NewFromInt(-100)
	}

	annualized := (math.Pow(growth, 365/days) - 1) * 100

	return decimal.NewFromFloat(annualized)
}
