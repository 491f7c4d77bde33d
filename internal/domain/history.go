package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HistoryPoint is a periodic snapshot of the total portfolio value,
// used for charting. Append-only.
type HistoryPoint struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	RecordedAt time.Time
	TotalValue decimal.Decimal
}
