package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/facuvazquez/portfolio-backend/internal/domain"
	"github.com/facuvazquez/portfolio-backend/internal/usecase/pricing"
)

const refreshJobTimeout = 2 * time.Minute

// PriceRefresher refreshes market prices for all tracked assets.
type PriceRefresher interface {
	RefreshAllPrices(ctx context.Context) (pricing.RefreshSummary, error)
}

// SnapshotRecorder persists a portfolio valuation snapshot.
type SnapshotRecorder interface {
	RecordSnapshot(ctx context.Context, userID uuid.UUID) (*domain.HistoryPoint, error)
}

// PriceRefreshJob refreshes quotes and records a valuation snapshot
// for the configured portfolio owner.
type PriceRefreshJob struct {
	prices    PriceRefresher
	snapshots SnapshotRecorder
	userID    uuid.UUID
	log       zerolog.Logger
}

// NewPriceRefreshJob creates the periodic refresh-and-snapshot job.
func NewPriceRefreshJob(prices PriceRefresher, snapshots SnapshotRecorder, userID uuid.UUID, log zerolog.Logger) *PriceRefreshJob {
	return &PriceRefreshJob{
		prices:    prices,
		snapshots: snapshots,
		userID:    userID,
		log:       log.With().Str("component", "refresh-job").Logger(),
	}
}

// Name returns the job name
func (j *PriceRefreshJob) Name() string {
	return "price-refresh"
}

// Run refreshes all asset prices, then records a history snapshot so the
// dashboard chart keeps moving even when nobody opens the app.
func (j *PriceRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), refreshJobTimeout)
	defer cancel()

	summary, err := j.prices.RefreshAllPrices(ctx)
	if err != nil {
		return fmt.Errorf("price refresh failed: %w", err)
	}

	j.log.Info().
		Int("updated", summary.Updated).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("Prices refreshed")

	point, err := j.snapshots.RecordSnapshot(ctx, j.userID)
	if err != nil {
		return fmt.Errorf("snapshot failed: %w", err)
	}

	j.log.Info().
		Str("totalValue", point.TotalValue.String()).
		Msg("Snapshot recorded")

	return nil
}
