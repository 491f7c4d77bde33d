// Package portfolio is the data gateway between storage and the dashboard:
// it loads positions and history, applies buy/sell operations, and handles
// asset, cash, and snapshot writes.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/facuvazquez/portfolio-backend/internal/domain"
	"github.com/facuvazquez/portfolio-backend/internal/usecase/valuation"
)

// DefaultCurrency is the display currency of the dashboard. Asset prices
// are stored converted to it; the cash balance is kept in it.
const DefaultCurrency = "ARS"

// Service handles portfolio read and write operations for one user at a
// time; the user ID is always an explicit parameter, never ambient state.
type Service struct {
	Assets       domain.AssetRepository
	Holdings     domain.HoldingRepository
	Transactions domain.TransactionRepository
	Cash         domain.CashRepository
	History      domain.HistoryRepository

	log zerolog.Logger
	now func() time.Time // injectable clock for testing
}

// NewService creates a new portfolio service.
func NewService(
	assets domain.AssetRepository,
	holdings domain.HoldingRepository,
	transactions domain.TransactionRepository,
	cash domain.CashRepository,
	history domain.HistoryRepository,
	log zerolog.Logger,
) *Service {
	return &Service{
		Assets:       assets,
		Holdings:     holdings,
		Transactions: transactions,
		Cash:         cash,
		History:      history,
		log:          log.With().Str("component", "portfolio").Logger(),
		now:          time.Now,
	}
}

// LoadPositions returns the user's positions, the holdings-with-assets
// join. A holding whose asset row is missing still renders, with
// placeholder ticker and name.
func (s *Service) LoadPositions(ctx context.Context, userID uuid.UUID) ([]*domain.Position, error) {
	positions, err := s.Holdings.ListPositions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	for _, pos := range positions {
		if pos.Ticker == "" {
			pos.Ticker = domain.PlaceholderSymbol
		}
		if pos.Name == "" {
			pos.Name = domain.PlaceholderName
		}
	}

	return positions, nil
}

// LoadHistory returns at most limit of the user's most recent history
// points, in ascending chronological order for charting.
func (s *Service) LoadHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.HistoryPoint, error) {
	points, err := s.History.ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	// Storage hands back most-recent-first; the chart wants oldest-first.
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}

	return points, nil
}

// AddAssetInput carries the "Add Asset" form fields.
type AddAssetInput struct {
	Symbol       string
	Name         string
	Type         domain.AssetType
	Quantity     decimal.Decimal
	AvgPrice     decimal.Decimal
	CurrentPrice decimal.Decimal
}

// AddAsset creates the asset, an initial holding, and the opening buy
// transaction. The three writes are independent, with no cross-entity
// rollback.
func (s *Service) AddAsset(ctx context.Context, userID uuid.UUID, input AddAssetInput) (*domain.Asset, error) {
	asset := &domain.Asset{
		ID:           uuid.New(),
		Symbol:       strings.ToUpper(input.Symbol),
		Name:         input.Name,
		Type:         input.Type,
		CurrentPrice: input.CurrentPrice,
		Currency:     "USD",
		LastUpdated:  s.now(),
	}
	if err := asset.Validate(); err != nil {
		return nil, err
	}

	holding := &domain.Holding{
		ID:          uuid.New(),
		UserID:      userID,
		AssetID:     asset.ID,
		Quantity:    input.Quantity,
		AverageCost: input.AvgPrice,
	}
	if err := holding.Validate(); err != nil {
		return nil, err
	}

	if err := s.Assets.Create(ctx, asset); err != nil {
		return nil, fmt.Errorf("failed to create asset: %w", err)
	}
	if err := s.Holdings.Create(ctx, holding); err != nil {
		return nil, fmt.Errorf("failed to create holding: %w", err)
	}

	tx := domain.NewTransaction(userID, asset.ID, domain.TransactionTypeBuy, input.Quantity, input.AvgPrice, s.now())
	if err := s.Transactions.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	s.log.Info().Str("symbol", asset.Symbol).Str("user_id", userID.String()).Msg("Asset added")

	return asset, nil
}

// OperationInput carries the "Register Operation" form fields.
type OperationInput struct {
	AssetID      uuid.UUID
	Type         domain.TransactionType
	Quantity     decimal.Decimal
	PricePerUnit decimal.Decimal
}

// RegisterOperation applies a buy or sell to the user's holding and appends
// the transaction record. A buy with no prior holding opens one; a sell
// with no holding (or more units than held) fails.
func (s *Service) RegisterOperation(ctx context.Context, userID uuid.UUID, input OperationInput) (*domain.Transaction, error) {
	holding, err := s.Holdings.GetByUserAndAsset(ctx, userID, input.AssetID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("failed to load holding: %w", err)
		}
		if input.Type == domain.TransactionTypeSell {
			return nil, errors.New("cannot sell an asset that is not held")
		}
		holding = &domain.Holding{
			ID:      uuid.New(),
			UserID:  userID,
			AssetID: input.AssetID,
		}
		if err := s.Holdings.Create(ctx, holding); err != nil {
			return nil, fmt.Errorf("failed to create holding: %w", err)
		}
	}

	switch input.Type {
	case domain.TransactionTypeBuy:
		err = holding.ApplyBuy(input.Quantity, input.PricePerUnit)
	case domain.TransactionTypeSell:
		err = holding.ApplySell(input.Quantity)
	default:
		err = errors.New("operation type must be buy or sell")
	}
	if err != nil {
		return nil, err
	}

	if err := s.Holdings.Update(ctx, holding); err != nil {
		return nil, fmt.Errorf("failed to update holding: %w", err)
	}

	tx := domain.NewTransaction(userID, input.AssetID, input.Type, input.Quantity, input.PricePerUnit, s.now())
	if err := s.Transactions.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	s.log.Info().
		Str("asset_id", input.AssetID.String()).
		Str("type", string(input.Type)).
		Str("quantity", input.Quantity.String()).
		Msg("Operation registered")

	return tx, nil
}

// UpdateAssetPrice overwrites an asset's current price after a manual edit.
func (s *Service) UpdateAssetPrice(ctx context.Context, assetID uuid.UUID, price decimal.Decimal) error {
	if price.IsNegative() {
		return errors.New("price cannot be negative")
	}

	if _, err := s.Assets.GetByID(ctx, assetID); err != nil {
		return err
	}

	return s.Assets.UpdatePrice(ctx, assetID, price, s.now())
}

// GetCash returns the user's balance in the dashboard currency. A user who
// never set a balance gets zero, not an error.
func (s *Service) GetCash(ctx context.Context, userID uuid.UUID) (*domain.CashBalance, error) {
	balance, err := s.Cash.Get(ctx, userID, DefaultCurrency)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.CashBalance{UserID: userID, Currency: DefaultCurrency, Amount: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("failed to load cash balance: %w", err)
	}
	return balance, nil
}

// SetCash overwrites the user's balance in the dashboard currency.
func (s *Service) SetCash(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*domain.CashBalance, error) {
	balance := &domain.CashBalance{
		UserID:    userID,
		Currency:  DefaultCurrency,
		Amount:    amount,
		UpdatedAt: s.now(),
	}
	if err := balance.Validate(); err != nil {
		return nil, err
	}

	if err := s.Cash.Upsert(ctx, balance); err != nil {
		return nil, fmt.Errorf("failed to save cash balance: %w", err)
	}

	return balance, nil
}

// RecordSnapshot appends a history point with the user's current total
// portfolio value.
func (s *Service) RecordSnapshot(ctx context.Context, userID uuid.UUID) (*domain.HistoryPoint, error) {
	positions, err := s.LoadPositions(ctx, userID)
	if err != nil {
		return nil, err
	}

	kpis := valuation.ComputeKPIs(positions)

	point := &domain.HistoryPoint{
		ID:         uuid.New(),
		UserID:     userID,
		RecordedAt: s.now(),
		TotalValue: kpis.TotalValue,
	}
	if err := s.History.Add(ctx, point); err != nil {
		return nil, fmt.Errorf("failed to record snapshot: %w", err)
	}

	return point, nil
}

// DashboardData is everything the dashboard view needs in one load.
type DashboardData struct {
	Positions        []*domain.Position
	KPIs             valuation.KPISet
	AnnualizedReturn decimal.Decimal
	History          []*domain.HistoryPoint
	Cash             *domain.CashBalance
}

// HistoryChartLimit is how many snapshots back the dashboard chart shows.
const HistoryChartLimit = 12

// Dashboard assembles positions, KPIs, history, and cash in one call. The
// annualized return spans from the earliest charted snapshot to now; with
// fewer than one day of history it stays zero.
func (s *Service) Dashboard(ctx context.Context, userID uuid.UUID) (*DashboardData, error) {
	positions, err := s.LoadPositions(ctx, userID)
	if err != nil {
		return nil, err
	}

	kpis := valuation.ComputeKPIs(positions)

	history, err := s.LoadHistory(ctx, userID, HistoryChartLimit)
	if err != nil {
		return nil, err
	}

	annualized := decimal.Zero
	if len(history) > 0 {
		span := s.now().Sub(history[0].RecordedAt)
		annualized = valuation.Annualize(kpis.TotalInvested, kpis.TotalValue, span)
	}

	cash, err := s.GetCash(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &DashboardData{
		Positions:        positions,
		KPIs:             kpis,
		AnnualizedReturn: annualized,
		History:          history,
		Cash:             cash,
	}, nil
}
