package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/facuvazquez/portfolio-backend/internal/domain"
	"github.com/facuvazquez/portfolio-backend/internal/usecase/portfolio"
	"github.com/facuvazquez/portfolio-backend/internal/usecase/pricing"
	"github.com/facuvazquez/portfolio-backend/internal/usecase/valuation"
)

const testToken = "test-token"

// MockPortfolioService is a mock implementation of PortfolioService
type MockPortfolioService struct {
	mock.Mock
}

func (m *MockPortfolioService) Dashboard(ctx context.Context, userID uuid.UUID) (*portfolio.DashboardData, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portfolio.DashboardData), args.Error(1)
}

func (m *MockPortfolioService) LoadPositions(ctx context.Context, userID uuid.UUID) ([]*domain.Position, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Position), args.Error(1)
}

func (m *MockPortfolioService) LoadHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.HistoryPoint, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.HistoryPoint), args.Error(1)
}

func (m *MockPortfolioService) AddAsset(ctx context.Context, userID uuid.UUID, input portfolio.AddAssetInput) (*domain.Asset, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}

func (m *MockPortfolioService) RegisterOperation(ctx context.Context, userID uuid.UUID, input portfolio.OperationInput) (*domain.Transaction, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockPortfolioService) UpdateAssetPrice(ctx context.Context, assetID uuid.UUID, price decimal.Decimal) error {
	args := m.Called(ctx, assetID, price)
	return args.Error(0)
}

func (m *MockPortfolioService) GetCash(ctx context.Context, userID uuid.UUID) (*domain.CashBalance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashBalance), args.Error(1)
}

func (m *MockPortfolioService) SetCash(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*domain.CashBalance, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashBalance), args.Error(1)
}

func (m *MockPortfolioService) RecordSnapshot(ctx context.Context, userID uuid.UUID) (*domain.HistoryPoint, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HistoryPoint), args.Error(1)
}

// MockPriceRefresher is a mock implementation of PriceRefresher
type MockPriceRefresher struct {
	mock.Mock
}

func (m *MockPriceRefresher) RefreshAllPrices(ctx context.Context) (pricing.RefreshSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).(pricing.RefreshSummary), args.Error(1)
}

func newTestServer(svc *MockPortfolioService, prices *MockPriceRefresher) *Server {
	return New(Config{
		Log:       zerolog.Nop(),
		Port:      0,
		APIToken:  testToken,
		Portfolio: svc,
		Prices:    prices,
	})
}

func authedRequest(method, target string, userID uuid.UUID, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("X-User-ID", userID.String())
	return req
}

func TestAuth(t *testing.T) {
	server := newTestServer(new(MockPortfolioService), new(MockPriceRefresher))
	userID := uuid.New()

	tests := []struct {
		name       string
		decorate   func(*http.Request)
		wantStatus int
	}{
		{
			name:       "missing token",
			decorate:   func(r *http.Request) { r.Header.Del("Authorization") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong token",
			decorate:   func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "token without bearer prefix",
			decorate:   func(r *http.Request) { r.Header.Set("Authorization", testToken) },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing user header",
			decorate:   func(r *http.Request) { r.Header.Del("X-User-ID") },
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed user header",
			decorate:   func(r *http.Request) { r.Header.Set("X-User-ID", "not-a-uuid") },
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authedRequest(http.MethodGet, "/api/positions", userID, nil)
			tt.decorate(req)

			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHealthNeedsNoAuth(t *testing.T) {
	server := newTestServer(new(MockPortfolioService), new(MockPriceRefresher))

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleDashboard(t *testing.T) {
	svc := new(MockPortfolioService)
	server := newTestServer(svc, new(MockPriceRefresher))
	userID := uuid.New()

	svc.On("Dashboard", mock.Anything, userID).Return(&portfolio.DashboardData{
		Positions: []*domain.Position{
			{
				Ticker:           "AAPL",
				Name:             "Apple Inc.",
				Quantity:         decimal.NewFromInt(150),
				AvgPurchasePrice: decimal.NewFromFloat(142.50),
				CurrentPrice:     decimal.NewFromFloat(178.25),
			},
		},
		KPIs: valuation.KPISet{
			TotalValue:    decimal.NewFromFloat(26737.5),
			TotalInvested: decimal.NewFromFloat(21375),
			PnL:           decimal.NewFromFloat(5362.5),
			PnLPercentage: decimal.NewFromFloat(25.09),
		},
		AnnualizedReturn: decimal.NewFromFloat(25.09),
		History: []*domain.HistoryPoint{
			{RecordedAt: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), TotalValue: decimal.NewFromInt(25000)},
		},
		Cash: &domain.CashBalance{Currency: "ARS", Amount: decimal.NewFromInt(5000)},
	}, nil)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, authedRequest(http.MethodGet, "/api/dashboard", userID, nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body dashboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Positions, 1)
	assert.Equal(t, "AAPL", body.Positions[0].Ticker)
	assert.True(t, body.Positions[0].MarketValue.Equal(decimal.NewFromFloat(26737.5)))
	assert.True(t, body.KPIs.PnL.Equal(decimal.NewFromFloat(5362.5)))
	assert.True(t, body.Cash.Amount.Equal(decimal.NewFromInt(5000)))
}

func TestHandleAddAsset(t *testing.T) {
	svc := new(MockPortfolioService)
	server := newTestServer(svc, new(MockPriceRefresher))
	userID := uuid.New()

	created := &domain.Asset{ID: uuid.New(), Symbol: "BTC"}
	svc.On("AddAsset", mock.Anything, userID, mock.AnythingOfType("portfolio.AddAssetInput")).Return(created, nil)

	body := []byte(`{"symbol":"btc","name":"Bitcoin","type":"crypto","quantity":0.5,"avgPrice":45000,"currentPrice":67500}`)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, authedRequest(http.MethodPost, "/api/assets", userID, body))

	require.Equal(t, http.StatusCreated, rec.Code)

	input := svc.Calls[0].Arguments.Get(2).(portfolio.AddAssetInput)
	assert.Equal(t, "btc", input.Symbol)
	assert.True(t, input.Quantity.Equal(decimal.NewFromFloat(0.5)))
	assert.True(t, input.AvgPrice.Equal(decimal.NewFromInt(45000)))
}

func TestHandleAddAsset_ValidationFailureIs400(t *testing.T) {
	svc := new(MockPortfolioService)
	server := newTestServer(svc, new(MockPriceRefresher))
	userID := uuid.New()

	svc.On("AddAsset", mock.Anything, userID, mock.Anything).Return(nil, errors.New("asset symbol cannot be empty"))

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, authedRequest(http.MethodPost, "/api/assets", userID, []byte(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "asset symbol cannot be empty")
}

func TestHandleAddAsset_StorageFailureIs500(t *testing.T) {
	svc := new(MockPortfolioService)
	server := newTestServer(svc, new(MockPriceRefresher))
	userID := uuid.New()

	svc.On("AddAsset", mock.Anything, userID, mock.Anything).
		Return(nil, fmt.Errorf("failed to create asset: %w", errors.New("connection refused")))

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, authedRequest(http.MethodPost, "/api/assets", userID, []byte(`{}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleUpdatePrice_UnknownAssetIs404(t *testing.T) {
	svc := new(MockPortfolioService)
	server := newTestServer(svc, new(MockPriceRefresher))
	userID := uuid.New()
	assetID := uuid.New()

	svc.On("UpdateAssetPrice", mock.Anything, assetID, mock.Anything).Return(domain.ErrNotFound)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, authedRequest(http.MethodPut, "/api/assets/"+assetID.String()+"/price", userID, []byte(`{"price":100}`)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleUpdatePrice_BadUUIDIs400(t *testing.T) {
	server := newTestServer(new(MockPortfolioService), new(MockPriceRefresher))

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, authedRequest(http.MethodPut, "/api/assets/xyz/price", uuid.New(), []byte(`{"price":100}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRefreshPrices(t *testing.T) {
	prices := new(MockPriceRefresher)
	server := newTestServer(new(MockPortfolioService), prices)

	prices.On("RefreshAllPrices", mock.Anything).Return(pricing.RefreshSummary{Updated: 2, Skipped: 1, Failed: 1}, nil)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, authedRequest(http.MethodPost, "/api/prices/refresh", uuid.New(), nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body["updated"])
	assert.Equal(t, 1, body["skipped"])
	assert.Equal(t, 1, body["failed"])
}

func TestHandleHistoryChart(t *testing.T) {
	svc := new(MockPortfolioService)
	server := newTestServer(svc, new(MockPriceRefresher))
	userID := uuid.New()

	points := []*domain.HistoryPoint{
		{RecordedAt: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), TotalValue: decimal.NewFromInt(25000)},
		{RecordedAt: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), TotalValue: decimal.NewFromInt(27000)},
		{RecordedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), TotalValue: decimal.NewFromInt(26500)},
	}
	svc.On("LoadHistory", mock.Anything, userID, portfolio.HistoryChartLimit).Return(points, nil)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, authedRequest(http.MethodGet, "/api/history/chart.png", userID, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}

func TestHandleHistory_BadLimitIs400(t *testing.T) {
	server := newTestServer(new(MockPortfolioService), new(MockPriceRefresher))

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, authedRequest(http.MethodGet, "/api/history?limit=zero", uuid.New(), nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSetCash(t *testing.T) {
	svc := new(MockPortfolioService)
	server := newTestServer(svc, new(MockPriceRefresher))
	userID := uuid.New()

	svc.On("SetCash", mock.Anything, userID, decimal.NewFromInt(12000)).Return(&domain.CashBalance{
		UserID:   userID,
		Currency: "ARS",
		Amount:   decimal.NewFromInt(12000),
	}, nil)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, authedRequest(http.MethodPut, "/api/cash", userID, []byte(`{"amount":12000}`)))

	require.Equal(t, http.StatusOK, rec.Code)

	var body cashResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Amount.Equal(decimal.NewFromInt(12000)))
}
