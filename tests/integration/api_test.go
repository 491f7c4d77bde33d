//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facuvazquez/portfolio-backend/internal/adapter/httpapi"
	"github.com/facuvazquez/portfolio-backend/internal/adapter/repository/postgres"
	"github.com/facuvazquez/portfolio-backend/internal/clients/dolarapi"
	"github.com/facuvazquez/portfolio-backend/internal/clients/yahoo"
	"github.com/facuvazquez/portfolio-backend/internal/usecase/portfolio"
	"github.com/facuvazquez/portfolio-backend/internal/usecase/pricing"
)

const apiToken = "integration-token"

var (
	db     *postgres.DB
	api    http.Handler
	quotes *httptest.Server
	rates  *httptest.Server
)

// TestMain sets up the test environment
func TestMain(m *testing.M) {
	ctx := context.Background()

	dbConnStr := getDBConnectionString()
	var err error
	db, err = postgres.NewDB(dbConnStr)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}
	defer db.Close()

	if err := postgres.Bootstrap(ctx, db); err != nil {
		panic(fmt.Sprintf("Failed to bootstrap schema: %v", err))
	}

	// Fake market-data endpoints so refresh never leaves the test host.
	quotes = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[{"meta":{"regularMarketPrice":178.25}}]}}`)
	}))
	defer quotes.Close()

	rates = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"compra":1150,"venta":1200}`)
	}))
	defer rates.Close()

	log := zerolog.Nop()
	assetRepo := postgres.NewAssetRepository(db)
	holdingRepo := postgres.NewHoldingRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	cashRepo := postgres.NewCashRepository(db)
	historyRepo := postgres.NewHistoryRepository(db)

	portfolioService := portfolio.NewService(assetRepo, holdingRepo, transactionRepo, cashRepo, historyRepo, log)
	pricingService := pricing.NewService(
		yahoo.NewClient(quotes.URL, log),
		dolarapi.NewClient(rates.URL, log),
		assetRepo,
		log,
	)

	server := httpapi.New(httpapi.Config{
		Log:       log,
		APIToken:  apiToken,
		Portfolio: portfolioService,
		Prices:    pricingService,
	})
	api = server.Handler()

	os.Exit(m.Run())
}

func getDBConnectionString() string {
	if connStr := os.Getenv("DB_CONN_STR"); connStr != "" {
		return connStr
	}
	return "host=localhost port=5432 user=postgres password=postgres dbname=portfolio_test sslmode=disable"
}

func doRequest(t *testing.T, method, target string, userID uuid.UUID, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Authorization", "Bearer "+apiToken)
	req.Header.Set("X-User-ID", userID.String())

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestPortfolioLifecycle(t *testing.T) {
	userID := uuid.New()

	// 1. Add an equity position.
	rec := doRequest(t, http.MethodPost, "/api/assets", userID, map[string]any{
		"symbol":       "aapl",
		"name":         "Apple Inc.",
		"type":         "equity",
		"quantity":     "150",
		"avgPrice":     "142.50",
		"currentPrice": "178.25",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var asset struct {
		ID     uuid.UUID `json:"id"`
		Symbol string    `json:"symbol"`
	}
	decodeBody(t, rec, &asset)
	assert.Equal(t, "AAPL", asset.Symbol)

	// 2. Positions reflect the new holding.
	rec = doRequest(t, http.MethodGet, "/api/positions", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var positions []struct {
		Ticker      string          `json:"ticker"`
		Quantity    decimal.Decimal `json:"quantity"`
		MarketValue decimal.Decimal `json:"marketValue"`
	}
	decodeBody(t, rec, &positions)
	require.Len(t, positions, 1)
	assert.Equal(t, "AAPL", positions[0].Ticker)
	assert.True(t, positions[0].Quantity.Equal(decimal.NewFromInt(150)))
	assert.True(t, positions[0].MarketValue.Equal(decimal.NewFromFloat(26737.5)))

	// 3. Buy more shares; average cost must be recomputed.
	rec = doRequest(t, http.MethodPost, "/api/operations", userID, map[string]any{
		"assetId":      asset.ID,
		"type":         "buy",
		"quantity":     "50",
		"pricePerUnit": "200",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doRequest(t, http.MethodGet, "/api/positions", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &positions)
	require.Len(t, positions, 1)
	assert.True(t, positions[0].Quantity.Equal(decimal.NewFromInt(200)))

	// 4. Selling more than held is rejected.
	rec = doRequest(t, http.MethodPost, "/api/operations", userID, map[string]any{
		"assetId":      asset.ID,
		"type":         "sell",
		"quantity":     "10000",
		"pricePerUnit": "200",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// 5. Cash defaults to zero, then persists.
	rec = doRequest(t, http.MethodGet, "/api/cash", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cash struct {
		Currency string          `json:"currency"`
		Amount   decimal.Decimal `json:"amount"`
	}
	decodeBody(t, rec, &cash)
	assert.Equal(t, "ARS", cash.Currency)
	assert.True(t, cash.Amount.IsZero())

	rec = doRequest(t, http.MethodPut, "/api/cash", userID, map[string]any{"amount": "5000"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, http.MethodGet, "/api/cash", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &cash)
	assert.True(t, cash.Amount.Equal(decimal.NewFromInt(5000)))

	// 6. Refresh prices against the fake market endpoints.
	rec = doRequest(t, http.MethodPost, "/api/prices/refresh", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary struct {
		Updated int `json:"updated"`
		Failed  int `json:"failed"`
	}
	decodeBody(t, rec, &summary)
	assert.GreaterOrEqual(t, summary.Updated, 1)
	assert.Zero(t, summary.Failed)

	// 7. Snapshot, then read it back from history.
	rec = doRequest(t, http.MethodPost, "/api/history/snapshot", userID, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doRequest(t, http.MethodGet, "/api/history", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var history []struct {
		TotalValue decimal.Decimal `json:"totalValue"`
	}
	decodeBody(t, rec, &history)
	require.NotEmpty(t, history)
	assert.True(t, history[len(history)-1].TotalValue.IsPositive())

	// 8. Dashboard assembles everything.
	rec = doRequest(t, http.MethodGet, "/api/dashboard", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var dash struct {
		Positions []json.RawMessage `json:"positions"`
		KPIs      struct {
			TotalValue decimal.Decimal `json:"totalValue"`
		} `json:"kpis"`
	}
	decodeBody(t, rec, &dash)
	assert.Len(t, dash.Positions, 1)
	assert.True(t, dash.KPIs.TotalValue.IsPositive())
}

func TestRejectsUnknownToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/positions", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	req.Header.Set("X-User-ID", uuid.NewString())

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
