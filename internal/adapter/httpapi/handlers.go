package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facuvazquez/portfolio-backend/internal/domain"
	"github.com/facuvazquez/portfolio-backend/internal/usecase/portfolio"
)

// --- Response shapes ---

type positionResponse struct {
	ID               uuid.UUID       `json:"id"`
	AssetID          uuid.UUID       `json:"assetId"`
	Ticker           string          `json:"ticker"`
	Name             string          `json:"name"`
	Quantity         decimal.Decimal `json:"quantity"`
	AvgPurchasePrice decimal.Decimal `json:"avgPurchasePrice"`
	CurrentPrice     decimal.Decimal `json:"currentPrice"`
	MarketValue      decimal.Decimal `json:"marketValue"`
}

type historyPointResponse struct {
	RecordedAt time.Time       `json:"recordedAt"`
	TotalValue decimal.Decimal `json:"totalValue"`
}

type kpiResponse struct {
	TotalValue       decimal.Decimal `json:"totalValue"`
	TotalInvested    decimal.Decimal `json:"totalInvested"`
	PnL              decimal.Decimal `json:"pnl"`
	PnLPercentage    decimal.Decimal `json:"pnlPercentage"`
	AnnualizedReturn decimal.Decimal `json:"annualizedReturn"`
}

type cashResponse struct {
	Currency  string          `json:"currency"`
	Amount    decimal.Decimal `json:"amount"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type dashboardResponse struct {
	Positions []positionResponse     `json:"positions"`
	KPIs      kpiResponse            `json:"kpis"`
	History   []historyPointResponse `json:"history"`
	Cash      cashResponse           `json:"cash"`
}

func toPositionResponses(positions []*domain.Position) []positionResponse {
	out := make([]positionResponse, 0, len(positions))
	for _, p := range positions {
		out = append(out, positionResponse{
			ID:               p.ID,
			AssetID:          p.AssetID,
			Ticker:           p.Ticker,
			Name:             p.Name,
			Quantity:         p.Quantity,
			AvgPurchasePrice: p.AvgPurchasePrice,
			CurrentPrice:     p.CurrentPrice,
			MarketValue:      p.MarketValue(),
		})
	}
	return out
}

func toHistoryResponses(points []*domain.HistoryPoint) []historyPointResponse {
	out := make([]historyPointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, historyPointResponse{RecordedAt: p.RecordedAt, TotalValue: p.TotalValue})
	}
	return out
}

// --- Handlers ---

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data, err := s.portfolio.Dashboard(r.Context(), userFrom(r))
	if err != nil {
		s.serviceError(w, err, "failed to load dashboard")
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		Positions: toPositionResponses(data.Positions),
		KPIs: kpiResponse{
			TotalValue:       data.KPIs.TotalValue,
			TotalInvested:    data.KPIs.TotalInvested,
			PnL:              data.KPIs.PnL,
			PnLPercentage:    data.KPIs.PnLPercentage,
			AnnualizedReturn: data.AnnualizedReturn,
		},
		History: toHistoryResponses(data.History),
		Cash: cashResponse{
			Currency:  data.Cash.Currency,
			Amount:    data.Cash.Amount,
			UpdatedAt: data.Cash.UpdatedAt,
		},
	})
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.portfolio.LoadPositions(r.Context(), userFrom(r))
	if err != nil {
		s.serviceError(w, err, "failed to load positions")
		return
	}
	writeJSON(w, http.StatusOK, toPositionResponses(positions))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := portfolio.HistoryChartLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	points, err := s.portfolio.LoadHistory(r.Context(), userFrom(r), limit)
	if err != nil {
		s.serviceError(w, err, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, toHistoryResponses(points))
}

func (s *Server) handleHistoryChart(w http.ResponseWriter, r *http.Request) {
	points, err := s.portfolio.LoadHistory(r.Context(), userFrom(r), portfolio.HistoryChartLimit)
	if err != nil {
		s.serviceError(w, err, "failed to load history")
		return
	}

	png, err := portfolio.RenderHistoryChart(points)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "not enough history to chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

type addAssetRequest struct {
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Quantity     decimal.Decimal `json:"quantity"`
	AvgPrice     decimal.Decimal `json:"avgPrice"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
}

func (s *Server) handleAddAsset(w http.ResponseWriter, r *http.Request) {
	var req addAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	asset, err := s.portfolio.AddAsset(r.Context(), userFrom(r), portfolio.AddAssetInput{
		Symbol:       req.Symbol,
		Name:         req.Name,
		Type:         domain.AssetType(req.Type),
		Quantity:     req.Quantity,
		AvgPrice:     req.AvgPrice,
		CurrentPrice: req.CurrentPrice,
	})
	if err != nil {
		s.mutationError(w, err, "failed to add asset")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":     asset.ID,
		"symbol": asset.Symbol,
	})
}

type operationRequest struct {
	AssetID      uuid.UUID       `json:"assetId"`
	Type         string          `json:"type"`
	Quantity     decimal.Decimal `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
}

func (s *Server) handleRegisterOperation(w http.ResponseWriter, r *http.Request) {
	var req operationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := s.portfolio.RegisterOperation(r.Context(), userFrom(r), portfolio.OperationInput{
		AssetID:      req.AssetID,
		Type:         domain.TransactionType(req.Type),
		Quantity:     req.Quantity,
		PricePerUnit: req.PricePerUnit,
	})
	if err != nil {
		s.mutationError(w, err, "failed to register operation")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":          tx.ID,
		"totalAmount": tx.TotalAmount,
	})
}

type updatePriceRequest struct {
	Price decimal.Decimal `json:"price"`
}

func (s *Server) handleUpdatePrice(w http.ResponseWriter, r *http.Request) {
	assetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "asset id must be a valid UUID")
		return
	}

	var req updatePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.portfolio.UpdateAssetPrice(r.Context(), assetID, req.Price); err != nil {
		s.mutationError(w, err, "failed to update price")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetCash(w http.ResponseWriter, r *http.Request) {
	balance, err := s.portfolio.GetCash(r.Context(), userFrom(r))
	if err != nil {
		s.serviceError(w, err, "failed to load cash balance")
		return
	}
	writeJSON(w, http.StatusOK, cashResponse{
		Currency:  balance.Currency,
		Amount:    balance.Amount,
		UpdatedAt: balance.UpdatedAt,
	})
}

type setCashRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) handleSetCash(w http.ResponseWriter, r *http.Request) {
	var req setCashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	balance, err := s.portfolio.SetCash(r.Context(), userFrom(r), req.Amount)
	if err != nil {
		s.mutationError(w, err, "failed to save cash balance")
		return
	}

	writeJSON(w, http.StatusOK, cashResponse{
		Currency:  balance.Currency,
		Amount:    balance.Amount,
		UpdatedAt: balance.UpdatedAt,
	})
}

func (s *Server) handleRefreshPrices(w http.ResponseWriter, r *http.Request) {
	summary, err := s.prices.RefreshAllPrices(r.Context())
	if err != nil {
		s.serviceError(w, err, "price refresh failed")
		return
	}

	// Quote absence is not an HTTP error: the summary tells the caller how
	// the pass went, and the UI reloads whatever is stored.
	writeJSON(w, http.StatusOK, map[string]int{
		"updated": summary.Updated,
		"skipped": summary.Skipped,
		"failed":  summary.Failed,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	point, err := s.portfolio.RecordSnapshot(r.Context(), userFrom(r))
	if err != nil {
		s.serviceError(w, err, "failed to record snapshot")
		return
	}
	writeJSON(w, http.StatusCreated, historyPointResponse{
		RecordedAt: point.RecordedAt,
		TotalValue: point.TotalValue,
	})
}

// --- Error mapping ---

// serviceError maps read-path failures: missing entities become 404,
// everything else is a 500.
func (s *Server) serviceError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.log.Error().Err(err).Msg(msg)
	writeError(w, http.StatusInternalServerError, msg)
}

// mutationError additionally treats validation failures as 400. Validation
// errors are plain errors.New values from the domain; anything wrapped is
// infrastructure.
func (s *Server) mutationError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if errors.Unwrap(err) == nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.log.Error().Err(err).Msg(msg)
	writeError(w, http.StatusInternalServerError, msg)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
