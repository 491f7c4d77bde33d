// Package httpapi exposes the portfolio dashboard as a JSON HTTP API.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/facuvazquez/portfolio-backend/internal/domain"
	"github.com/facuvazquez/portfolio-backend/internal/usecase/portfolio"
	"github.com/facuvazquez/portfolio-backend/internal/usecase/pricing"
)

// PortfolioService is the slice of the portfolio gateway the API consumes.
type PortfolioService interface {
	Dashboard(ctx context.Context, userID uuid.UUID) (*portfolio.DashboardData, error)
	LoadPositions(ctx context.Context, userID uuid.UUID) ([]*domain.Position, error)
	LoadHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.HistoryPoint, error)
	AddAsset(ctx context.Context, userID uuid.UUID, input portfolio.AddAssetInput) (*domain.Asset, error)
	RegisterOperation(ctx context.Context, userID uuid.UUID, input portfolio.OperationInput) (*domain.Transaction, error)
	UpdateAssetPrice(ctx context.Context, assetID uuid.UUID, price decimal.Decimal) error
	GetCash(ctx context.Context, userID uuid.UUID) (*domain.CashBalance, error)
	SetCash(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*domain.CashBalance, error)
	RecordSnapshot(ctx context.Context, userID uuid.UUID) (*domain.HistoryPoint, error)
}

// PriceRefresher triggers a refresh pass over all tracked assets.
type PriceRefresher interface {
	RefreshAllPrices(ctx context.Context) (pricing.RefreshSummary, error)
}

// Server is the HTTP server for the dashboard API.
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	portfolio PortfolioService
	prices    PriceRefresher
}

// Config holds server wiring.
type Config struct {
	Log       zerolog.Logger
	Port      int
	APIToken  string
	Portfolio PortfolioService
	Prices    PriceRefresher
}

// New creates a new HTTP server with routing and middleware set up.
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "httpapi").Logger(),
		portfolio: cfg.Portfolio,
		prices:    cfg.Prices,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger(s.log))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		MaxAge:         300,
	}))

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(requireAuth(cfg.APIToken))
		r.Use(requireUser)

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/positions", s.handlePositions)
		r.Get("/history", s.handleHistory)
		r.Get("/history/chart.png", s.handleHistoryChart)
		r.Post("/assets", s.handleAddAsset)
		r.Put("/assets/{id}/price", s.handleUpdatePrice)
		r.Post("/operations", s.handleRegisterOperation)
		r.Get("/cash", s.handleGetCash)
		r.Put("/cash", s.handleSetCash)
		r.Post("/prices/refresh", s.handleRefreshPrices)
		r.Post("/history/snapshot", s.handleSnapshot)
	})

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs each request at debug with method, path, and duration.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("duration", time.Since(start)).
				Msg("Request handled")
		})
	}
}
