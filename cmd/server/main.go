package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/facuvazquez/portfolio-backend/internal/adapter/httpapi"
	"github.com/facuvazquez/portfolio-backend/internal/adapter/repository/postgres"
	"github.com/facuvazquez/portfolio-backend/internal/clients/dolarapi"
	"github.com/facuvazquez/portfolio-backend/internal/clients/yahoo"
	"github.com/facuvazquez/portfolio-backend/internal/config"
	"github.com/facuvazquez/portfolio-backend/internal/scheduler"
	"github.com/facuvazquez/portfolio-backend/internal/usecase/portfolio"
	"github.com/facuvazquez/portfolio-backend/internal/usecase/pricing"
	"github.com/facuvazquez/portfolio-backend/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("Invalid configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: os.Getenv("LOG_PRETTY") == "true",
	})

	// 1. Database
	db, err := postgres.NewDB(cfg.DBConnStr)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	ctx := context.Background()
	if err := postgres.Bootstrap(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap schema")
	}

	// 2. Repositories
	assetRepo := postgres.NewAssetRepository(db)
	holdingRepo := postgres.NewHoldingRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	cashRepo := postgres.NewCashRepository(db)
	historyRepo := postgres.NewHistoryRepository(db)

	// 3. Market data clients
	quoteClient := yahoo.NewClient(cfg.YahooBaseURL, log)
	rateClient := dolarapi.NewClient(cfg.DolarAPIBaseURL, log)

	// 4. Services
	portfolioService := portfolio.NewService(assetRepo, holdingRepo, transactionRepo, cashRepo, historyRepo, log)
	pricingService := pricing.NewService(quoteClient, rateClient, assetRepo, log)

	// 5. Background refresh
	sched := scheduler.New(log)
	if cfg.RefreshCron != "" {
		userID, err := uuid.Parse(cfg.SnapshotUserID)
		if err != nil {
			log.Fatal().Err(err).Msg("SNAPSHOT_USER_ID must be a valid UUID")
		}

		job := scheduler.NewPriceRefreshJob(pricingService, portfolioService, userID, log)
		if err := sched.AddJob(cfg.RefreshCron, job); err != nil {
			log.Fatal().Err(err).Msg("Failed to register refresh job")
		}
		sched.Start()
	}

	// 6. HTTP server
	server := httpapi.New(httpapi.Config{
		Log:       log,
		Port:      cfg.Port,
		APIToken:  cfg.APIToken,
		Portfolio: portfolioService,
		Prices:    pricingService,
	})

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	waitForShutdown(log, server, sched)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(log zerolog.Logger, server *httpapi.Server, sched *scheduler.Scheduler) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully")

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
