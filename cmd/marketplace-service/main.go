package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/nurpe/freelance-market/internal/auth"
	"github.com/nurpe/freelance-market/internal/config"
	"github.com/nurpe/freelance-market/internal/db"
	"github.com/nurpe/freelance-market/internal/excel"
	httphandler "github.com/nurpe/freelance-market/internal/http"
	"github.com/nurpe/freelance-market/internal/http/middleware"
	"github.com/nurpe/freelance-market/internal/logger"
	"github.com/nurpe/freelance-market/internal/pdf"
	"github.com/nurpe/freelance-market/internal/repository"
	"github.com/nurpe/freelance-market/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)
	decimal.MarshalJSONWithoutQuotes = true

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	profileRepo := repository.NewProfileRepository(database)
	contractRepo := repository.NewContractRepository(database)
	ledgerRepo := repository.NewLedgerRepository(database)
	analyticsRepo := repository.NewAnalyticsRepository(database)

	contractService := service.NewContractService(contractRepo)
	paymentService := service.NewPaymentService(ledgerRepo, contractRepo, pdf.NewGenerator())
	depositService := service.NewDepositService(ledgerRepo, cfg)
	adminService := service.NewAdminService(analyticsRepo, excel.NewGenerator(), cfg)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	profileMiddleware := middleware.ResolveProfile(profileRepo, tokenParser, cfg.Auth.ProfileHeader)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)

	handler := httphandler.NewHandler(contractService, paymentService, depositService, adminService, log)
	router := httphandler.NewRouter(handler, profileMiddleware, limiter, cfg, log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", addr).Msg("starting marketplace service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error shutting down server")
	}

	if sqlDB, err := database.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Error().Err(err).Msg("error closing database connection")
		}
	}
	log.Info().Msg("shutdown complete")
}
