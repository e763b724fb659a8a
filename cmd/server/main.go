package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"agency-ledger/internal/adapters/web"
	"agency-ledger/internal/app"
	"agency-ledger/internal/clock"
	"agency-ledger/internal/config"
	"agency-ledger/internal/core"
	"agency-ledger/internal/db"
	"agency-ledger/internal/gateway"
	"agency-ledger/internal/logger"
	"agency-ledger/internal/store/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err == nil {
		err = cfg.RequireServer()
	}
	if err != nil {
		log := logger.WithComponent("server")
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log := logger.WithComponent("server")
		log.Fatal().Err(err).Msg("failed to set up logging")
	}
	log := logger.WithComponent("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.PoolOptions(logger.WithComponent("db")))
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer pool.Close()

	gw := gateway.New(cfg.GatewayURL, cfg.GatewayAPIKey, cfg.GatewayProvider, logger.WithComponent("gateway"))
	svc := app.NewLedger(postgres.New(pool), gw, clock.System{}, web.ContextUser{}, app.LedgerSettings{
		Defaults: core.InvoiceDefaults{
			VATRate:          cfg.DefaultVATRate,
			Currency:         cfg.DefaultCurrency,
			PaymentTermsDays: cfg.DefaultPaymentTermsDays,
		},
		GatewayTimeout: cfg.GatewayTimeout,
	}, logger.WithComponent("ledger"))

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           web.NewHandler(svc, logger.WithComponent("http"), cfg.AllowedOrigins, cfg.JWTSecret),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("gateway", gw.Provider()).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
