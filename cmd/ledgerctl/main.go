package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"agency-ledger/internal/adapters/cli"
	"agency-ledger/internal/app"
	"agency-ledger/internal/clock"
	"agency-ledger/internal/config"
	"agency-ledger/internal/core"
	"agency-ledger/internal/db"
	"agency-ledger/internal/gateway"
	"agency-ledger/internal/logger"
	"agency-ledger/internal/store/postgres"
	"agency-ledger/migrations"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logCfg := cfg.GetLoggerConfig()
	logCfg.Output = "stderr"
	if err := logger.Setup(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := logger.WithComponent("ledgerctl")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	open := func(ctx context.Context) (*cli.Backend, error) {
		if err := cfg.RequireDatabase(); err != nil {
			return nil, err
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.PoolOptions(logger.WithComponent("db")))
		if err != nil {
			return nil, err
		}
		gw := gateway.New(cfg.GatewayURL, cfg.GatewayAPIKey, cfg.GatewayProvider, logger.WithComponent("gateway"))
		svc := app.NewLedger(postgres.New(pool), gw, clock.System{}, cli.SystemUser{}, app.LedgerSettings{
			Defaults: core.InvoiceDefaults{
				VATRate:          cfg.DefaultVATRate,
				Currency:         cfg.DefaultCurrency,
				PaymentTermsDays: cfg.DefaultPaymentTermsDays,
			},
			GatewayTimeout: cfg.GatewayTimeout,
		}, logger.WithComponent("ledger"))

		return &cli.Backend{
			Service: svc,
			Migrate: func(ctx context.Context) ([]string, error) {
				return migrations.Apply(ctx, pool, logger.WithComponent("migrations"))
			},
			Close: pool.Close,
		}, nil
	}

	err = cli.Execute(ctx, cli.Options{
		Open:      open,
		JWTSecret: cfg.JWTSecret,
		Version:   version,
		Log:       log,
	}, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
