package main

import (
	"context"
	"fmt"
	"os"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger := cli.SetupLogger(level, log.ComponentCLI)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	unit, err := core.ParseCurrency(cfg.Currency)
	if err != nil {
		unit = core.DefaultCurrency
	}

	app := cli.App{
		Open: func(ctx context.Context) (*services.LedgerService, func() error, error) {
			ledger, cleanup, err := cli.OpenLedger(ctx, cfg, logger)
			if err != nil {
				return nil, nil, err
			}
			return ledger, cleanup, nil
		},
		Currency: unit,
	}

	if err := cli.NewRootCommand(app).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
