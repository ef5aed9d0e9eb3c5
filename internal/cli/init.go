// Package cli holds the start-up steps shared by the fintrack binaries and
// the fintrackctl command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/backend"
	"fintrack/internal/chart"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// SetupLogger builds the process logger at the given level and installs it
// as the slog default. Unknown levels fall back to info.
func SetupLogger(level, component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Component = component
	lvl, err := log.ParseLevel(level)
	cfg.Level = lvl
	logger := log.New(cfg)
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info logging", log.FieldError, err)
	}
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig exits the process when the environment is invalid.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenLedger opens the configured backend and wraps it in a LedgerService.
// The returned cleanup closes the store and the broker connection.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *log.Logger) (*services.LedgerService, backend.CleanupFunc, error) {
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend)).Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open backend: %w", err)
	}
	theme, err := chart.ParseTheme(cfg.DefaultTheme)
	if err != nil {
		res.Cleanup()
		return nil, nil, err
	}
	ledger := services.NewLedgerService(res.Store, services.Options{
		Publisher:    res.Publisher,
		Logger:       logger.WithComponent(log.ComponentLedger),
		PieSize:      services.ChartSize{Width: cfg.PieWidth, Height: cfg.PieHeight},
		LineSize:     services.ChartSize{Width: cfg.LineWidth, Height: cfg.LineHeight},
		DefaultTheme: theme,
	})
	return ledger, res.Cleanup, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// runs after cancellation and must finish within timeout; done is closed
// once it has.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
	}()

	return ctx, done
}
