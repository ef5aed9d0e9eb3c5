package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/ports"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting fintrack-worker", "snapshot_dir", cfg.SnapshotDir)

	// the worker only consumes; it must not republish its own reads
	storeCfg := *cfg
	storeCfg.AMQPURL = ""
	ledger, cleanup, err := cli.OpenLedger(context.Background(), &storeCfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	}()

	var exporter ports.RecordExporter
	if cfg.SheetsEnabled() {
		client, err := gsheet.NewClient(context.Background(), gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			_ = cleanup()
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets mirror disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	snapshots := worker.NewSnapshotWorker(ledger, exporter, cfg.SnapshotDir)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return snapshots.Run(gctx, cfg.SnapshotInterval)
	})

	if cfg.AMQPEnabled() {
		g.Go(func() error {
			client, err := amqp.DialWithRetry(gctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, 10)
			if err != nil {
				return err
			}
			defer client.Close()
			return client.ConsumeRecordChanges(gctx, snapshots.HandleRecordChanged)
		})
	} else {
		logger.Info("Skipping AMQP consumption - no AMQP_URL provided, relying on periodic snapshots")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", log.FieldError, err)
		_ = cleanup()
		os.Exit(1)
	}
	<-done
	logger.Info("Worker shutdown complete")
}
