package backend

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/memory"
	"fintrack/internal/storage"
)

// Factory opens backends from application config.
type Factory struct {
	logger *log.Logger
	// dial is swapped in tests to avoid a broker
	dial func(url, exchange, queue string) (*amqp.Client, error)
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentBackend})
	}
	return &Factory{logger: logger, dial: amqp.NewClient}
}

// Open creates the store selected by cfg.DataBackend. An unreachable broker
// is logged and publishing disabled; the store is still returned.
func (f *Factory) Open(ctx context.Context, cfg *config.Config) (*Result, error) {
	if cfg == nil {
		return nil, errors.New("app config is nil")
	}
	t, err := ParseType(cfg.DataBackend)
	if err != nil {
		return nil, err
	}

	var res *Result
	switch t {
	case SQLite:
		res, err = f.openSQLite(ctx, cfg)
	case Memory:
		res, err = f.openMemory(ctx, cfg)
	}
	if err != nil {
		return nil, err
	}

	if cfg.AMQPEnabled() {
		client, err := f.dial(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events",
				log.FieldError, err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
			res.Publisher = client
			storeCleanup := res.Cleanup
			res.Cleanup = func() error {
				return errors.Join(client.Close(), storeCleanup())
			}
		}
	}

	return res, nil
}

func (f *Factory) openSQLite(ctx context.Context, cfg *config.Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite repository: %w", err)
	}
	if cfg.SeedFile != "" {
		f.logger.WarnContext(ctx, "SEED_FILE is only used by the memory backend", "seed_file", cfg.SeedFile)
	}
	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	return &Result{Store: repo, Cleanup: repo.Close}, nil
}

func (f *Factory) openMemory(ctx context.Context, cfg *config.Config) (*Result, error) {
	store := memory.New()
	if cfg.SeedFile != "" {
		var err error
		if store, err = memory.NewFromFile(cfg.SeedFile); err != nil {
			return nil, fmt.Errorf("seed memory backend: %w", err)
		}
	}
	f.logger.InfoContext(ctx, "Initialized memory backend", "seed_file", cfg.SeedFile)
	return &Result{Store: store, Cleanup: func() error { return nil }}, nil
}
