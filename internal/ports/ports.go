// Package ports declares the outbound interfaces the ledger depends on.
package ports

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordStore persists expense records. All returns records in insertion
	// order; Update and Delete report core.ErrNotFound for unknown IDs.
	RecordStore interface {
		Insert(ctx context.Context, r core.Record) error
		Update(ctx context.Context, r core.Record) error
		Delete(ctx context.Context, id string) error
		Get(ctx context.Context, id string) (core.Record, error)
		All(ctx context.Context) ([]core.Record, error)
	}

	// SettingsStore holds small string preferences such as the theme.
	// GetSetting returns ok=false when the key was never written.
	SettingsStore interface {
		GetSetting(ctx context.Context, key string) (value string, ok bool, err error)
		PutSetting(ctx context.Context, key, value string) error
	}

	// Store is the full persistence surface a backend provides.
	Store interface {
		RecordStore
		SettingsStore
	}

	// DataVersioner is implemented by stores that can tell when their content
	// changed, including commits made by other processes sharing the store.
	// Only inequality of two readings is meaningful.
	DataVersioner interface {
		DataVersion(ctx context.Context) (uint64, error)
	}

	// EventPublisher announces record mutations to interested workers.
	EventPublisher interface {
		PublishRecordChanged(ctx context.Context, change RecordChange) error
	}

	// RecordExporter mirrors the full record list to an external destination.
	RecordExporter interface {
		Export(ctx context.Context, records []core.Record) error
	}
)

// Mutation operations carried by RecordChange.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpImport = "import"
)

// RecordChange describes one mutation of the ledger.
type RecordChange struct {
	ID        string
	Op        string
	Timestamp time.Time
}
