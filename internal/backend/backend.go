// Package backend wires the configured record store and optional event
// publisher together for the binaries.
package backend

import (
	"fmt"

	"fintrack/internal/config"
	"fintrack/internal/ports"
)

// CleanupFunc releases what Open acquired.
type CleanupFunc func() error

// Result carries the opened store and, when AMQP is configured and
// reachable, a publisher for record changes.
type Result struct {
	Store     ports.Store
	Publisher ports.EventPublisher
	Cleanup   CleanupFunc
}

// Type names a storage backend.
type Type string

const (
	SQLite Type = config.BackendSQLite
	Memory Type = config.BackendMemory
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	return t == SQLite || t == Memory
}

// ParseType validates a DATA_BACKEND value.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid backend type %q: must be one of %v", s, Types())
	}
	return t, nil
}

func Types() []Type {
	return []Type{SQLite, Memory}
}
