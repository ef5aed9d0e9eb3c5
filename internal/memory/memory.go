// Package memory is a process-local backend, handy for demos and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"fintrack/internal/core"
)

type Store struct {
	mu       sync.Mutex
	items    []core.Record
	settings map[string]string
	version  uint64
}

func New(records ...core.Record) *Store {
	return &Store{
		items:    slices.Clone(records),
		settings: map[string]string{},
	}
}

// NewFromFile seeds the store from a JSON dump of records. A missing file
// yields an empty store.
func NewFromFile(path string) (*Store, error) {
	if path == "" {
		return New(), nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	records, err := core.DecodeRecords(f)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return New(records...), nil
}

// Insert implements ports.RecordStore
func (s *Store) Insert(_ context.Context, r core.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(r.ID) >= 0 {
		return fmt.Errorf("insert record %s: duplicate id", r.ID)
	}
	s.items = append(s.items, r)
	s.version++
	return nil
}

// Update implements ports.RecordStore
func (s *Store) Update(_ context.Context, r core.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(r.ID)
	if i < 0 {
		return fmt.Errorf("record %s: %w", r.ID, core.ErrNotFound)
	}
	s.items[i] = r
	s.version++
	return nil
}

// Delete implements ports.RecordStore
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("record %s: %w", id, core.ErrNotFound)
	}
	s.items = slices.Delete(s.items, i, i+1)
	s.version++
	return nil
}

// Get implements ports.RecordStore
func (s *Store) Get(_ context.Context, id string) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Record{}, fmt.Errorf("record %s: %w", id, core.ErrNotFound)
	}
	return s.items[i], nil
}

// All implements ports.RecordStore
func (s *Store) All(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Record{}, s.items...), nil
}

// GetSetting implements ports.SettingsStore
func (s *Store) GetSetting(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.settings[key]
	return v, ok, nil
}

// PutSetting implements ports.SettingsStore
func (s *Store) PutSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

// DataVersion implements ports.DataVersioner; it counts record writes.
func (s *Store) DataVersion(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version, nil
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(r core.Record) bool { return r.ID == id })
}
