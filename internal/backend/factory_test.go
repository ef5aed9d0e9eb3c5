package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/memory"
	"fintrack/internal/storage"
)

func TestParseType(t *testing.T) {
	for _, s := range []string{"sqlite", "memory"} {
		typ, err := ParseType(s)
		require.NoError(t, err)
		assert.Equal(t, s, typ.String())
	}
	_, err := ParseType("sheets")
	assert.Error(t, err)
}

func TestFactory_OpenSQLite(t *testing.T) {
	cfg := &config.Config{
		DataBackend:  config.BackendSQLite,
		SQLiteDBPath: filepath.Join(t.TempDir(), "db", "fintrack.db"),
	}
	res, err := NewFactory(nil).Open(context.Background(), cfg)
	require.NoError(t, err)
	defer res.Cleanup()

	assert.IsType(t, &storage.SQLiteRepository{}, res.Store)
	assert.Nil(t, res.Publisher)
}

func TestFactory_OpenMemorySeeded(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.json")
	payload := `[{"id":"a","date":"2024-01-01","amount":100,"category":"Food","notes":""}]`
	require.NoError(t, os.WriteFile(seed, []byte(payload), 0o600))

	cfg := &config.Config{DataBackend: config.BackendMemory, SeedFile: seed}
	res, err := NewFactory(nil).Open(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, res.Cleanup())

	assert.IsType(t, &memory.Store{}, res.Store)
	got, err := res.Store.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, core.Food, got.Category)
}

func TestFactory_BrokerDownKeepsStore(t *testing.T) {
	f := NewFactory(nil)
	f.dial = func(string, string, string) (*amqp.Client, error) {
		return nil, errors.New("connection refused")
	}
	cfg := &config.Config{DataBackend: config.BackendMemory, AMQPURL: "amqp://localhost:5672/"}

	res, err := f.Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, res.Store)
	assert.Nil(t, res.Publisher)
}

func TestFactory_Invalid(t *testing.T) {
	_, err := NewFactory(nil).Open(context.Background(), nil)
	assert.Error(t, err)

	_, err = NewFactory(nil).Open(context.Background(), &config.Config{DataBackend: "sheets"})
	assert.Error(t, err)
}
