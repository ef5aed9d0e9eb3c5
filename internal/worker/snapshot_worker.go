// Package worker keeps on-disk snapshots of the ledger up to date.
package worker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/chart"
	"fintrack/internal/core"
	"fintrack/internal/metrics"
	"fintrack/internal/ports"
	"fintrack/internal/services"
)

// Snapshot file names inside the snapshot directory.
const (
	PieFile  = "pie.png"
	LineFile = "line.png"
	CSVFile  = "expenses.csv"
)

// Ledger is the read side of services.LedgerService the worker needs.
type Ledger interface {
	List(ctx context.Context, c core.FilterCriteria) ([]core.Record, error)
	Theme(ctx context.Context) (chart.Theme, error)
	Render(ctx context.Context, name string, c core.FilterCriteria, t chart.Theme, w io.Writer) error
}

// SnapshotWorker rebuilds both charts and the CSV export of the unfiltered
// ledger, and optionally mirrors the rows to an external exporter.
type SnapshotWorker struct {
	ledger   Ledger
	exporter ports.RecordExporter
	dir      string

	mu        sync.Mutex
	lastBuilt time.Time
}

func NewSnapshotWorker(ledger Ledger, exporter ports.RecordExporter, dir string) *SnapshotWorker {
	return &SnapshotWorker{ledger: ledger, exporter: exporter, dir: dir}
}

// LastBuilt returns when the last successful rebuild finished.
func (w *SnapshotWorker) LastBuilt() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastBuilt
}

// Rebuild regenerates every snapshot. Outputs are produced concurrently and
// each file is replaced atomically; one failure cancels the rest.
func (w *SnapshotWorker) Rebuild(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	started := time.Now()
	if err := w.rebuild(ctx); err != nil {
		metrics.Snapshots.WithLabelValues(metrics.ResultError).Inc()
		return err
	}
	metrics.Snapshots.WithLabelValues(metrics.ResultOK).Inc()
	w.lastBuilt = time.Now()
	slog.InfoContext(ctx, "Snapshot rebuilt",
		"dir", w.dir,
		"duration_ms", time.Since(started).Milliseconds())
	return nil
}

func (w *SnapshotWorker) rebuild(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	records, err := w.ledger.List(ctx, core.FilterCriteria{})
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	theme, err := w.ledger.Theme(ctx)
	if err != nil {
		return fmt.Errorf("load theme: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for name, file := range map[string]string{services.ChartPie: PieFile, services.ChartLine: LineFile} {
		name, file := name, file
		g.Go(func() error {
			var buf bytes.Buffer
			if err := w.ledger.Render(gctx, name, core.FilterCriteria{}, theme, &buf); err != nil {
				return fmt.Errorf("render %s: %w", name, err)
			}
			return w.write(file, buf.Bytes())
		})
	}
	g.Go(func() error {
		var buf bytes.Buffer
		if err := core.WriteCSV(&buf, records); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		return w.write(CSVFile, buf.Bytes())
	})
	if w.exporter != nil {
		g.Go(func() error {
			if err := w.exporter.Export(gctx, records); err != nil {
				return fmt.Errorf("export records: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// HandleRecordChanged rebuilds after a change notification.
func (w *SnapshotWorker) HandleRecordChanged(ctx context.Context, msg *amqp.RecordChangedMessage) error {
	slog.InfoContext(ctx, "Processing record change", "record_id", msg.ID, "op", msg.Op)
	return w.Rebuild(ctx)
}

// Run rebuilds once, then on every tick until ctx ends. Tick failures are
// logged and retried on the next tick.
func (w *SnapshotWorker) Run(ctx context.Context, interval time.Duration) error {
	if err := w.Rebuild(ctx); err != nil {
		slog.ErrorContext(ctx, "Initial snapshot failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Rebuild(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic snapshot failed", "error", err)
			}
		}
	}
}

// write replaces name in the snapshot dir via a temp file and rename.
func (w *SnapshotWorker) write(name string, data []byte) error {
	tmp, err := os.CreateTemp(w.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(w.dir, name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
