package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"fintrack/internal/chart"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/ports"
)

// Chart names used in cache keys, metrics and snapshot file names.
const (
	ChartPie  = "pie"
	ChartLine = "line"
)

// ThemeSettingKey is where the chosen theme is persisted.
const ThemeSettingKey = "theme"

// ChartSize is a surface size in pixels.
type ChartSize struct {
	Width, Height int
}

// Options tunes a LedgerService. Zero values pick the defaults.
type Options struct {
	Publisher    ports.EventPublisher
	Logger       *log.Logger
	PieSize      ChartSize
	LineSize     ChartSize
	DefaultTheme chart.Theme
}

// Dashboard is everything one render cycle needs for a given filter.
type Dashboard struct {
	Filter     core.FilterCriteria
	Records    []core.Record
	ByCategory core.CategoryAggregate
	ByDate     core.TemporalAggregate
	Summary    core.Summary
}

// LedgerService owns the record list and threads filter and theme into
// every derived view. It is safe for concurrent use if the store is.
type LedgerService struct {
	store        ports.Store
	publisher    ports.EventPublisher
	logger       *log.Logger
	events       *log.StructuredLogger
	pieSize      ChartSize
	lineSize     ChartSize
	defaultTheme chart.Theme
	version      atomic.Uint64
	now          func() time.Time
}

func NewLedgerService(store ports.Store, opts Options) *LedgerService {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Config{Handler: slog.Default().Handler(), Component: log.ComponentLedger})
	}
	if opts.PieSize == (ChartSize{}) {
		opts.PieSize = ChartSize{Width: 420, Height: 300}
	}
	if opts.LineSize == (ChartSize{}) {
		opts.LineSize = ChartSize{Width: 640, Height: 300}
	}
	if opts.DefaultTheme.Name == "" {
		opts.DefaultTheme = chart.Dark
	}
	return &LedgerService{
		store:        store,
		publisher:    opts.Publisher,
		logger:       logger,
		events:       log.NewStructuredLogger(logger),
		pieSize:      opts.PieSize,
		lineSize:     opts.LineSize,
		defaultTheme: opts.DefaultTheme,
		now:          time.Now,
	}
}

// Version increases on every successful mutation. Derived views computed at
// the same version are interchangeable.
func (s *LedgerService) Version() uint64 {
	return s.version.Load()
}

// StateVersion identifies the stored content as seen by this process. It
// joins Version with the store's data version when the store has one, so
// writes made by other processes sharing the store change it too.
func (s *LedgerService) StateVersion(ctx context.Context) (string, error) {
	v := strconv.FormatUint(s.Version(), 10)
	dv, ok := s.store.(ports.DataVersioner)
	if !ok {
		return v, nil
	}
	n, err := dv.DataVersion(ctx)
	if err != nil {
		return v, fmt.Errorf("store data version: %w", err)
	}
	return v + "." + strconv.FormatUint(n, 10), nil
}

// ChartSize returns the surface size used for the named chart.
func (s *LedgerService) ChartSize(name string) ChartSize {
	if name == ChartLine {
		return s.lineSize
	}
	return s.pieSize
}

// Create validates in, assigns a fresh ID and stores the record.
func (s *LedgerService) Create(ctx context.Context, in core.RecordInput) (core.Record, error) {
	rec, err := core.NewRecord(in)
	if err != nil {
		return core.Record{}, err
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		return core.Record{}, fmt.Errorf("save record: %w", err)
	}
	s.mutated(ctx, ports.OpCreate, rec)
	return rec, nil
}

// Update replaces the editable fields of the record with the given ID.
func (s *LedgerService) Update(ctx context.Context, id string, in core.RecordInput) (core.Record, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Record{}, err
	}
	rec, err := existing.WithInput(in)
	if err != nil {
		return core.Record{}, err
	}
	if err := s.store.Update(ctx, rec); err != nil {
		return core.Record{}, fmt.Errorf("update record: %w", err)
	}
	s.mutated(ctx, ports.OpUpdate, rec)
	return rec, nil
}

func (s *LedgerService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return core.ErrEmptyID
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.mutated(ctx, ports.OpDelete, core.Record{ID: id})
	return nil
}

func (s *LedgerService) Get(ctx context.Context, id string) (core.Record, error) {
	return s.store.Get(ctx, id)
}

// List returns the records matching c ordered by date.
func (s *LedgerService) List(ctx context.Context, c core.FilterCriteria) ([]core.Record, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	return core.Select(all, c), nil
}

// Dashboard selects with c and derives both aggregates and the KPIs.
func (s *LedgerService) Dashboard(ctx context.Context, c core.FilterCriteria) (Dashboard, error) {
	selected, err := s.List(ctx, c)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		Filter:     c,
		Records:    selected,
		ByCategory: core.AggregateByCategory(selected),
		ByDate:     core.AggregateByDate(selected),
		Summary:    core.Summarize(selected),
	}, nil
}

// Import appends records as-is, keeping their IDs. It stops at the first
// failure and reports how many were stored.
func (s *LedgerService) Import(ctx context.Context, records []core.Record) (int, error) {
	n := 0
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return n, fmt.Errorf("record %d (%s): %w", n+1, rec.ID, err)
		}
		if err := s.store.Insert(ctx, rec); err != nil {
			return n, fmt.Errorf("import record %s: %w", rec.ID, err)
		}
		n++
	}
	if n > 0 {
		s.version.Add(1)
		metrics.RecordMutations.WithLabelValues(ports.OpImport).Add(float64(n))
		s.logger.InfoContext(ctx, "Records imported", log.FieldCount, n)
		s.publish(ctx, ports.RecordChange{Op: ports.OpImport, Timestamp: s.now()})
	}
	return n, nil
}

// ExportCSV writes the records matching c as CSV.
func (s *LedgerService) ExportCSV(ctx context.Context, c core.FilterCriteria, w io.Writer) error {
	selected, err := s.List(ctx, c)
	if err != nil {
		return err
	}
	return core.WriteCSV(w, selected)
}

// Theme returns the persisted theme, or the default when none was chosen.
func (s *LedgerService) Theme(ctx context.Context) (chart.Theme, error) {
	name, ok, err := s.store.GetSetting(ctx, ThemeSettingKey)
	if err != nil {
		return s.defaultTheme, fmt.Errorf("load theme: %w", err)
	}
	if !ok {
		return s.defaultTheme, nil
	}
	t, err := chart.ParseTheme(name)
	if err != nil {
		s.logger.WarnContext(ctx, "Ignoring unknown stored theme", log.FieldTheme, name)
		return s.defaultTheme, nil
	}
	return t, nil
}

func (s *LedgerService) SetTheme(ctx context.Context, t chart.Theme) error {
	if err := s.store.PutSetting(ctx, ThemeSettingKey, t.Name); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

// ToggleTheme flips between light and dark and persists the result.
func (s *LedgerService) ToggleTheme(ctx context.Context) (chart.Theme, error) {
	cur, err := s.Theme(ctx)
	if err != nil {
		return cur, err
	}
	next := cur.Toggle()
	if err := s.SetTheme(ctx, next); err != nil {
		return cur, err
	}
	return next, nil
}

// RenderPie writes the category pie for c as PNG.
func (s *LedgerService) RenderPie(ctx context.Context, c core.FilterCriteria, t chart.Theme, w io.Writer) error {
	started := time.Now()
	d, err := s.Dashboard(ctx, c)
	if err != nil {
		metrics.ObserveRender(ChartPie, metrics.ResultError, started)
		return err
	}
	err = chart.RenderPNG(w, s.pieSize.Width, s.pieSize.Height, func(surf chart.Surface) {
		chart.RenderPie(surf, d.ByCategory, t)
	})
	s.observe(ctx, ChartPie, len(d.ByCategory) == 0, started, err)
	return err
}

// RenderLine writes spending over time for c as PNG.
func (s *LedgerService) RenderLine(ctx context.Context, c core.FilterCriteria, t chart.Theme, w io.Writer) error {
	started := time.Now()
	d, err := s.Dashboard(ctx, c)
	if err != nil {
		metrics.ObserveRender(ChartLine, metrics.ResultError, started)
		return err
	}
	err = chart.RenderPNG(w, s.lineSize.Width, s.lineSize.Height, func(surf chart.Surface) {
		chart.RenderLine(surf, d.ByDate, t)
	})
	s.observe(ctx, ChartLine, len(d.ByDate) == 0, started, err)
	return err
}

// Render dispatches on the chart name.
func (s *LedgerService) Render(ctx context.Context, name string, c core.FilterCriteria, t chart.Theme, w io.Writer) error {
	switch name {
	case ChartPie:
		return s.RenderPie(ctx, c, t, w)
	case ChartLine:
		return s.RenderLine(ctx, c, t, w)
	default:
		return fmt.Errorf("unknown chart %q", name)
	}
}

// Ready checks the backing store.
func (s *LedgerService) Ready(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	_, err := s.store.All(ctx)
	return err
}

func (s *LedgerService) observe(ctx context.Context, name string, empty bool, started time.Time, err error) {
	result := metrics.ResultOK
	switch {
	case err != nil:
		result = metrics.ResultError
		s.events.LogError(ctx, "Chart render failed", err, log.OpRender, log.LogFields{log.FieldChart: name})
	case empty:
		result = metrics.ResultEmpty
	}
	metrics.ObserveRender(name, result, started)
}

func (s *LedgerService) mutated(ctx context.Context, op string, rec core.Record) {
	s.version.Add(1)
	metrics.RecordMutations.WithLabelValues(op).Inc()
	s.events.LogRecordMutation(ctx, op, rec)
	s.publish(ctx, ports.RecordChange{ID: rec.ID, Op: op, Timestamp: s.now()})
}

// publish never fails the caller: the mutation is already stored.
func (s *LedgerService) publish(ctx context.Context, change ports.RecordChange) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecordChanged(ctx, change); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish record change",
			log.FieldRecordID, change.ID,
			log.FieldOperation, change.Op,
			log.FieldError, err)
	}
}

// IsValidation reports whether err came from input validation.
func IsValidation(err error) bool {
	return errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidCategory) ||
		errors.Is(err, core.ErrEmptyID)
}
