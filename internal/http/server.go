// Package http serves the fintrack page, its chart images and a JSON API
// over the ledger.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/text/currency"

	"fintrack/internal/cache"
	"fintrack/internal/chart"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
	appweb "fintrack/web"
)

// Ledger is the subset of services.LedgerService the handlers use.
type Ledger interface {
	Version() uint64
	StateVersion(ctx context.Context) (string, error)
	ChartSize(name string) services.ChartSize
	Create(ctx context.Context, in core.RecordInput) (core.Record, error)
	Update(ctx context.Context, id string, in core.RecordInput) (core.Record, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (core.Record, error)
	List(ctx context.Context, c core.FilterCriteria) ([]core.Record, error)
	Dashboard(ctx context.Context, c core.FilterCriteria) (services.Dashboard, error)
	ExportCSV(ctx context.Context, c core.FilterCriteria, w io.Writer) error
	Theme(ctx context.Context) (chart.Theme, error)
	ToggleTheme(ctx context.Context) (chart.Theme, error)
	Render(ctx context.Context, name string, c core.FilterCriteria, t chart.Theme, w io.Writer) error
	Ready(ctx context.Context) error
}

var _ Ledger = (*services.LedgerService)(nil)

// Options tunes a Server. Zero values pick the defaults.
type Options struct {
	Logger   *log.Logger
	Currency currency.Unit
	// ChartCacheSize bounds the number of rendered PNGs kept in memory.
	ChartCacheSize int
	ChartCacheTTL  time.Duration
	// MutationsPerMinute limits writes per client IP; negative disables.
	MutationsPerMinute int
}

type Server struct {
	http.Server
	ledger    Ledger
	templates *template.Template
	charts    *chartCache
	limiter   *rateLimiter
	janitor   *cache.Janitor
	currency  currency.Unit
	logger    *log.Logger

	stopBackground context.CancelFunc
	shutdownOnce   sync.Once
}

// NewServer parses the embedded templates and mounts every route. Background
// cache sweeping starts immediately and stops on Shutdown.
func NewServer(addr string, ledger Ledger, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(log.Config{Component: log.ComponentHTTP})
	}
	if opts.Currency == (currency.Unit{}) {
		opts.Currency = core.DefaultCurrency
	}
	if opts.ChartCacheSize == 0 {
		opts.ChartCacheSize = 64
	}
	if opts.ChartCacheTTL == 0 {
		opts.ChartCacheTTL = 10 * time.Minute
	}
	if opts.MutationsPerMinute == 0 {
		opts.MutationsPerMinute = 60
	}

	t, err := template.New("").Funcs(templateFuncs(opts.Currency)).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		ledger:    ledger,
		templates: t,
		charts:    newChartCache(opts.ChartCacheSize, opts.ChartCacheTTL),
		currency:  opts.Currency,
		logger:    opts.Logger,
	}
	if opts.MutationsPerMinute > 0 {
		s.limiter = newRateLimiter(opts.MutationsPerMinute, time.Minute)
	}
	s.janitor = cache.NewJanitor(s.charts.lru)

	bg, cancel := context.WithCancel(context.Background())
	s.stopBackground = cancel
	go s.janitor.Run(bg, opts.ChartCacheTTL)
	if s.limiter != nil {
		go s.limiter.run(bg, 5*time.Minute)
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(func(r *http.Request) string {
		return middleware.GetReqID(r.Context())
	}))
	r.Use(s.requestLogging)
	r.Use(flagSuspicious)
	r.Use(securityHeaders(defaultHeaders()))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.Get("/static/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		})
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	r.Get("/", s.handleIndex)
	r.Get("/charts/pie.png", s.handleChart(services.ChartPie))
	r.Get("/charts/line.png", s.handleChart(services.ChartLine))
	r.Get("/export.csv", s.handleExportCSV)

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Post("/records", s.handleSaveRecordForm)
		r.Post("/records/{id}/delete", s.handleDeleteRecordForm)
		r.Post("/theme/toggle", s.handleToggleTheme)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", s.handleAPISummary)
		r.Get("/records", s.handleAPIListRecords)
		r.Get("/records/{id}", s.handleAPIGetRecord)
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit)
			r.Post("/records", s.handleAPICreateRecord)
			r.Put("/records/{id}", s.handleAPIUpdateRecord)
			r.Delete("/records/{id}", s.handleAPIDeleteRecord)
		})
	})

	return r
}

// Shutdown stops background sweeping and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.stopBackground()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ledger.Ready(ctx); err != nil {
		requestEvents(r).LogError(r.Context(), "Readiness check failed", err, log.OpReady, nil)
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
