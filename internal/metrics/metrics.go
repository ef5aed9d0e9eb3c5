// Package metrics exposes the Prometheus collectors shared by the server and
// the snapshot worker. Collectors register with the default registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fintrack"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultEmpty = "empty"
	ResultHit   = "hit"
	ResultMiss  = "miss"
)

var ChartRenders = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "chart_renders_total",
	Help:      "Chart renders by chart and result (ok, empty placeholder, error).",
}, []string{"chart", "result"})

var ChartRenderSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "chart_render_seconds",
	Help:      "Time spent rasterising and encoding a chart.",
	Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5},
}, []string{"chart"})

var ChartCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "chart_cache_lookups_total",
	Help:      "Rendered chart cache lookups by result (hit, miss).",
}, []string{"result"})

var RecordMutations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "record_mutations_total",
	Help:      "Successful ledger mutations by operation.",
}, []string{"op"})

var Snapshots = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "snapshots_total",
	Help:      "Snapshot rebuilds by result.",
}, []string{"result"})

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "http_requests_total",
	Help:      "HTTP requests by method and status class.",
}, []string{"method", "class"})

var SuspiciousRequests = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "suspicious_requests_total",
	Help:      "Requests that look like probes for traversal or injection.",
})

// ObserveRender records one chart render.
func ObserveRender(chart, result string, started time.Time) {
	ChartRenders.WithLabelValues(chart, result).Inc()
	ChartRenderSeconds.WithLabelValues(chart).Observe(time.Since(started).Seconds())
}

// StatusClass maps 404 to "4xx" and so on.
func StatusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
