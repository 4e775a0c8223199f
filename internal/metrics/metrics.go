// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gamerlink",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamerlink",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gamerlink",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	libraryImports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamerlink",
			Subsystem: "library",
			Name:      "imports_total",
			Help:      "Game imports by outcome.",
		},
		[]string{"result"},
	)

	catalogSearches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamerlink",
			Subsystem: "catalog",
			Name:      "searches_total",
			Help:      "Catalog searches by cache outcome.",
		},
		[]string{"source"},
	)
)

// Import outcomes.
const (
	ImportCreated = "created"
	ImportExisted = "existed"
	ImportInvalid = "invalid"
	ImportFailed  = "failed"
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		libraryImports,
		catalogSearches,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func RecordImport(result string) {
	libraryImports.WithLabelValues(result).Inc()
}

// RecordCatalogSearch counts a search served from "cache" or "remote".
func RecordCatalogSearch(source string) {
	catalogSearches.WithLabelValues(source).Inc()
}

// OtherPath labels requests that matched no registered route.
const OtherPath = "other"

type routeKey struct{}

type route struct {
	pattern string
}

// TagRoute records the mux pattern that matched r. Only tagged patterns become
// path labels, so unknown URLs cannot grow the series count.
func TagRoute(r *http.Request, pattern string) {
	rt, ok := r.Context().Value(routeKey{}).(*route)
	if !ok || pattern == "" {
		return
	}
	if _, path, found := strings.Cut(pattern, " "); found {
		pattern = path
	}
	rt.pattern = pattern
}

// InstrumentHandler wraps next with HTTP request metrics.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rt := &route{}
		r = r.WithContext(context.WithValue(r.Context(), routeKey{}, rt))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := rt.pattern
		if path == "" {
			path = OtherPath
		}
		method := methodLabel(r.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

func methodLabel(m string) string {
	switch m = strings.ToUpper(m); m {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return m
	}
	return "OTHER"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
