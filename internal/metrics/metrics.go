// Package metrics provides Prometheus instrumentation for the scoring backend.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MatchesStarted counts matches created through the start-match flow.
	MatchesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cricket_matches_started_total",
		Help: "Total number of matches started",
	})

	// CommentaryEntries counts persisted commentary entries by event type.
	CommentaryEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cricket_commentary_entries_total",
		Help: "Total commentary entries recorded",
	}, []string{"event_type"})

	// CommentaryGenerated counts synthesized commentary texts by kind.
	CommentaryGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cricket_commentary_generated_total",
		Help: "Total commentary texts synthesized",
	}, []string{"kind"})

	// CacheHits counts mirror hits by entity.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cricket_cache_hits_total",
		Help: "Mirror cache hits",
	}, []string{"entity"})

	// CacheMisses counts mirror misses by entity.
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cricket_cache_misses_total",
		Help: "Mirror cache misses",
	}, []string{"entity"})

	// IDAllocatorRetries counts allocator collisions that forced a retry.
	IDAllocatorRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cricket_id_allocator_retries_total",
		Help: "Match ID candidates rejected due to collision",
	})

	// Subscribers tracks currently connected broadcast subscribers.
	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cricket_ws_subscribers",
		Help: "Number of connected WebSocket subscribers",
	})

	// EventsPublished counts hub publishes by event name.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cricket_events_published_total",
		Help: "Total events published to broadcast groups",
	}, []string{"event"})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cricket_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cricket_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the raw path for the label; the route surface is small.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack passes through so WebSocket upgrades work behind the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}
