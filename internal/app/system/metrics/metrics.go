// Package metrics exposes the console's Prometheus instruments.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "raciconsole"

type instruments struct {
	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	backendRequestsTotal   *prometheus.CounterVec
	backendRequestDuration *prometheus.HistogramVec

	responseShapes *prometheus.CounterVec
	mutationsTotal *prometheus.CounterVec
	liveViews      prometheus.Gauge
}

var get = sync.OnceValue(func() *instruments {
	return &instruments{
		httpInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "In-flight HTTP requests.",
		}),
		httpRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		backendRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Requests made to the REST backend.",
		}, []string{"method", "resource", "status"}),
		backendRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "REST backend latencies in seconds.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"method", "resource"}),
		responseShapes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_response_shapes_total",
			Help:      "List responses by detected payload shape.",
		}, []string{"resource", "shape"}),
		mutationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Optimistic mutations by outcome.",
		}, []string{"resource", "kind", "outcome"}),
		liveViews: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_views",
			Help:      "Resource views currently held in memory.",
		}),
	}
})

// Handler serves the default registry.
func Handler() http.Handler {
	get()
	return promhttp.Handler()
}

// Instrument records in-flight count, totals and latency per chi route
// pattern. Unmatched paths are reported as "unmatched" to bound cardinality.
func Instrument(next http.Handler) http.Handler {
	m := get()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := strconv.Itoa(sw.code)
		m.httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// ObserveBackend records one backend round trip. status is the HTTP code,
// or "error" when no response arrived.
func ObserveBackend(method, resource, status string, d time.Duration) {
	m := get()
	m.backendRequestsTotal.WithLabelValues(method, resource, status).Inc()
	m.backendRequestDuration.WithLabelValues(method, resource).Observe(d.Seconds())
}

// ObserveShape counts which response variant a list endpoint used.
func ObserveShape(resource, shape string) {
	get().responseShapes.WithLabelValues(resource, shape).Inc()
}

// ObserveMutation counts a finished mutation.
func ObserveMutation(resource, kind, outcome string) {
	get().mutationsTotal.WithLabelValues(resource, kind, outcome).Inc()
}

// SetLiveViews reports how many views the registry holds.
func SetLiveViews(n int) {
	get().liveViews.Set(float64(n))
}
