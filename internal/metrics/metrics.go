package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pagepilot/action-server-go/internal/model"
)

// Collector exposes Prometheus metrics for inbound HTTP traffic and for
// action dispatches. All methods are safe on a nil receiver so callers
// can run without metrics wired.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	attemptTotal    *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
}

// NewCollector constructs a collector with default histograms/counters.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pagepilot",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pagepilot",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	attemptTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pagepilot",
		Subsystem: "dispatch",
		Name:      "attempts_total",
		Help:      "Action attempts by kind and final status.",
	}, []string{"action", "status"})

	attemptDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pagepilot",
		Subsystem: "dispatch",
		Name:      "attempt_duration_seconds",
		Help:      "Worker execution time per attempt.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"action"})

	for _, c := range []prometheus.Collector{requestDuration, requestTotal, attemptTotal, attemptDuration} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		attemptTotal:    attemptTotal,
		attemptDuration: attemptDuration,
	}, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	if c == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// ObserveAttempt records the final status of one dispatched attempt.
func (c *Collector) ObserveAttempt(kind model.ActionKind, status model.AttemptStatus) {
	if c == nil {
		return
	}
	c.attemptTotal.WithLabelValues(string(kind), string(status)).Inc()
}

// ObserveAttemptDuration records worker execution time for one attempt.
func (c *Collector) ObserveAttemptDuration(kind model.ActionKind, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.attemptDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
