package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a dedicated Prometheus registry and the optimizer collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Registry is the dedicated registry exposed on /metrics
	Registry *prometheus.Registry

	// HTTPRequests counts requests by method, route and status
	HTTPRequests *prometheus.CounterVec
	// HTTPDuration records request durations in seconds
	HTTPDuration *prometheus.HistogramVec

	// Optimizations counts results by the method that produced them
	Optimizations *prometheus.CounterVec
	// Fallbacks counts LLM path failures by error category
	Fallbacks *prometheus.CounterVec
	// LLMDuration records model call latency by backend and outcome
	LLMDuration *prometheus.HistogramVec
	// Unassigned records how many deliveries each result left unplaced
	Unassigned prometheus.Histogram
}

// New creates the collectors and registers them, plus Go/process collectors
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
			[]string{"method", "path", "status"},
		),
		Optimizations: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "route_optimizations_total", Help: "Optimization results by producing method."},
			[]string{"method"},
		),
		Fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "route_optimizer_fallbacks_total", Help: "Heuristic fallbacks by LLM failure category."},
			[]string{"reason"},
		),
		LLMDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "route_optimizer_llm_duration_seconds", Help: "Model call latency in seconds.", Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60}},
			[]string{"provider", "outcome"},
		),
		Unassigned: prometheus.NewHistogram(
			prometheus.HistogramOpts{Name: "route_optimizer_unassigned_deliveries", Help: "Unassigned deliveries per optimization.", Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100}},
		),
	}

	m.Registry.MustRegister(m.HTTPRequests)
	m.Registry.MustRegister(m.HTTPDuration)
	m.Registry.MustRegister(m.Optimizations)
	m.Registry.MustRegister(m.Fallbacks)
	m.Registry.MustRegister(m.LLMDuration)
	m.Registry.MustRegister(m.Unassigned)
	// Go/process collectors on our registry
	m.Registry.MustRegister(collectors.NewGoCollector())
	m.Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// RecordOptimization counts a finished optimization
func (m *Metrics) RecordOptimization(method string, unassigned int) {
	if m == nil {
		return
	}
	m.Optimizations.WithLabelValues(method).Inc()
	m.Unassigned.Observe(float64(unassigned))
}

// RecordFallback counts a switch from the LLM path to the heuristic
func (m *Metrics) RecordFallback(reason string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(reason).Inc()
}

// ObserveLLMCall records the latency of one model call
func (m *Metrics) ObserveLLMCall(provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.LLMDuration.WithLabelValues(provider, outcome).Observe(d.Seconds())
}

// Middleware records request count and duration labelled by chi route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := []string{r.Method, path, strconv.Itoa(status)}
		m.HTTPRequests.WithLabelValues(labels...).Inc()
		m.HTTPDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
	})
}
