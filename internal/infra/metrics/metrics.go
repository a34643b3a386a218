// Package metrics provides Prometheus metrics for IdeaForge.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matiasleandrokruk/ideaforge/internal/infra/llm"
)

const namespace = "ideaforge"

// Metrics holds every collector. It implements llm.Observer.
type Metrics struct {
	registry *prometheus.Registry

	// LLMAttempts counts single submissions by outcome kind.
	LLMAttempts *prometheus.CounterVec
	// LLMCalls counts orchestrated calls by terminal result.
	LLMCalls *prometheus.CounterVec
	// LLMCallDuration measures orchestrated calls, retries and delays included.
	LLMCallDuration *prometheus.HistogramVec
	// LLMRetryDelay accumulates time spent waiting between attempts.
	LLMRetryDelay *prometheus.CounterVec
	// ModelReady is 1 once warm-up saw the model loaded.
	ModelReady prometheus.Gauge
	// HTTPRequests counts inbound requests by route pattern.
	HTTPRequests *prometheus.CounterVec
	// HTTPDuration measures inbound request latency by route pattern.
	HTTPDuration *prometheus.HistogramVec
}

var _ llm.Observer = (*Metrics)(nil)

// New registers all collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		LLMAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_attempts_total",
				Help:      "Total number of provider submissions by outcome",
			},
			[]string{"provider", "outcome"},
		),
		LLMCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_calls_total",
				Help:      "Total number of orchestrated generation calls by terminal result",
			},
			[]string{"provider", "result"},
		),
		LLMCallDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "llm_call_duration_seconds",
				Help:      "Duration of orchestrated calls in seconds, including retry delays",
				Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
			},
			[]string{"provider"},
		),
		LLMRetryDelay: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_retry_delay_seconds_total",
				Help:      "Total seconds spent waiting between attempts",
			},
			[]string{"provider"},
		),
		ModelReady: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "model_ready",
				Help:      "Model readiness from the warm-up task (1 = ready, 0 = not ready)",
			},
		),
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the Prometheus text exposition.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// AttemptFinished records one submission.
func (m *Metrics) AttemptFinished(provider string, _ int, o llm.Outcome) {
	m.LLMAttempts.WithLabelValues(provider, o.Kind.String()).Inc()
}

// Waiting records an inter-attempt delay.
func (m *Metrics) Waiting(provider string, d time.Duration) {
	m.LLMRetryDelay.WithLabelValues(provider).Add(d.Seconds())
}

// CallFinished records the terminal result of an orchestrated call.
func (m *Metrics) CallFinished(provider string, _ int, elapsed time.Duration, err error) {
	m.LLMCalls.WithLabelValues(provider, llm.ResultOf(err)).Inc()
	m.LLMCallDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// SetReadiness maps a warm-up state onto the ModelReady gauge.
func (m *Metrics) SetReadiness(s llm.ReadinessState) {
	if s == llm.ReadinessReady {
		m.ModelReady.Set(1)
		return
	}
	m.ModelReady.Set(0)
}

// Middleware records request count and latency labelled with the chi route
// pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
