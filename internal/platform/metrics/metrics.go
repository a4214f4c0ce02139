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

// Metrics groups the collectors of the service. Each instance owns its
// registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	LLMCalls        *prometheus.CounterVec
	LLMDuration     *prometheus.HistogramVec
	Fallbacks       *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medisim_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "medisim_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"method", "route"},
		),
		LLMCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medisim_llm_calls_total",
				Help: "External language model calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		LLMDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "medisim_llm_call_duration_seconds",
				Help:    "Latency of external language model calls",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45},
			},
			[]string{"operation"},
		),
		Fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medisim_fallbacks_total",
				Help: "Degraded results substituted for failed external calls",
			},
			[]string{"component"},
		),
	}

	m.registry.MustRegister(
		m.RequestCounter,
		m.RequestDuration,
		m.LLMCalls,
		m.LLMDuration,
		m.Fallbacks,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveLLM records one external call.
func (m *Metrics) ObserveLLM(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.LLMCalls.WithLabelValues(operation, outcome).Inc()
	m.LLMDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// Fallback counts a degraded result for component.
func (m *Metrics) Fallback(component string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(component).Inc()
}

// Middleware records request counts and latency labelled by chi route
// pattern, so path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		m.RequestCounter.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
