package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mengumpulkan metrik Prometheus untuk aplikasi.
// Semua method aman dipanggil pada receiver nil.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tableQueries    *prometheus.CounterVec
	trails          *prometheus.CounterVec
	nameLookups     *prometheus.CounterVec
	breakerState    *prometheus.GaugeVec
	jobsTotal       *prometheus.CounterVec
}

// NewMetrics menginisialisasi registry dan metrik dasar.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backoffice_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	queries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_table_queries_total",
		Help: "Table pipeline runs by entity and outcome.",
	}, []string{"entity", "outcome"})
	trails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_breadcrumb_trails_total",
		Help: "Breadcrumb resolutions by outcome.",
	}, []string{"outcome"})
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_entity_name_lookups_total",
		Help: "Entity display name cache lookups by result.",
	}, []string{"kind", "result"})
	breaker := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "backoffice_breaker_state",
		Help: "Circuit breaker state per record store (0 closed, 1 half-open, 2 open).",
	}, []string{"name"})
	jobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_jobs_total",
		Help: "Background jobs processed by task type and status.",
	}, []string{"task", "status"})
	registry.MustRegister(requests, duration, queries, trails, lookups, breaker, jobs)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		tableQueries:    queries,
		trails:          trails,
		nameLookups:     lookups,
		breakerState:    breaker,
		jobsTotal:       jobs,
	}
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveQuery counts one table pipeline run.
func (m *Metrics) ObserveQuery(entity string, err error) {
	if m == nil {
		return
	}
	m.tableQueries.WithLabelValues(entity, outcome(err)).Inc()
}

// ObserveTrail counts one breadcrumb resolution; unresolved paths fall back to Home.
func (m *Metrics) ObserveTrail(resolved bool) {
	if m == nil {
		return
	}
	label := "resolved"
	if !resolved {
		label = "unknown_path"
	}
	m.trails.WithLabelValues(label).Inc()
}

// ObserveNameLookup counts one entity name cache lookup.
func (m *Metrics) ObserveNameLookup(kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.nameLookups.WithLabelValues(kind, result).Inc()
}

// SetBreakerState publishes a breaker transition. Unknown states are ignored.
func (m *Metrics) SetBreakerState(name, state string) {
	if m == nil {
		return
	}
	var v float64
	switch state {
	case "closed":
		v = 0
	case "half-open":
		v = 1
	case "open":
		v = 2
	default:
		return
	}
	m.breakerState.WithLabelValues(name).Set(v)
}

// ObserveJob counts one processed background task.
func (m *Metrics) ObserveJob(task string, err error) {
	if m == nil {
		return
	}
	m.jobsTotal.WithLabelValues(task, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
