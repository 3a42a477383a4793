package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "perspective"

// Metrics groups the process collectors. All methods are safe on a nil receiver so
// components can run without metrics in tests.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec

	batchRuns     *prometheus.CounterVec
	batchUsers    *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec

	notificationsCreated *prometheus.CounterVec
	notificationsSwept   prometheus.Counter
	milestonesAwarded    *prometheus.CounterVec

	llmRequests       *prometheus.CounterVec
	llmLatency        *prometheus.HistogramVec
	analyzerFallbacks *prometheus.CounterVec

	storeRetries *prometheus.CounterVec
}

// NewMetrics registers every collector on a private registry, plus the Go and
// process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "api_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "api_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		batchRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "batch_runs_total",
			Help: "Rollup batch runs by kind and outcome.",
		}, []string{"kind", "outcome"}),
		batchUsers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "batch_user_results_total",
			Help: "Per-user rollup results by kind and result.",
		}, []string{"kind", "result"}),
		batchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "batch_run_duration_seconds",
			Help:    "Rollup batch wall time by kind.",
			Buckets: []float64{.1, .5, 1, 5, 15, 60, 300, 900},
		}, []string{"kind"}),
		notificationsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "notifications_created_total",
			Help: "Notifications created by type.",
		}, []string{"type"}),
		notificationsSwept: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "notifications_swept_total",
			Help: "Scheduled notifications delivered by the sweeper.",
		}),
		milestonesAwarded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "milestones_awarded_total",
			Help: "Milestone notifications by title.",
		}, []string{"title"}),
		llmRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "llm_requests_total",
			Help: "Model requests by model, schema and status.",
		}, []string{"model", "schema", "status"}),
		llmLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "llm_request_duration_seconds",
			Help:    "Model request latency including retries.",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"model", "schema"}),
		analyzerFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "analyzer_fallbacks_total",
			Help: "Analyses resolved to the neutral default, by kind.",
		}, []string{"kind"}),
		storeRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "store_retries_total",
			Help: "Request-path store retries by operation and outcome.",
		}, []string{"op", "outcome"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ObserveBatchRun(kind, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.batchRuns.WithLabelValues(kind, outcome).Inc()
	m.batchDuration.WithLabelValues(kind).Observe(dur.Seconds())
}

func (m *Metrics) IncBatchUser(kind, result string) {
	if m == nil {
		return
	}
	m.batchUsers.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) IncNotificationCreated(notifType string) {
	if m == nil {
		return
	}
	m.notificationsCreated.WithLabelValues(notifType).Inc()
}

func (m *Metrics) AddNotificationsSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.notificationsSwept.Add(float64(n))
}

func (m *Metrics) IncMilestone(title string) {
	if m == nil {
		return
	}
	m.milestonesAwarded.WithLabelValues(title).Inc()
}

func (m *Metrics) ObserveLLMRequest(model, schema, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(model, schema, status).Inc()
	m.llmLatency.WithLabelValues(model, schema).Observe(dur.Seconds())
}

func (m *Metrics) IncAnalyzerFallback(kind string) {
	if m == nil {
		return
	}
	m.analyzerFallbacks.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncStoreRetry(op, outcome string) {
	if m == nil {
		return
	}
	m.storeRetries.WithLabelValues(op, outcome).Inc()
}
