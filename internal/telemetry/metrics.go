package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "claimcheck"

// Metrics holds the Prometheus collectors for fact-check runs.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	runsStarted   prometheus.Counter
	runsCompleted *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	activeRuns    prometheus.Gauge

	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec

	searchResults    prometheus.Histogram
	tokensStreamed   prometheus.Counter
	citationsDropped prometheus.Counter

	httpRequests *prometheus.CounterVec
}

// NewMetrics creates collectors on a private registry, or returns nil when disabled
func NewMetrics(enabled bool) *Metrics {
	if !enabled {
		return nil
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_started_total",
			Help:      "Total number of fact-check runs started",
		}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_completed_total",
			Help:      "Total number of fact-check runs finished, by outcome",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of fact-check runs in seconds",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		}, []string{"status"}),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_runs",
			Help:      "Number of runs in progress",
		}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of workflow stages in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage", "status"}),
		stageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_errors_total",
			Help:      "Total number of stage failures, by error kind",
		}, []string{"stage", "kind"}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of results returned per search task",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 20},
		}),
		tokensStreamed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_streamed_total",
			Help:      "Total number of post chunks streamed to clients",
		}),
		citationsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "citations_dropped_total",
			Help:      "Total number of verdict citations removed because they were not in the evidence",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests, by route and status code",
		}, []string{"route", "code"}),
	}

	registry.MustRegister(
		m.runsStarted, m.runsCompleted, m.runDuration, m.activeRuns,
		m.stageDuration, m.stageErrors,
		m.searchResults, m.tokensStreamed, m.citationsDropped,
		m.httpRequests,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RunStarted records the start of a run
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.runsStarted.Inc()
	m.activeRuns.Inc()
}

// RunFinished records the outcome of a run: "completed", "failed" or "cancelled"
func (m *Metrics) RunFinished(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.activeRuns.Dec()
	m.runsCompleted.WithLabelValues(status).Inc()
	m.runDuration.WithLabelValues(status).Observe(d.Seconds())
}

// StageFinished records one stage execution. kind is empty on success.
func (m *Metrics) StageFinished(stage, kind string, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if kind != "" {
		status = "error"
		m.stageErrors.WithLabelValues(stage, kind).Inc()
	}
	m.stageDuration.WithLabelValues(stage, status).Observe(d.Seconds())
}

// SearchResults records the result count of one search task
func (m *Metrics) SearchResults(n int) {
	if m == nil {
		return
	}
	m.searchResults.Observe(float64(n))
}

// TokenStreamed counts one streamed post chunk
func (m *Metrics) TokenStreamed() {
	if m == nil {
		return
	}
	m.tokensStreamed.Inc()
}

// CitationsDropped counts citations removed by the citation check
func (m *Metrics) CitationsDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.citationsDropped.Add(float64(n))
}

// HTTPRequest counts one served request
func (m *Metrics) HTTPRequest(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
