// Package prometheus exposes the platform's operational metrics.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics aggregates every collector the platform records into.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	datasetsIngested  *prometheus.CounterVec
	compoundsIngested prometheus.Counter
	rowsExcluded      prometheus.Counter

	analysisRequests *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	cacheHits        *prometheus.CounterVec

	fetchJobs *prometheus.CounterVec
}

// NewMetrics builds all collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sarscope",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sarscope",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		datasetsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sarscope",
			Subsystem: "ingest",
			Name:      "datasets_total",
			Help:      "Datasets ingested by source.",
		}, []string{"source"}),

		compoundsIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sarscope",
			Subsystem: "ingest",
			Name:      "compounds_total",
			Help:      "Compound rows loaded into datasets.",
		}),

		rowsExcluded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sarscope",
			Subsystem: "ingest",
			Name:      "rows_excluded_total",
			Help:      "CSV rows excluded during ingestion.",
		}),

		analysisRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sarscope",
			Subsystem: "analysis",
			Name:      "requests_total",
			Help:      "Analysis operations by kind.",
		}, []string{"kind"}),

		analysisDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sarscope",
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Analysis computation time by kind.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"kind"}),

		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sarscope",
			Subsystem: "analysis",
			Name:      "cache_results_total",
			Help:      "Analysis cache lookups by outcome.",
		}, []string{"outcome"}),

		fetchJobs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sarscope",
			Subsystem: "worker",
			Name:      "fetch_jobs_total",
			Help:      "ChEMBL fetch jobs by outcome.",
		}, []string{"outcome"}),
	}
}

// Registry exposes the private registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) RecordDatasetIngested(source string, compounds, excluded int) {
	m.datasetsIngested.WithLabelValues(source).Inc()
	m.compoundsIngested.Add(float64(compounds))
	m.rowsExcluded.Add(float64(excluded))
}

func (m *Metrics) RecordAnalysis(kind string, duration time.Duration) {
	m.analysisRequests.WithLabelValues(kind).Inc()
	m.analysisDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func (m *Metrics) RecordCacheResult(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheHits.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordFetchJob(outcome string) {
	m.fetchJobs.WithLabelValues(outcome).Inc()
}
