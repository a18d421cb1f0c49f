// Package metrics owns the prometheus registry and the collectors reported by
// the cache, catalog client, enrichment pool, library scanner and HTTP API.
//
// All recording methods are safe on a nil *Metrics so components can run
// without instrumentation in tests and CLI commands.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mediahub"

// Metrics groups every mediahub collector under one registry.
type Metrics struct {
	registry *prometheus.Registry

	cacheLookups     *prometheus.CounterVec
	parses           *prometheus.CounterVec
	parseDuration    prometheus.Histogram
	resolutions      *prometheus.CounterVec
	catalogRequests  *prometheus.CounterVec
	catalogLatency   *prometheus.HistogramVec
	enrichmentJobs   *prometheus.CounterVec
	enrichmentQueued prometheus.Gauge
	enrichmentActive prometheus.Gauge
	scanFiles        prometheus.Counter
	scanDuration     prometheus.Histogram
	apiRequests      *prometheus.CounterVec
	apiDuration      *prometheus.HistogramVec
}

// New builds a registry with process and Go runtime collectors plus the
// mediahub collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "lookups_total",
			Help: "Media metadata cache lookups by source (memory, store, parse).",
		}, []string{"source"}),
		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "parser", Name: "runs_total",
			Help: "Parser invocations by prober and result.",
		}, []string{"prober", "result"}),
		parseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "parser", Name: "duration_seconds",
			Help:    "Time spent running the media prober.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "resource", Name: "validations_total",
			Help: "Resource validity decisions by outcome.",
		}, []string{"outcome"}),
		catalogRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "catalog", Name: "requests_total",
			Help: "Catalog API requests by endpoint and status class.",
		}, []string{"endpoint", "status"}),
		catalogLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "catalog", Name: "request_duration_seconds",
			Help:    "Catalog API request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		enrichmentJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "enrichment", Name: "jobs_total",
			Help: "Enrichment job outcomes.",
		}, []string{"outcome"}),
		enrichmentQueued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "enrichment", Name: "queued_jobs",
			Help: "Jobs waiting for a worker.",
		}),
		enrichmentActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "enrichment", Name: "active_workers",
			Help: "Workers currently alive.",
		}),
		scanFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "library", Name: "scanned_files_total",
			Help: "Files visited by library scans.",
		}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "library", Name: "scan_duration_seconds",
			Help:    "Duration of full library scans.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "api", Name: "requests_total",
			Help: "HTTP API requests by method, route and status.",
		}, []string{"method", "endpoint", "status"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "api", Name: "request_duration_seconds",
			Help:    "HTTP API request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.cacheLookups, m.parses, m.parseDuration, m.resolutions,
		m.catalogRequests, m.catalogLatency,
		m.enrichmentJobs, m.enrichmentQueued, m.enrichmentActive,
		m.scanFiles, m.scanDuration,
		m.apiRequests, m.apiDuration,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RegisterGauge adds a gauge whose value is read from fn at scrape time.
func (m *Metrics) RegisterGauge(subsystem, name, help string, fn func() float64) {
	if m == nil || fn == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
	}, fn))
}

// CacheLookup counts one cache Get by the source that satisfied it.
func (m *Metrics) CacheLookup(source string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(source).Inc()
}

// ParseFinished records one prober run.
func (m *Metrics) ParseFinished(prober string, ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.parses.WithLabelValues(prober, result).Inc()
	m.parseDuration.Observe(elapsed.Seconds())
}

// Validation counts a resource validity decision.
func (m *Metrics) Validation(outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}

// CatalogRequest records one catalog round trip. status is the HTTP status
// code, or 0 for transport failures.
func (m *Metrics) CatalogRequest(endpoint string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.catalogRequests.WithLabelValues(endpoint, statusClass(status)).Inc()
	m.catalogLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// EnrichmentOutcome counts a finished enrichment job.
func (m *Metrics) EnrichmentOutcome(outcome string) {
	if m == nil {
		return
	}
	m.enrichmentJobs.WithLabelValues(outcome).Inc()
}

// EnrichmentQueued adjusts the queued-jobs gauge by delta.
func (m *Metrics) EnrichmentQueued(delta int) {
	if m == nil {
		return
	}
	m.enrichmentQueued.Add(float64(delta))
}

// EnrichmentWorkers adjusts the live-worker gauge by delta.
func (m *Metrics) EnrichmentWorkers(delta int) {
	if m == nil {
		return
	}
	m.enrichmentActive.Add(float64(delta))
}

// ScanFinished records a completed library scan.
func (m *Metrics) ScanFinished(files int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.scanFiles.Add(float64(files))
	m.scanDuration.Observe(elapsed.Seconds())
}

// APIRequest records one HTTP API request.
func (m *Metrics) APIRequest(method, endpoint string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, endpoint, statusCode(status)).Inc()
	m.apiDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

func statusClass(status int) string {
	switch {
	case status <= 0:
		return "error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
