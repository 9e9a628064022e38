// Package metrics provides Prometheus metrics for the GameSelect
// recommendation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the GameSelect service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Extraction pipeline
	extractionsTotal   prometheus.Counter
	extractionFailures prometheus.Counter

	// Feature cache
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	cacheSharedLoads    prometheus.Counter
	cachePersistedLoads prometheus.Counter
	cacheSize           prometheus.Gauge

	// Recommendation requests
	recommendations       *prometheus.CounterVec
	recommendationLatency prometheus.Histogram
	candidatesExcluded    prometheus.Counter

	// Warm pipeline
	warmQueueSize prometheus.Gauge
	warmJobs      *prometheus.CounterVec

	// Provider client
	providerRequests *prometheus.CounterVec
	providerLatency  prometheus.Histogram

	// Catalog
	catalogGames prometheus.Gauge

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem sets the subsystem for all metrics.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithHistogramBuckets sets custom histogram buckets for latency metrics.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithPrometheusRegistry sets a custom Prometheus registry.
func WithPrometheusRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gameselect",
		subsystem:        "recommender",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.extractionsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "extractions_total",
		Help:      "Total number of successful feature extractions",
	})
	m.extractionFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "extraction_failures_total",
		Help:      "Total number of failed feature extractions (malformed or degenerate games)",
	})

	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feature_cache_hits_total",
		Help:      "Total number of feature cache memory hits",
	})
	m.cacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feature_cache_misses_total",
		Help:      "Total number of feature cache misses",
	})
	m.cacheSharedLoads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feature_cache_shared_loads_total",
		Help:      "Total number of loads shared between concurrent requests for the same game",
	})
	m.cachePersistedLoads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feature_cache_persisted_loads_total",
		Help:      "Total number of entries served from the durable cache tier",
	})
	m.cacheSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feature_cache_size",
		Help:      "Current number of entries in the in-memory feature cache",
	})

	m.recommendations = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "recommendations_total",
			Help:      "Total number of recommendation requests by scoring mode",
		},
		[]string{"mode"},
	)
	m.recommendationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recommendation_latency_milliseconds",
		Help:      "Histogram of end-to-end recommendation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.candidatesExcluded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidates_excluded_total",
		Help:      "Total number of candidates excluded because their features could not be produced",
	})

	m.warmQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "warm_queue_size",
		Help:      "Current size of the feature warm-up queue",
	})
	m.warmJobs = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "warm_jobs_total",
			Help:      "Total number of feature warm-up jobs by outcome",
		},
		[]string{"outcome"},
	)

	m.providerRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "provider_requests_total",
			Help:      "Total number of upstream provider requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)
	m.providerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "provider_latency_milliseconds",
		Help:      "Histogram of provider request latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.catalogGames = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "catalog_games",
		Help:      "Total number of games tracked in the catalog",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint, method and status",
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// Package-level helpers against the global manager.

// RecordExtraction counts one successful feature extraction.
func RecordExtraction() {
	globalManager.extractionsTotal.Inc()
}

// RecordExtractionFailure counts one failed feature extraction.
func RecordExtractionFailure() {
	globalManager.extractionFailures.Inc()
}

// RecordCacheHit counts one memory-tier cache hit.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss counts one cache miss.
func RecordCacheMiss() {
	globalManager.cacheMisses.Inc()
}

// RecordCacheSharedLoad counts a load whose result was shared with a
// concurrent request for the same game.
func RecordCacheSharedLoad() {
	globalManager.cacheSharedLoads.Inc()
}

// RecordCachePersistedLoad counts an entry served from the durable tier.
func RecordCachePersistedLoad() {
	globalManager.cachePersistedLoads.Inc()
}

// UpdateCacheSize sets the in-memory cache entry count.
func UpdateCacheSize(size int) {
	globalManager.cacheSize.Set(float64(size))
}

// RecordRecommendation counts one recommendation request by scoring mode.
func RecordRecommendation(mode string) {
	globalManager.recommendations.WithLabelValues(mode).Inc()
}

// RecordRecommendationLatency observes one request's end-to-end latency.
func RecordRecommendationLatency(latencyMs float64) {
	globalManager.recommendationLatency.Observe(latencyMs)
}

// RecordCandidateExcluded counts a candidate dropped from ranking.
func RecordCandidateExcluded() {
	globalManager.candidatesExcluded.Inc()
}

// UpdateWarmQueueSize sets the warm-up queue backlog.
func UpdateWarmQueueSize(size int) {
	globalManager.warmQueueSize.Set(float64(size))
}

// RecordWarmJob counts one warm-up job by outcome.
func RecordWarmJob(ok bool) {
	globalManager.warmJobs.WithLabelValues(outcome(ok)).Inc()
}

// RecordProviderRequest counts one provider request by endpoint and outcome.
func RecordProviderRequest(endpoint string, ok bool) {
	globalManager.providerRequests.WithLabelValues(endpoint, outcome(ok)).Inc()
}

// RecordProviderLatency observes one provider request latency.
func RecordProviderLatency(latencyMs float64) {
	globalManager.providerLatency.Observe(latencyMs)
}

// UpdateCatalogGames sets the catalog size gauge.
func UpdateCatalogGames(count int) {
	globalManager.catalogGames.Set(float64(count))
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes one HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the custom registry backing the global manager, for
// serving via promhttp.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
