package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/drivecourse-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	transferJobs     *prometheus.CounterVec
	transferItems    *prometheus.CounterVec
	transferRunning  prometheus.Gauge
	registryDuration *prometheus.HistogramVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	transferJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mebbis_transfer_jobs_total",
		Help: "Finished registry transfer jobs by mode and final status",
	}, []string{"mode", "status"})

	transferItems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mebbis_transfer_items_total",
		Help: "Registry transfer items by mode and outcome",
	}, []string{"mode", "outcome"})

	transferRunning := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mebbis_transfer_jobs_running",
		Help: "Registry transfer jobs currently executing in this process",
	})

	registryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mebbis_registry_call_duration_seconds",
		Help:    "Duration of registry adapter calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHits, cacheMisses,
		transferJobs, transferItems, transferRunning, registryDuration, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:         registry,
		handler:          handler,
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		cacheLatency:     cacheLatency,
		cacheWrite:       cacheWrite,
		cacheHits:        cacheHits,
		cacheMisses:      cacheMisses,
		transferJobs:     transferJobs,
		transferItems:    transferItems,
		transferRunning:  transferRunning,
		registryDuration: registryDuration,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// TransferStarted bumps the running gauge.
func (m *MetricsService) TransferStarted() {
	if m == nil {
		return
	}
	m.transferRunning.Inc()
}

// TransferFinished records a job's final status and drops the running gauge.
func (m *MetricsService) TransferFinished(mode models.TransferMode, status models.TransferJobStatus) {
	if m == nil {
		return
	}
	m.transferRunning.Dec()
	m.transferJobs.WithLabelValues(string(mode), string(status)).Inc()
}

// ObserveRegistryCall records one adapter call and its item outcome.
func (m *MetricsService) ObserveRegistryCall(mode models.TransferMode, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.registryDuration.WithLabelValues(string(mode)).Observe(duration.Seconds())
	m.transferItems.WithLabelValues(string(mode), outcome).Inc()
}
