package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/room-scheduling-api/internal/models"
)

// Assignment outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeConflict = "conflict"
	OutcomeCapacity = "capacity"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// MetricsService owns the Prometheus registry for HTTP, cache and scheduling instrumentation.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	cacheLatency       prometheus.Observer
	cacheWrite         prometheus.Observer
	cacheHitRatio      prometheus.Gauge
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	assignmentOps      *prometheus.CounterVec
	conflictsDetected  *prometheus.CounterVec
	suggestionDuration prometheus.Observer
	lockWait           *prometheus.HistogramVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the collectors on a private registry.
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
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	assignmentOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "room_assignment_operations_total",
		Help: "Room assignment mutations by operation and outcome",
	}, []string{"operation", "outcome"})

	conflictsDetected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "room_conflicts_detected_total",
		Help: "Conflicts found by the detector, per booking source",
	}, []string{"kind"})

	suggestionDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "room_suggestion_duration_seconds",
		Help:    "Time spent ranking candidate rooms",
		Buckets: prometheus.DefBuckets,
	})

	lockWait := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "room_lock_wait_seconds",
		Help:    "Time spent acquiring per-room locks",
		Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 3, 5},
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		assignmentOps, conflictsDetected, suggestionDuration, lockWait, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLatency:       cacheLatency,
		cacheWrite:         cacheWrite,
		cacheHitRatio:      cacheHitRatio,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		assignmentOps:      assignmentOps,
		conflictsDetected:  conflictsDetected,
		suggestionDuration: suggestionDuration,
		lockWait:           lockWait,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordAssignment counts a room assignment mutation outcome.
func (m *MetricsService) RecordAssignment(operation, outcome string) {
	if m == nil {
		return
	}
	m.assignmentOps.WithLabelValues(operation, outcome).Inc()
}

// RecordConflicts counts detected conflicts by booking source.
func (m *MetricsService) RecordConflicts(conflicts []models.Conflict) {
	if m == nil {
		return
	}
	for _, conflict := range conflicts {
		m.conflictsDetected.WithLabelValues(string(conflict.Kind)).Inc()
	}
}

// ObserveSuggestion records how long ranking rooms took.
func (m *MetricsService) ObserveSuggestion(duration time.Duration) {
	if m == nil {
		return
	}
	m.suggestionDuration.Observe(duration.Seconds())
}

// ObserveLockWait records per-room lock acquisition latency.
func (m *MetricsService) ObserveLockWait(acquired bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "acquired"
	if !acquired {
		result = "failed"
	}
	m.lockWait.WithLabelValues(result).Observe(duration.Seconds())
}
