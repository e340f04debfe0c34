// v0
// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/circuitbreaker"
)

const namespace = "ecosort"

// Metrics owns a private registry so several instances can coexist in tests.
// Every method is safe on a nil receiver.
type Metrics struct {
	reg *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	scansLogged       *prometheus.CounterVec
	scansRejected     *prometheus.CounterVec
	aggregateDuration *prometheus.HistogramVec
	skippedRecords    prometheus.Counter
	storeErrors       *prometheus.CounterVec
	ingestMessages    *prometheus.CounterVec
	exports           *prometheus.CounterVec
	cbState           *prometheus.GaugeVec
}

// New registers every collector on a private registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total report cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total report cache misses.",
		}),
		scansLogged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_logged_total",
			Help:      "Scan events appended to the store by category and source.",
		}, []string{"category", "source"}),
		scansRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_rejected_total",
			Help:      "Scan events rejected before storage by source.",
		}, []string{"source"}),
		aggregateDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "Time spent reading and aggregating a report, by report kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		skippedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregation_skipped_records_total",
			Help:      "Stored events skipped during aggregation because of an unknown category.",
		}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Transient event store failures by operation.",
		}, []string{"op"}),
		ingestMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_messages_total",
			Help:      "Messages consumed by the asynchronous ingesters by source and result.",
		}, []string{"source", "result"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Export documents produced by format.",
		}, []string{"format"}),
		cbState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cb_state",
			Help:      "Circuit breaker state gauge (0 closed, 1 half, 2 open).",
		}, []string{"target"}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.cacheHits,
		m.cacheMisses,
		m.scansLogged,
		m.scansRejected,
		m.aggregateDuration,
		m.skippedRecords,
		m.storeErrors,
		m.ingestMessages,
		m.exports,
		m.cbState,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler records request count and latency under route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// CacheHit counts a report served from cache.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// CacheMiss counts a report recomputed from the store.
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// ScanLogged counts an accepted scan.
func (m *Metrics) ScanLogged(category, source string) {
	if m == nil {
		return
	}
	m.scansLogged.WithLabelValues(category, source).Inc()
}

// ScanRejected counts a scan refused by validation.
func (m *Metrics) ScanRejected(source string) {
	if m == nil {
		return
	}
	m.scansRejected.WithLabelValues(source).Inc()
}

// Aggregated records one aggregation run.
func (m *Metrics) Aggregated(kind string, d time.Duration, skipped int) {
	if m == nil {
		return
	}
	m.aggregateDuration.WithLabelValues(kind).Observe(d.Seconds())
	if skipped > 0 {
		m.skippedRecords.Add(float64(skipped))
	}
}

// StoreError counts a failed store operation.
func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}

// IngestMessage counts a broker message by outcome.
func (m *Metrics) IngestMessage(source, result string) {
	if m == nil {
		return
	}
	m.ingestMessages.WithLabelValues(source, result).Inc()
}

// Exported counts a served export.
func (m *Metrics) Exported(format string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(format).Inc()
}

// BreakerObserver returns a circuitbreaker.StateObserver feeding the cb_state gauge.
func (m *Metrics) BreakerObserver() circuitbreaker.StateObserver {
	return func(name string, _, to circuitbreaker.State) {
		m.SetBreakerState(name, to)
	}
}

// SetBreakerState publishes the breaker state as a gauge.
func (m *Metrics) SetBreakerState(target string, state circuitbreaker.State) {
	if m == nil {
		return
	}
	var v float64
	switch state {
	case circuitbreaker.HalfOpen:
		v = 1
	case circuitbreaker.Open:
		v = 2
	}
	m.cbState.WithLabelValues(target).Set(v)
}
