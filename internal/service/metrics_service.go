package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the gateway:
// HTTP traffic, upstream call outcomes, circuit state and fallback cache
// effectiveness.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	upstreamTotal    *prometheus.CounterVec
	circuitOpen      prometheus.Gauge
	fallbackHits     *prometheus.CounterVec
	fallbackMisses   *prometheus.CounterVec
	expiredTotal     prometheus.Counter
}

// NewMetricsService registers the gateway's Prometheus collectors.
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

	upstreamDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_call_duration_seconds",
		Help:    "Duration of calls to the core store",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "resource", "outcome"})

	upstreamTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_calls_total",
		Help: "Total calls to the core store by outcome",
	}, []string{"method", "resource", "outcome"})

	circuitOpen := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "upstream_circuit_open",
		Help: "1 when the core store is considered unavailable",
	})

	fallbackHits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_fallback_hits_total",
		Help: "Degraded catalog reads served from the last known copy",
	}, []string{"resource"})

	fallbackMisses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_fallback_misses_total",
		Help: "Degraded catalog reads with no fallback copy available",
	}, []string{"resource"})

	expiredTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "appointments_expired_total",
		Help: "Appointments cancelled by the expiry sweep",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, upstreamDuration, upstreamTotal,
		circuitOpen, fallbackHits, fallbackMisses, expiredTotal, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		upstreamDuration: upstreamDuration,
		upstreamTotal:    upstreamTotal,
		circuitOpen:      circuitOpen,
		fallbackHits:     fallbackHits,
		fallbackMisses:   fallbackMisses,
		expiredTotal:     expiredTotal,
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

// ObserveHTTPRequest records inbound request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveCall records the outcome of a call to the core store.
func (m *MetricsService) ObserveCall(method, resource, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.upstreamDuration.WithLabelValues(method, resource, outcome).Observe(duration.Seconds())
	m.upstreamTotal.WithLabelValues(method, resource, outcome).Inc()
}

// SetCircuitOpen reflects the availability of the core store.
func (m *MetricsService) SetCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.circuitOpen.Set(1)
	} else {
		m.circuitOpen.Set(0)
	}
}

// RecordFallback records whether a degraded read found a last known copy.
func (m *MetricsService) RecordFallback(resource string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.fallbackHits.WithLabelValues(resource).Inc()
	} else {
		m.fallbackMisses.WithLabelValues(resource).Inc()
	}
}

// RecordExpired counts appointments cancelled by the expiry sweep.
func (m *MetricsService) RecordExpired(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.expiredTotal.Add(float64(count))
}
