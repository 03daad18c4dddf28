// Package metrics provides Prometheus metrics for derivations and the HTTP
// service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mrsinham/radtech/internal/protocol"
)

var (
	// Derivation metrics
	DerivationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radtech_derivations_total",
			Help: "Total number of technique derivations",
		},
		[]string{"strategy", "outcome"},
	)

	DerivationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "radtech_derivation_duration_seconds",
			Help:    "Time taken to derive a technique",
			Buckets: []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01},
		},
		[]string{"strategy"},
	)

	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radtech_fallbacks_total",
			Help: "Unrecognized keys replaced by the fallback row",
		},
		[]string{"field"},
	)

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radtech_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "radtech_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	ProtocolReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radtech_protocol_reloads_total",
			Help: "Protocol uploads by result",
		},
		[]string{"status"},
	)
)

// Observer records engine events. It satisfies engine.Observer.
type Observer struct{}

func (Observer) ObserveDerivation(strategy protocol.StrategyKind, outcome string, elapsed time.Duration) {
	DerivationsTotal.WithLabelValues(string(strategy), outcome).Inc()
	DerivationDuration.WithLabelValues(string(strategy)).Observe(elapsed.Seconds())
}

func (Observer) ObserveFallback(field string) {
	FallbacksTotal.WithLabelValues(field).Inc()
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(route, method string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// RecordProtocolReload records a protocol upload attempt.
func RecordProtocolReload(ok bool) {
	status := "ok"
	if !ok {
		status = "rejected"
	}
	ProtocolReloadsTotal.WithLabelValues(status).Inc()
}
