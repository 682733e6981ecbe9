// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the relais gateway.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 180s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 180}

var (
	// RequestsTotal counts inbound HTTP requests by method, status class, and provider.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relais_requests_total",
			Help: "Total inbound requests",
		},
		[]string{"method", "status", "provider"},
	)

	// RequestDuration records inbound request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relais_request_duration_seconds",
			Help:    "Inbound request duration",
			Buckets: LLMBuckets,
		},
		[]string{"method", "provider"},
	)

	// StreamingConnections tracks the number of active SSE relay connections.
	StreamingConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relais_streaming_connections_active",
			Help: "Active streaming connections",
		},
	)

	// ProviderRequestsTotal counts outbound attempts by provider and upstream status.
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relais_provider_requests_total",
			Help: "Outbound provider attempts",
		},
		[]string{"provider", "status"},
	)

	// ProviderRetriesTotal counts retry attempts by provider.
	ProviderRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relais_provider_retries_total",
			Help: "Outbound provider retries",
		},
		[]string{"provider"},
	)

	// ProviderLatency records upstream call latency in seconds.
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relais_provider_latency_seconds",
			Help:    "Provider latency",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "model"},
	)

	// ProviderTokensTotal counts tokens processed by direction (input/output).
	ProviderTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relais_provider_tokens_total",
			Help: "Token count",
		},
		[]string{"provider", "direction"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StreamingConnections,
		ProviderRequestsTotal,
		ProviderRetriesTotal,
		ProviderLatency,
		ProviderTokensTotal,
	)
}
