package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "doctracker", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "doctracker", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	GatewayOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "doctracker", Name: "gateway_operations_total", Help: "Persistence gateway calls by backend, operation and result."},
		[]string{"backend", "operation", "result"},
	)
	GatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "doctracker", Name: "gateway_operation_duration_seconds", Help: "Persistence gateway call latency.", Buckets: prometheus.DefBuckets},
		[]string{"backend", "operation"},
	)
	LocalStateResets = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "doctracker", Name: "local_state_resets_total", Help: "Times a corrupted local slot was cleared."},
	)
	DocumentsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "doctracker", Name: "documents_loaded", Help: "Documents held by the state controller after the last reload."},
	)
	ExportsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "doctracker", Name: "exports_published_total", Help: "CSV snapshots uploaded to object storage."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(GatewayOperations)
	reg.MustRegister(GatewayDuration)
	reg.MustRegister(LocalStateResets)
	reg.MustRegister(DocumentsLoaded)
	reg.MustRegister(ExportsPublished)
}
