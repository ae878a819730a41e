package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Search metrics
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_search_requests_total",
			Help: "Total number of provider search requests.",
		},
		[]string{"provider", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fusion_search_duration_seconds",
			Help:    "Duration of provider search requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// CircuitBreakerRejectionsTotal counts searches skipped because the provider breaker was open.
	CircuitBreakerRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_circuit_breaker_rejections_total",
			Help: "Total number of provider calls rejected by an open circuit breaker.",
		},
		[]string{"provider"},
	)
)

// Transfer metrics
var (
	DownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_downloads_total",
			Help: "Total number of media downloads.",
		},
		[]string{"status"},
	)

	DownloadedBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fusion_downloaded_bytes_total",
			Help: "Total number of bytes written to disk by transfers.",
		},
	)

	ActiveTransfers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fusion_active_transfers",
			Help: "Number of transfers currently in progress.",
		},
	)

	ResumedTransfersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fusion_resumed_transfers_total",
			Help: "Total number of transfers continued from a partial file.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		SearchRequestsTotal,
		SearchDuration,
		CircuitBreakerRejectionsTotal,
		DownloadsTotal,
		DownloadedBytesTotal,
		ActiveTransfers,
		ResumedTransfersTotal,
	)
}
