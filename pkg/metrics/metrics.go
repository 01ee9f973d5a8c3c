package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Provider API call latency in seconds
	ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_call_duration_seconds",
			Help:    "Mail provider API call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"endpoint", "status"},
	)

	// Sync cycle duration in seconds
	SyncCycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_cycle_duration_seconds",
			Help:    "Full sync cycle duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~7min
		},
		[]string{"mode"}, // mode: initial, incremental
	)

	// Messages normalized into the relational store
	MessagesNormalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_normalized_total",
			Help: "Total number of provider messages normalized",
		},
		[]string{"status"}, // status: success, failed
	)

	// Documents written to the per-account search index
	DocumentsIndexed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "documents_indexed_total",
			Help: "Total number of search documents indexed",
		},
		[]string{"status"}, // status: inserted, duplicate, failed
	)

	// Sync cycles that ended in error
	SyncCycleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_cycle_errors_total",
			Help: "Total number of sync cycles aborted by an error",
		},
		[]string{"mode", "reason"},
	)
)

// ObserveProviderCall records one provider API round trip.
func ObserveProviderCall(endpoint, status string, duration time.Duration) {
	ProviderCallDuration.WithLabelValues(endpoint, status).Observe(duration.Seconds())
}

// ObserveSyncCycle records the duration of one sync cycle.
func ObserveSyncCycle(mode string, duration time.Duration) {
	SyncCycleDuration.WithLabelValues(mode).Observe(duration.Seconds())
}
