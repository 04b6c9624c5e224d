package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_cycles_total",
			Help: "Total number of sync cycles by outcome",
		},
		[]string{"status"},
	)

	SyncOrdersLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_orders_loaded_total",
			Help: "Total number of orders forwarded to the destination CRM",
		},
		[]string{"project"},
	)

	SyncOrdersSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_orders_skipped_total",
			Help: "Total number of orders dropped because they could not be mapped",
		},
	)

	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_upstream_errors_total",
			Help: "Total number of upstream request failures",
		},
		[]string{"system"},
	)

	SyncCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "sync_cycle_duration_seconds",
			Help: "Duration of sync cycles in seconds",
		},
	)
)
