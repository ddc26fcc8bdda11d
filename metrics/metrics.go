package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "opera_holders_build_info",
			Help: "Build information of the holder rewards node",
		},
		[]string{"version", "network"},
	)

	BlocksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opera_holders_blocks_processed_total",
			Help: "Total number of blocks passed to the per-block hook",
		},
		[]string{"status"},
	)

	BlockDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "opera_holders_block_duration_seconds",
			Help:    "Duration of the per-block hook",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3.3s
		},
	)

	LastBlock = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "opera_holders_last_block",
			Help: "Last block processed by the per-block hook",
		},
	)

	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opera_holders_cycles_total",
			Help: "Total number of minting cycles by outcome",
		},
		[]string{"outcome"},
	)

	SnapshotRows = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "opera_holders_snapshot_rows_total",
			Help: "Total number of balance history rows written",
		},
	)

	PrunedRows = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "opera_holders_pruned_rows_total",
			Help: "Total number of balance history rows removed by retention",
		},
	)

	MintedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "opera_holders_minted_total",
			Help: "Total amount deposited to holders (approximate, float64)",
		},
	)

	ScheduleUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opera_holders_schedule_updates_total",
			Help: "Total number of schedule replacement calls",
		},
		[]string{"status"},
	)
)
