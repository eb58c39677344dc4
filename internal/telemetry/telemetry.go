// Package telemetry defines the process metrics emitted around the driver
// loop: how many translation units were processed or failed, how deep the
// worker queue is running, how many records were appended to the shared
// symbol-table outputs, and how long a run takes end to end.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TUsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tumerge_tus_processed_total",
		Help: "Total number of translation units successfully analysed.",
	})

	TUsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tumerge_tus_failed_total",
		Help: "Total number of translation units that failed front-end parsing.",
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tumerge_pool_queue_depth",
		Help: "Current number of TU jobs waiting to be picked up by a worker.",
	})

	SharedWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tumerge_shared_writes_total",
		Help: "Total number of records appended to a shared per-file symbol-table output.",
	}, []string{"kind"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tumerge_run_duration_seconds",
		Help:    "Wall-clock time to analyse an entire compilation database.",
		Buckets: prometheus.DefBuckets,
	})
)
