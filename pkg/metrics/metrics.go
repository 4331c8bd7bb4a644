// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FillRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formfill_requests_total",
			Help: "Total number of fill requests by outcome",
		},
		[]string{"outcome"},
	)

	FillDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "formfill_duration_seconds",
			Help:    "Duration of the spreadsheet to PDF pipeline in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CleanupFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formfill_cleanup_failures_total",
			Help: "Transient files that could not be deleted",
		},
		[]string{"area"},
	)

	PurgedFiles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formfill_purged_files_total",
			Help: "Files removed by purge sweeps",
		},
		[]string{"area"},
	)

	PurgeRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formfill_purge_runs_total",
			Help: "Purge sweeps by trigger and outcome",
		},
		[]string{"trigger", "outcome"},
	)
)
