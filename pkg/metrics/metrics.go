package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal tracks completed pipeline runs
	// Labels allow filtering by pipeline, outcome (success/warning/error), and trigger
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "naldasync_runs_total",
		Help: "Total number of completed sync pipeline runs",
	}, []string{"pipeline", "status", "trigger"})

	// RunDuration measures how long a full pipeline run takes, upload included
	// Use this to spot degradation of the Nalda API or the transfer channel
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "naldasync_run_duration_seconds",
		Help:    "Duration of sync pipeline runs in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"pipeline"})

	// RowsProcessed counts per-unit outcomes inside a run (products, orders, lines)
	RowsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "naldasync_rows_processed_total",
		Help: "Per-row outcomes within sync pipeline runs",
	}, []string{"pipeline", "outcome"})

	// LastRunTimestamp exposes the unix time of the last completed run per pipeline
	// This is the primary staleness indicator for alerting
	LastRunTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "naldasync_last_run_timestamp_seconds",
		Help: "Unix timestamp of the last completed run per pipeline",
	}, []string{"pipeline"})

	// WatchdogInterventions counts forced reschedules by the watchdog
	// A steadily growing value means triggers are being lost somewhere
	WatchdogInterventions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "naldasync_watchdog_interventions_total",
		Help: "Total number of schedules repaired by the watchdog",
	})

	// HealthStatus provides a binary 0/1 signal for the daemon's health
	HealthStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "naldasync_healthy",
		Help: "Current health status of the sync daemon (1 for healthy, 0 for unhealthy)",
	})
)
