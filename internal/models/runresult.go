package models

import "time"

// RunType identifies a sync pipeline. RunWatchdog is reserved for schedule
// repair entries written by the watchdog audit.
type RunType string

const (
	RunProductExport RunType = "product_export"
	RunOrderImport   RunType = "order_import"
	RunStatusExport  RunType = "status_export"
	RunWatchdog      RunType = "watchdog"
)

// Trigger records what started a run.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
)

// RunStatus is the overall outcome of a run.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunWarning RunStatus = "warning" // partial success, errorCount > 0
	RunError   RunStatus = "error"   // hard failure, nothing delivered
)

// RunTotals are the per-unit counters of one run.
type RunTotals struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// SyncRunResult is the immutable record of one pipeline run. It is produced
// exactly once per run and appended to the log sink.
type SyncRunResult struct {
	ID              string    `json:"id"`
	Type            RunType   `json:"type"`
	Trigger         Trigger   `json:"trigger"`
	Status          RunStatus `json:"status"`
	Totals          RunTotals `json:"totals"`
	Message         string    `json:"message"`
	ErrorMessages   []string  `json:"error_messages,omitempty"`
	DurationSeconds float64   `json:"duration_seconds"`
	Timestamp       time.Time `json:"timestamp"`
}
