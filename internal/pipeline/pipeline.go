// Package pipeline implements the three sync pipelines between the commerce
// backend and the Nalda marketplace: product export, order import, and
// order status export. Every run produces exactly one SyncRunResult,
// appended to the log sink whatever the outcome.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sellbridge/nalda-sync/internal/models"
	"github.com/sellbridge/nalda-sync/internal/nalda"
	"github.com/sellbridge/nalda-sync/internal/synclog"
	"github.com/sellbridge/nalda-sync/pkg/metrics"
)

// MarketplaceClient is the slice of the Nalda client the pipelines consume.
type MarketplaceClient interface {
	FetchOrderLines(ctx context.Context, apiKey string, from, to time.Time) ([]models.NaldaOrderLine, error)
	UploadCSV(ctx context.Context, creds models.SyncCredentials, feedType nalda.FeedType, filename string, data []byte) error
}

// Pipeline is one schedulable unit of sync work. Run is synchronous and
// non-reentrant by convention; the scheduler serializes runs per type.
type Pipeline interface {
	Type() models.RunType
	Run(ctx context.Context, trigger models.Trigger) (*models.SyncRunResult, error)
}

// run carries the in-progress state of one pipeline execution.
type run struct {
	result *models.SyncRunResult
	start  time.Time
	logger *slog.Logger
	sink   synclog.Sink
}

func beginRun(t models.RunType, trigger models.Trigger, sink synclog.Sink, logger *slog.Logger) *run {
	now := time.Now()
	id := uuid.NewString()
	return &run{
		result: &models.SyncRunResult{
			ID:        id,
			Type:      t,
			Trigger:   trigger,
			Timestamp: now,
		},
		start:  now,
		sink:   sink,
		logger: logger.With("run_id", id),
	}
}

// rowError records one row-scoped failure without aborting the run.
func (r *run) rowError(msg string) {
	r.result.Totals.Errors++
	r.result.ErrorMessages = append(r.result.ErrorMessages, msg)
	metrics.RowsProcessed.WithLabelValues(string(r.result.Type), "error").Inc()
}

// finish derives the overall status, records metrics, and appends the
// result to the sink. hardErr marks a run-fatal failure (status error); a
// nil hardErr with recorded row errors yields a warning.
func (r *run) finish(ctx context.Context, hardErr error, message string) (*models.SyncRunResult, error) {
	res := r.result
	res.DurationSeconds = time.Since(r.start).Seconds()

	switch {
	case hardErr != nil:
		res.Status = models.RunError
		res.Message = hardErr.Error()
	case res.Totals.Errors > 0:
		res.Status = models.RunWarning
		res.Message = fmt.Sprintf("%s (%d errors)", message, res.Totals.Errors)
	default:
		res.Status = models.RunSuccess
		res.Message = message
	}

	metrics.RunsTotal.WithLabelValues(string(res.Type), string(res.Status), string(res.Trigger)).Inc()
	metrics.RunDuration.WithLabelValues(string(res.Type)).Observe(res.DurationSeconds)
	metrics.LastRunTimestamp.WithLabelValues(string(res.Type)).SetToCurrentTime()

	if err := r.sink.Append(ctx, *res); err != nil {
		r.logger.Error("Failed to append run result to sync log", "error", err)
	}

	r.logger.Info("Pipeline run finished",
		"pipeline", res.Type,
		"status", res.Status,
		"trigger", res.Trigger,
		"total", res.Totals.Total,
		"succeeded", res.Totals.Succeeded,
		"updated", res.Totals.Updated,
		"skipped", res.Totals.Skipped,
		"errors", res.Totals.Errors,
		"duration_ms", time.Since(r.start).Milliseconds(),
	)

	return res, hardErr
}
