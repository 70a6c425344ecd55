package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sellbridge/nalda-sync/internal/models"
	"github.com/sellbridge/nalda-sync/pkg/metrics"
)

// watchdogInterval is the cadence of the self-re-arming audit.
const watchdogInterval = time.Hour

// overdueFactor is the self-healing threshold: a schedule is only repaired
// once it is late by more than twice its own interval. One missed tick
// (host downtime, long run) is tolerated without thrashing.
const overdueFactor = 2

// runWatchdogIfDue checks the watchdog's own persisted trigger and runs the
// audit when it is due, re-arming it afterwards.
func (s *Scheduler) runWatchdogIfDue(ctx context.Context) {
	state, err := s.store.Get(ctx, models.RunWatchdog)
	if err != nil {
		s.logger.Error("Watchdog: failed to read own schedule", "error", err)
		return
	}
	if state != nil && state.NextFireAt != nil && state.NextFireAt.After(s.now()) {
		return
	}

	s.WatchdogAudit(ctx)
}

// WatchdogAudit verifies that every enabled pipeline has a live trigger and
// repairs the ones that do not. On license loss it disables everything and
// clears the schedules. The audit re-arms itself first so a crash mid-audit
// cannot stall the next one.
func (s *Scheduler) WatchdogAudit(ctx context.Context) {
	now := s.now()
	next := now.Add(watchdogInterval)
	err := s.store.Put(ctx, &models.ScheduleState{
		Pipeline:   models.RunWatchdog,
		Enabled:    true,
		Interval:   models.IntervalHourly,
		NextFireAt: &next,
	})
	if err != nil {
		s.logger.Error("Watchdog: failed to re-arm", "error", err)
	}

	if !s.license.Valid(ctx) {
		s.logger.Warn("Watchdog: license invalid, disabling all pipelines")
		for t := range s.snapshot() {
			if err := s.Disable(ctx, t); err != nil {
				s.logger.Error("Watchdog: failed to disable pipeline", "pipeline", t, "error", err)
			}
		}
		s.record(ctx, "all pipelines disabled: license invalid")
		return
	}

	for t, e := range s.snapshot() {
		if !e.enabled {
			continue
		}

		d, ok := e.interval.Duration()
		if !ok {
			s.logger.Error("Watchdog: pipeline has unknown interval", "pipeline", t, "interval", e.interval)
			continue
		}

		state, err := s.store.Get(ctx, t)
		if err != nil {
			s.logger.Error("Watchdog: failed to read schedule", "pipeline", t, "error", err)
			continue
		}

		reason := ""
		switch {
		case state == nil || !state.Enabled || state.NextFireAt == nil:
			reason = "no trigger scheduled"
		case now.Sub(*state.NextFireAt) > overdueFactor*d:
			reason = fmt.Sprintf("trigger overdue since %s", state.NextFireAt.Format(time.RFC3339))
		}
		if reason == "" {
			continue
		}

		if err := s.Schedule(ctx, t, e.interval, true); err != nil {
			s.logger.Error("Watchdog: failed to repair schedule", "pipeline", t, "error", err)
			continue
		}

		metrics.WatchdogInterventions.Inc()
		s.logger.Warn("Watchdog: repaired pipeline schedule", "pipeline", t, "reason", reason)
		s.record(ctx, fmt.Sprintf("rescheduled %s: %s", t, reason))
	}
}

// record writes a watchdog intervention to the sync log so it shows up next
// to the pipeline runs it affects.
func (s *Scheduler) record(ctx context.Context, message string) {
	result := models.SyncRunResult{
		ID:        uuid.NewString(),
		Type:      models.RunWatchdog,
		Trigger:   models.TriggerScheduled,
		Status:    models.RunWarning,
		Message:   message,
		Timestamp: s.now(),
	}
	if err := s.sink.Append(ctx, result); err != nil {
		s.logger.Error("Watchdog: failed to append log entry", "error", err)
	}
}
