// Package scheduler owns the recurring triggers of the sync pipelines and
// the watchdog that repairs them. It is a single-process, tick-driven
// scheduler: no distributed coordination, one host.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sellbridge/nalda-sync/internal/license"
	"github.com/sellbridge/nalda-sync/internal/models"
	"github.com/sellbridge/nalda-sync/internal/pipeline"
	"github.com/sellbridge/nalda-sync/internal/synclog"
)

// ManualCooldown is the minimum gap between manual triggers of the same
// pipeline.
const ManualCooldown = 30 * time.Second

// ErrRateLimited is returned when a manual trigger arrives within the
// cooldown window of the previous one.
var ErrRateLimited = errors.New("manual trigger rate limited, try again in a moment")

// ErrUnknownPipeline is returned for operations on unregistered pipelines.
var ErrUnknownPipeline = errors.New("pipeline not registered")

type entry struct {
	pipe     pipeline.Pipeline
	interval models.IntervalKey
	enabled  bool

	// runMu serializes runs of one pipeline type. The 30s cooldown and the
	// running marker are advisory only; this is the real exclusion.
	runMu      sync.Mutex
	manualMu   sync.Mutex
	lastManual time.Time
}

// Scheduler fires registered pipelines on their intervals and exposes
// manual triggering with a cooldown.
type Scheduler struct {
	store   ScheduleStore
	sink    synclog.Sink
	license license.Checker
	logger  *slog.Logger
	tick    time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries map[models.RunType]*entry
}

func New(store ScheduleStore, sink synclog.Sink, lic license.Checker, tick time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:   store,
		sink:    sink,
		license: lic,
		logger:  logger,
		tick:    tick,
		now:     time.Now,
		entries: make(map[models.RunType]*entry),
	}
}

// Register attaches a pipeline. Enabled pipelines get a schedule right
// away (idempotently, so restarts do not push triggers into the future);
// disabled ones have any leftover schedule cleared.
func (s *Scheduler) Register(ctx context.Context, p pipeline.Pipeline, interval models.IntervalKey, enabled bool) error {
	s.mu.Lock()
	s.entries[p.Type()] = &entry{pipe: p, interval: interval, enabled: enabled}
	s.mu.Unlock()

	if !enabled {
		return s.Disable(ctx, p.Type())
	}
	return s.Schedule(ctx, p.Type(), interval, false)
}

// Schedule sets the next fire time to now+interval. Unless forced, an
// existing next-fire time still within one interval window in the future is
// left untouched so repeated settings saves do not push the trigger out
// forever.
func (s *Scheduler) Schedule(ctx context.Context, t models.RunType, interval models.IntervalKey, force bool) error {
	e := s.entry(t)
	if e == nil {
		return ErrUnknownPipeline
	}

	d, ok := interval.Duration()
	if !ok {
		return fmt.Errorf("unknown interval key %q", interval)
	}

	now := s.now()

	if !force {
		state, err := s.store.Get(ctx, t)
		if err != nil {
			return err
		}
		if state != nil && state.Enabled && state.NextFireAt != nil &&
			state.NextFireAt.After(now) && !state.NextFireAt.After(now.Add(d)) {
			return nil
		}
	}

	next := now.Add(d)
	return s.store.Put(ctx, &models.ScheduleState{
		Pipeline:   t,
		Enabled:    true,
		Interval:   interval,
		NextFireAt: &next,
	})
}

// Disable clears any pending schedule for the pipeline.
func (s *Scheduler) Disable(ctx context.Context, t models.RunType) error {
	if e := s.entry(t); e != nil {
		e.enabled = false
	}
	return s.store.Delete(ctx, t)
}

// TriggerManual runs a pipeline outside its schedule, at most once per
// cooldown window.
func (s *Scheduler) TriggerManual(ctx context.Context, t models.RunType) (*models.SyncRunResult, error) {
	e := s.entry(t)
	if e == nil {
		return nil, ErrUnknownPipeline
	}

	e.manualMu.Lock()
	now := s.now()
	if now.Sub(e.lastManual) < ManualCooldown {
		e.manualMu.Unlock()
		return nil, ErrRateLimited
	}
	e.lastManual = now
	e.manualMu.Unlock()

	return s.execute(ctx, e, models.TriggerManual)
}

// Run blocks until the context is canceled, firing due pipelines on every
// tick and the watchdog audit on its own hourly cadence.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.logger.Info("🕒 Scheduler started", "tick", s.tick)

	// Boot audit: repairs schedules lost while the process was down.
	s.WatchdogAudit(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler shutting down...")
			return
		case <-ticker.C:
			s.fireDue(ctx)
			s.runWatchdogIfDue(ctx)
		}
	}
}

func (s *Scheduler) fireDue(ctx context.Context) {
	for t, e := range s.snapshot() {
		if !e.enabled {
			continue
		}

		state, err := s.store.Get(ctx, t)
		if err != nil {
			s.logger.Error("Failed to read schedule state", "pipeline", t, "error", err)
			continue
		}
		if state == nil || !state.Enabled || state.NextFireAt == nil {
			continue
		}
		if state.NextFireAt.After(s.now()) {
			continue
		}

		// Claim the trigger before running so the next tick does not fire
		// the same pipeline again while this run is in flight.
		if err := s.Schedule(ctx, t, e.interval, true); err != nil {
			s.logger.Error("Failed to re-arm schedule", "pipeline", t, "error", err)
			continue
		}

		go func(e *entry) {
			if _, err := s.execute(ctx, e, models.TriggerScheduled); err != nil {
				s.logger.Error("Scheduled run failed", "pipeline", e.pipe.Type(), "error", err)
			}
		}(e)
	}
}

// execute runs one pipeline under its type mutex, maintaining the
// is-running marker for status reporting.
func (s *Scheduler) execute(ctx context.Context, e *entry, trigger models.Trigger) (*models.SyncRunResult, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	t := e.pipe.Type()
	s.markRunning(ctx, t, true)
	defer s.markRunning(ctx, t, false)

	return e.pipe.Run(ctx, trigger)
}

func (s *Scheduler) markRunning(ctx context.Context, t models.RunType, running bool) {
	state, err := s.store.Get(ctx, t)
	if err != nil || state == nil {
		return
	}

	if running {
		until := s.now().Add(models.RunningTTL)
		state.RunningUntil = &until
	} else {
		state.RunningUntil = nil
	}

	if err := s.store.Put(ctx, state); err != nil {
		s.logger.Error("Failed to update running marker", "pipeline", t, "error", err)
	}
}

func (s *Scheduler) entry(t models.RunType) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[t]
}

func (s *Scheduler) snapshot() map[models.RunType]*entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[models.RunType]*entry, len(s.entries))
	for t, e := range s.entries {
		out[t] = e
	}
	return out
}
