package models

import "time"

// IntervalKey names a recurring cadence the scheduler understands.
type IntervalKey string

const (
	IntervalQuarterHour IntervalKey = "15min"
	IntervalHalfHour    IntervalKey = "30min"
	IntervalHourly      IntervalKey = "hourly"
	IntervalTwiceDaily  IntervalKey = "twicedaily"
	IntervalDaily       IntervalKey = "daily"
)

// Duration resolves the key to a concrete interval. Unknown keys report
// false and the caller must treat the schedule as misconfigured.
func (k IntervalKey) Duration() (time.Duration, bool) {
	switch k {
	case IntervalQuarterHour:
		return 15 * time.Minute, true
	case IntervalHalfHour:
		return 30 * time.Minute, true
	case IntervalHourly:
		return time.Hour, true
	case IntervalTwiceDaily:
		return 12 * time.Hour, true
	case IntervalDaily:
		return 24 * time.Hour, true
	}
	return 0, false
}

// RunningTTL bounds how long the is-running marker is trusted. It is a
// display and rate-limit aid, not a mutual exclusion guarantee.
const RunningTTL = 30 * time.Minute

// ScheduleState is the persisted recurring-trigger state of one pipeline.
// Created on enable, cleared on disable, audited and repaired by the
// watchdog.
type ScheduleState struct {
	Pipeline     RunType
	Enabled      bool
	Interval     IntervalKey
	NextFireAt   *time.Time
	RunningUntil *time.Time
}

// IsRunning reports whether the run marker is still within its TTL.
func (s *ScheduleState) IsRunning(now time.Time) bool {
	return s.RunningUntil != nil && now.Before(*s.RunningUntil)
}
