package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sellbridge/nalda-sync/internal/models"
)

// PostgresScheduleStore persists schedule state across restarts. One row
// per pipeline, upserted in place.
type PostgresScheduleStore struct {
	pool *pgxpool.Pool
}

const createScheduleTable = `
	CREATE TABLE IF NOT EXISTS nalda_schedule (
		pipeline      TEXT PRIMARY KEY,
		enabled       BOOLEAN NOT NULL,
		interval_key  TEXT NOT NULL,
		next_fire_at  TIMESTAMPTZ,
		running_until TIMESTAMPTZ
	)
`

func NewPostgresScheduleStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresScheduleStore, error) {
	if _, err := pool.Exec(ctx, createScheduleTable); err != nil {
		return nil, fmt.Errorf("ensure schedule table: %w", err)
	}
	return &PostgresScheduleStore{pool: pool}, nil
}

func (s *PostgresScheduleStore) Get(ctx context.Context, pipeline models.RunType) (*models.ScheduleState, error) {
	query := `
		SELECT pipeline, enabled, interval_key, next_fire_at, running_until
		FROM nalda_schedule
		WHERE pipeline = $1
	`
	var state models.ScheduleState
	err := s.pool.QueryRow(ctx, query, string(pipeline)).Scan(
		&state.Pipeline, &state.Enabled, &state.Interval,
		&state.NextFireAt, &state.RunningUntil,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load schedule state: %w", err)
	}
	return &state, nil
}

func (s *PostgresScheduleStore) Put(ctx context.Context, state *models.ScheduleState) error {
	query := `
		INSERT INTO nalda_schedule (pipeline, enabled, interval_key, next_fire_at, running_until)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (pipeline) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			interval_key = EXCLUDED.interval_key,
			next_fire_at = EXCLUDED.next_fire_at,
			running_until = EXCLUDED.running_until
	`
	_, err := s.pool.Exec(ctx, query,
		string(state.Pipeline), state.Enabled, string(state.Interval),
		state.NextFireAt, state.RunningUntil,
	)
	if err != nil {
		return fmt.Errorf("store schedule state: %w", err)
	}
	return nil
}

func (s *PostgresScheduleStore) Delete(ctx context.Context, pipeline models.RunType) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM nalda_schedule WHERE pipeline = $1`, string(pipeline))
	if err != nil {
		return fmt.Errorf("delete schedule state: %w", err)
	}
	return nil
}
