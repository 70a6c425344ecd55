package synclog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sellbridge/nalda-sync/internal/models"
)

// PostgresSink persists run results so the log survives restarts. The
// daemon uses it; retention pruning happens inline with every append.
type PostgresSink struct {
	pool *pgxpool.Pool
}

const createLogTable = `
	CREATE TABLE IF NOT EXISTS nalda_sync_log (
		id               TEXT PRIMARY KEY,
		run_type         TEXT NOT NULL,
		trigger_kind     TEXT NOT NULL,
		status           TEXT NOT NULL,
		total            INT NOT NULL,
		succeeded        INT NOT NULL,
		updated          INT NOT NULL,
		skipped          INT NOT NULL,
		error_count      INT NOT NULL,
		message          TEXT NOT NULL,
		error_messages   TEXT[] NOT NULL DEFAULT '{}',
		duration_seconds DOUBLE PRECISION NOT NULL,
		ts               TIMESTAMPTZ NOT NULL
	)
`

func NewPostgresSink(ctx context.Context, pool *pgxpool.Pool) (*PostgresSink, error) {
	if _, err := pool.Exec(ctx, createLogTable); err != nil {
		return nil, fmt.Errorf("ensure sync log table: %w", err)
	}
	return &PostgresSink{pool: pool}, nil
}

func (s *PostgresSink) Append(ctx context.Context, r models.SyncRunResult) error {
	query := `
		INSERT INTO nalda_sync_log
			(id, run_type, trigger_kind, status, total, succeeded, updated,
			 skipped, error_count, message, error_messages, duration_seconds, ts)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`
	_, err := s.pool.Exec(ctx, query,
		r.ID, string(r.Type), string(r.Trigger), string(r.Status),
		r.Totals.Total, r.Totals.Succeeded, r.Totals.Updated,
		r.Totals.Skipped, r.Totals.Errors,
		r.Message, r.ErrorMessages, r.DurationSeconds, r.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append run result: %w", err)
	}

	// Retention: keep only the newest MaxEntries rows.
	prune := `
		DELETE FROM nalda_sync_log
		WHERE id NOT IN (
			SELECT id FROM nalda_sync_log ORDER BY ts DESC LIMIT $1
		)
	`
	if _, err := s.pool.Exec(ctx, prune, MaxEntries); err != nil {
		return fmt.Errorf("prune run log: %w", err)
	}

	return nil
}

func (s *PostgresSink) List(ctx context.Context, f Filter) ([]models.SyncRunResult, error) {
	query := `
		SELECT id, run_type, trigger_kind, status, total, succeeded, updated,
		       skipped, error_count, message, error_messages, duration_seconds, ts
		FROM nalda_sync_log
		WHERE ($1 = '' OR run_type = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY ts DESC
		LIMIT $3
	`
	limit := f.Limit
	if limit <= 0 {
		limit = MaxEntries
	}

	rows, err := s.pool.Query(ctx, query, string(f.Type), string(f.Status), limit)
	if err != nil {
		return nil, fmt.Errorf("list run results: %w", err)
	}
	defer rows.Close()

	var out []models.SyncRunResult
	for rows.Next() {
		var r models.SyncRunResult
		err := rows.Scan(
			&r.ID, &r.Type, &r.Trigger, &r.Status,
			&r.Totals.Total, &r.Totals.Succeeded, &r.Totals.Updated,
			&r.Totals.Skipped, &r.Totals.Errors,
			&r.Message, &r.ErrorMessages, &r.DurationSeconds, &r.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run result: %w", err)
		}
		out = append(out, r)
	}

	return out, rows.Err()
}

func (s *PostgresSink) Clear(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM nalda_sync_log`)
	if err != nil {
		return fmt.Errorf("clear run log: %w", err)
	}
	return nil
}
