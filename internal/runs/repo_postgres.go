package runs

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresRepo stores the run journal in Postgres. One row per batch,
// insert-only.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, run Run) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO call_logd_runs (
			id, trigger, status, started_at, finished_at,
			cel_count, created_count, deleted_count, error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID, run.Trigger, run.Status, run.StartedAt, run.FinishedAt,
		run.CELCount, run.CreatedCount, run.DeletedCount, run.Error,
	)
	if err != nil {
		return fmt.Errorf("runs: insert run %s: %w", run.ID, err)
	}
	return nil
}

func (r *PostgresRepo) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, trigger, status, started_at, finished_at,
			cel_count, created_count, deleted_count, error
		FROM call_logd_runs
		ORDER BY finished_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("runs: list recent: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		err := rows.Scan(
			&run.ID, &run.Trigger, &run.Status, &run.StartedAt, &run.FinishedAt,
			&run.CELCount, &run.CreatedCount, &run.DeletedCount, &run.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("runs: scan run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
