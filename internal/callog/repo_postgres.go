package callog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"call-logd/pkg/utils"
)

// PostgresRepo stores finalized call records in Postgres.
// Participants, recordings and destination details live in JSONB columns to
// keep the write path to a single row per record; the dimensional tables are
// a reporting concern, not this daemon's.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Create(ctx context.Context, logs []CallLog) error {
	if len(logs) == 0 {
		return nil
	}
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		for _, l := range logs {
			participants, err := json.Marshal(l.Participants)
			if err != nil {
				return fmt.Errorf("callog: marshal participants: %w", err)
			}
			recordings, err := json.Marshal(l.Recordings)
			if err != nil {
				return fmt.Errorf("callog: marshal recordings: %w", err)
			}
			details, err := json.Marshal(l.DestinationDetails)
			if err != nil {
				return fmt.Errorf("callog: marshal destination details: %w", err)
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO call_log (
					id, tenant_uuid, date, date_end, date_answer,
					source_name, source_exten, source_internal_exten, source_internal_context, source_internal_name, source_line_identity,
					requested_name, requested_exten, requested_context, requested_internal_exten, requested_internal_context,
					destination_name, destination_exten, destination_internal_exten, destination_internal_context, destination_line_identity,
					direction, user_field, participants, recordings, destination_details
				) VALUES (
					$1, $2, $3, $4, $5,
					$6, $7, $8, $9, $10, $11,
					$12, $13, $14, $15, $16,
					$17, $18, $19, $20, $21,
					$22, $23, $24, $25, $26
				)`,
				l.ID, l.TenantUUID, l.Date, l.DateEnd, l.DateAnswer,
				l.SourceName, l.SourceExten, l.SourceInternalExten, l.SourceInternalContext, l.SourceInternalName, l.SourceLineIdentity,
				l.RequestedName, l.RequestedExten, l.RequestedContext, l.RequestedInternalExten, l.RequestedInternalContext,
				l.DestinationName, l.DestinationExten, l.DestinationInternalExten, l.DestinationInternalContext, l.DestinationLineIdentity,
				l.Direction, l.UserField, participants, recordings, details,
			)
			if err != nil {
				return fmt.Errorf("callog: insert call log %s: %w", l.ID, err)
			}

			for _, celID := range l.CELIDs {
				if _, err := tx.ExecContext(ctx,
					`UPDATE cel SET call_log_id = $1 WHERE id = $2`, l.ID, celID); err != nil {
					return fmt.Errorf("callog: reassign cel %d: %w", celID, err)
				}
			}
		}
		return nil
	})
}

func (r *PostgresRepo) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx,
				`UPDATE cel SET call_log_id = NULL WHERE call_log_id = $1`, id); err != nil {
				return fmt.Errorf("callog: detach cels of %s: %w", id, err)
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM call_log WHERE id = $1`, id); err != nil {
				return fmt.Errorf("callog: delete call log %s: %w", id, err)
			}
		}
		return nil
	})
}

func (r *PostgresRepo) ListByTenant(ctx context.Context, tenantUUID string, from, to time.Time) ([]CallLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tenant_uuid, date, date_end, date_answer,
			source_name, source_exten, destination_name, destination_exten,
			direction, participants, recordings, destination_details
		FROM call_log
		WHERE tenant_uuid = $1 AND date >= $2 AND date < $3
		ORDER BY date`, tenantUUID, from, to)
	if err != nil {
		return nil, fmt.Errorf("callog: list by tenant: %w", err)
	}
	defer rows.Close()

	var out []CallLog
	for rows.Next() {
		var l CallLog
		var participants, recordings, details []byte
		err := rows.Scan(
			&l.ID, &l.TenantUUID, &l.Date, &l.DateEnd, &l.DateAnswer,
			&l.SourceName, &l.SourceExten, &l.DestinationName, &l.DestinationExten,
			&l.Direction, &participants, &recordings, &details,
		)
		if err != nil {
			return nil, fmt.Errorf("callog: scan call log: %w", err)
		}
		if err := json.Unmarshal(participants, &l.Participants); err != nil {
			return nil, fmt.Errorf("callog: decode participants of %s: %w", l.ID, err)
		}
		if err := json.Unmarshal(recordings, &l.Recordings); err != nil {
			return nil, fmt.Errorf("callog: decode recordings of %s: %w", l.ID, err)
		}
		if err := json.Unmarshal(details, &l.DestinationDetails); err != nil {
			return nil, fmt.Errorf("callog: decode destination details of %s: %w", l.ID, err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
