package cel

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresSource reads CEL rows from the switching core's cel table.
// It expects a database/sql pool opened with the pgx stdlib driver.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource { return &PostgresSource{db: db} }

const celColumns = `id, uniqueid, linkedid, eventtype, eventtime, channame,
	COALESCE(peer, ''), COALESCE(cid_name, ''), COALESCE(cid_num, ''),
	COALESCE(exten, ''), COALESCE(context, ''), COALESCE(userfield, ''),
	COALESCE(extra, ''), COALESCE(call_log_id::text, '')`

func (s *PostgresSource) FetchUnprocessed(ctx context.Context, limit int) ([]Record, error) {
	q := fmt.Sprintf(`SELECT %s FROM cel WHERE call_log_id IS NULL ORDER BY eventtime, id LIMIT $1`, celColumns)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("cel: fetch unprocessed: %w", err)
	}
	return scanRecords(rows)
}

func (s *PostgresSource) FetchUnprocessedBefore(ctx context.Context, before time.Time, limit int) ([]Record, error) {
	q := fmt.Sprintf(`SELECT %s FROM cel WHERE call_log_id IS NULL AND eventtime < $1 ORDER BY eventtime, id LIMIT $2`, celColumns)
	rows, err := s.db.QueryContext(ctx, q, before, limit)
	if err != nil {
		return nil, fmt.Errorf("cel: fetch unprocessed before %s: %w", before, err)
	}
	return scanRecords(rows)
}

func (s *PostgresSource) FetchByLinkedID(ctx context.Context, linkedID string) ([]Record, error) {
	q := fmt.Sprintf(`SELECT %s FROM cel WHERE linkedid = $1 ORDER BY eventtime, id`, celColumns)
	rows, err := s.db.QueryContext(ctx, q, linkedID)
	if err != nil {
		return nil, fmt.Errorf("cel: fetch by linkedid: %w", err)
	}
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var r Record
		err := rows.Scan(
			&r.ID, &r.UniqueID, &r.LinkedID, &r.EventType, &r.EventTime, &r.ChanName,
			&r.Peer, &r.CIDName, &r.CIDNum,
			&r.Exten, &r.Context, &r.UserField,
			&r.Extra, &r.CallLogID,
		)
		if err != nil {
			return nil, fmt.Errorf("cel: scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
