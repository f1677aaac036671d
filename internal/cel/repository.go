package cel

import (
	"context"
	"time"
)

// Source abstracts where CEL rows come from.
//
// IMPORTANT:
// - Rows already carrying a non-empty call_log_id are still returned by
//   FetchByLinkedID (the generator uses them to obsolete stale records), but
//   FetchUnprocessed must exclude them.
type Source interface {
	// FetchUnprocessed returns up to limit rows not yet attached to a call
	// record, oldest first.
	FetchUnprocessed(ctx context.Context, limit int) ([]Record, error)

	// FetchUnprocessedBefore is FetchUnprocessed restricted to rows older
	// than the given instant.
	FetchUnprocessedBefore(ctx context.Context, before time.Time, limit int) ([]Record, error)

	// FetchByLinkedID returns every row of one linked call group.
	FetchByLinkedID(ctx context.Context, linkedID string) ([]Record, error)
}
