package callog

import (
	"context"
	"time"
)

// Repository persists finalized call records.
//
// IMPORTANT:
// - Create must atomically insert the records and reassign call_log_id on
//   every consumed CEL row; a half-written record would make the next batch
//   re-generate it.
// - Delete removes stale records whose CELs were re-consumed.
type Repository interface {
	Create(ctx context.Context, logs []CallLog) error
	Delete(ctx context.Context, ids []string) error
	ListByTenant(ctx context.Context, tenantUUID string, from, to time.Time) ([]CallLog, error)
}
