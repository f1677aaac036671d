package callog

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory call-log store for tests and early development.
type MemoryRepo struct {
	mu sync.Mutex

	Logs map[string]CallLog
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{Logs: map[string]CallLog{}} }

func (r *MemoryRepo) Create(_ context.Context, logs []CallLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range logs {
		r.Logs[l.ID] = l
	}
	return nil
}

func (r *MemoryRepo) Delete(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.Logs, id)
	}
	return nil
}

func (r *MemoryRepo) ListByTenant(_ context.Context, tenantUUID string, from, to time.Time) ([]CallLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallLog, 0)
	for _, l := range r.Logs {
		if l.TenantUUID != tenantUUID {
			continue
		}
		if !from.IsZero() && l.Date.Before(from) {
			continue
		}
		if !to.IsZero() && !l.Date.Before(to) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}
