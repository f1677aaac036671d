package cel

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemorySource is a simple in-memory CEL source for tests and early development.
type MemorySource struct {
	mu sync.Mutex

	Rows []Record
}

func NewMemorySource() *MemorySource { return &MemorySource{} }

func (s *MemorySource) FetchUnprocessed(ctx context.Context, limit int) ([]Record, error) {
	return s.FetchUnprocessedBefore(ctx, time.Time{}, limit)
}

func (s *MemorySource) FetchUnprocessedBefore(_ context.Context, before time.Time, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0)
	for _, r := range s.Rows {
		if r.CallLogID != "" {
			continue
		}
		if !before.IsZero() && !r.EventTime.Before(before) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EventTime.Equal(out[j].EventTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].EventTime.Before(out[j].EventTime)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemorySource) FetchByLinkedID(_ context.Context, linkedID string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0)
	for _, r := range s.Rows {
		if r.LinkedID == linkedID {
			out = append(out, r)
		}
	}
	return out, nil
}
