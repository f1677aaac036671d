package runs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for the run journal.
//
// It MUST be append-only for writes.

type Repository interface {
	Append(ctx context.Context, r Run) error
	Recent(ctx context.Context, limit int) ([]Run, error)
}

// Service journals generation batches.
//
// Callers should treat journaling as best-effort: log append failures, keep
// generating.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidRun = errors.New("runs: invalid run")

func (s *Service) Append(ctx context.Context, r Run) error {
	if s.repo == nil {
		return errors.New("runs: repository not configured")
	}
	if r.Trigger == "" || r.Status == "" {
		return ErrInvalidRun
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.FinishedAt.IsZero() {
		r.FinishedAt = s.clock().UTC()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = r.FinishedAt
	}
	return s.repo.Append(ctx, r)
}

// Recent returns the latest runs, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]Run, error) {
	if s.repo == nil {
		return nil, errors.New("runs: repository not configured")
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.Recent(ctx, limit)
}
