package reporting

import (
	"context"
	"errors"
	"time"

	"call-logd/internal/callog"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting.
//
// IMPORTANT:
// - Methods must enforce tenant filtering.
// - Finalized call records are immutable, so summaries are reproducible.

type Repository interface {
	ListByTenant(ctx context.Context, tenantUUID string, from, to time.Time) ([]callog.CallLog, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) CallsSummary(ctx context.Context, req CallsSummaryRequest) (CallsSummary, error) {
	if req.TenantUUID == "" {
		return CallsSummary{}, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return CallsSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return CallsSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListByTenant(ctx, req.TenantUUID, req.Range.From, req.Range.To)
	if err != nil {
		return CallsSummary{}, err
	}

	out := CallsSummary{TenantUUID: req.TenantUUID}
	for _, c := range rows {
		out.TotalCalls++
		if c.Answered() {
			out.AnsweredCalls++
			out.TotalDurationSeconds += int(c.DateEnd.Sub(*c.DateAnswer) / time.Second)
		} else {
			out.UnansweredCalls++
		}
		if len(c.Recordings) > 0 {
			out.RecordedCalls++
		}
		switch c.Direction {
		case callog.DirectionInternal:
			out.InternalCalls++
		case callog.DirectionInbound:
			out.InboundCalls++
		case callog.DirectionOutbound:
			out.OutboundCalls++
		}
	}
	if out.AnsweredCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.AnsweredCalls
	}
	return out, nil
}
