package reporting

import (
	"context"
	"testing"
	"time"

	"call-logd/internal/callog"
)

func TestCallsSummary_TenantIsolation(t *testing.T) {
	repo := callog.NewMemoryRepo()
	now := time.Unix(1700000000, 0).UTC()
	seed(t, repo,
		callog.CallLog{ID: "c1", TenantUUID: "t1", Date: now, DateEnd: now.Add(time.Minute), Direction: callog.DirectionInternal},
		callog.CallLog{ID: "c2", TenantUUID: "t2", Date: now, DateEnd: now.Add(time.Minute), Direction: callog.DirectionInternal},
	)
	svc := NewService(repo)

	out, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{
		TenantUUID: "t1",
		Range:      TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 1 {
		t.Fatalf("expected 1 call, got %d", out.TotalCalls)
	}
}

func TestCallsSummary_Aggregates(t *testing.T) {
	repo := callog.NewMemoryRepo()
	now := time.Unix(1700000000, 0).UTC()
	answer := now.Add(10 * time.Second)
	seed(t, repo,
		callog.CallLog{
			ID: "c1", TenantUUID: "t1", Date: now, DateAnswer: &answer,
			DateEnd: now.Add(70 * time.Second), Direction: callog.DirectionInbound,
			Recordings: []callog.Recording{{UUID: "r1", Path: "/var/spool/r1.wav"}},
		},
		callog.CallLog{
			ID: "c2", TenantUUID: "t1", Date: now, DateEnd: now.Add(20 * time.Second),
			Direction: callog.DirectionInternal,
		},
		callog.CallLog{
			ID: "c3", TenantUUID: "t1", Date: now, DateAnswer: &answer,
			DateEnd: now.Add(130 * time.Second), Direction: callog.DirectionOutbound,
		},
	)
	svc := NewService(repo)

	out, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{
		TenantUUID: "t1",
		Range:      TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 3 || out.AnsweredCalls != 2 || out.UnansweredCalls != 1 {
		t.Fatalf("unexpected counts: %+v", out)
	}
	if out.InboundCalls != 1 || out.InternalCalls != 1 || out.OutboundCalls != 1 {
		t.Fatalf("unexpected directions: %+v", out)
	}
	if out.RecordedCalls != 1 {
		t.Fatalf("expected 1 recorded call, got %d", out.RecordedCalls)
	}
	// 60s + 120s of talk time over 2 answered calls.
	if out.TotalDurationSeconds != 180 || out.AverageDurationSeconds != 90 {
		t.Fatalf("unexpected durations: %+v", out)
	}
}

func TestCallsSummary_RejectsBadRequest(t *testing.T) {
	svc := NewService(callog.NewMemoryRepo())
	now := time.Unix(1700000000, 0).UTC()

	if _, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{
		Range: TimeRange{From: now, To: now.Add(time.Hour)},
	}); err != ErrInvalidRequest {
		t.Fatalf("expected invalid request for missing tenant, got %v", err)
	}
	if _, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{
		TenantUUID: "t1",
		Range:      TimeRange{From: now, To: now},
	}); err != ErrInvalidRequest {
		t.Fatalf("expected invalid request for empty range, got %v", err)
	}
}

func seed(t *testing.T, repo *callog.MemoryRepo, logs ...callog.CallLog) {
	t.Helper()
	if err := repo.Create(context.Background(), logs); err != nil {
		t.Fatalf("seed: %v", err)
	}
}
