package runs

import (
	"context"
	"testing"
	"time"
)

func TestService_AppendRequiresTriggerAndStatus(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if err := svc.Append(context.Background(), Run{Status: StatusSucceeded}); err == nil {
		t.Fatalf("expected error")
	}
	if err := svc.Append(context.Background(), Run{Trigger: TriggerScheduled}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestService_AppendFillsDefaults(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	svc.clock = func() time.Time { return time.Unix(1700000000, 0).UTC() }

	err := svc.Append(context.Background(), Run{
		Trigger:      TriggerManual,
		Status:       StatusSucceeded,
		CELCount:     42,
		CreatedCount: 3,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	got := repo.Runs()
	if len(got) != 1 {
		t.Fatalf("expected 1 run")
	}
	if got[0].ID == "" {
		t.Fatalf("expected generated id")
	}
	if got[0].FinishedAt.IsZero() || !got[0].StartedAt.Equal(got[0].FinishedAt) {
		t.Fatalf("expected timestamps defaulted: %+v", got[0])
	}
}

func TestService_RecentNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	for i, status := range []Status{StatusSucceeded, StatusFailed, StatusSkipped} {
		err := svc.Append(context.Background(), Run{
			Trigger:    TriggerScheduled,
			Status:     status,
			FinishedAt: time.Unix(1700000000+int64(i), 0).UTC(),
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	got, err := svc.Recent(context.Background(), 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(got))
	}
	if got[0].Status != StatusSkipped || got[1].Status != StatusFailed {
		t.Fatalf("unexpected order: %+v", got)
	}
}
