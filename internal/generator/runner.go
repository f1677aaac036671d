package generator

import (
	"context"
	"log/slog"
	"time"

	"call-logd/internal/callog"
	"call-logd/internal/cel"
	"call-logd/internal/metrics"
	"call-logd/internal/runs"
)

// Lock serializes generation batches across daemon instances. A nil lock
// means single-instance deployment, no coordination needed.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Runner drives generation batches: fetch unprocessed CEL rows, run the
// engine, persist the outcome, journal the run. Storing a record reassigns
// call_log_id on its CEL rows, which is what keeps replays idempotent.
type Runner struct {
	source  cel.Source
	store   callog.Repository
	gen     *Generator
	lock    Lock
	journal *runs.Service
	limit   int
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewRunner(source cel.Source, store callog.Repository, gen *Generator, lock Lock, journal *runs.Service, limit int, m *metrics.Metrics, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	if limit <= 0 {
		limit = 1000
	}
	return &Runner{
		source:  source,
		store:   store,
		gen:     gen,
		lock:    lock,
		journal: journal,
		limit:   limit,
		metrics: m,
		log:     log,
	}
}

// RunOnce executes one batch. A held lock yields a skipped run, not an
// error. The returned run is also journaled, best-effort.
func (r *Runner) RunOnce(ctx context.Context, trigger runs.Trigger) (runs.Run, error) {
	started := time.Now().UTC()

	if r.lock != nil {
		ok, err := r.lock.Acquire(ctx)
		if err != nil {
			return r.finish(ctx, runs.Run{Trigger: trigger, Status: runs.StatusFailed, StartedAt: started, Error: err.Error()}, err)
		}
		if !ok {
			r.log.Debug("generation lock held elsewhere, skipping run")
			return r.finish(ctx, runs.Run{Trigger: trigger, Status: runs.StatusSkipped, StartedAt: started}, nil)
		}
		defer func() {
			if err := r.lock.Release(ctx); err != nil {
				r.log.Warn("generation lock release failed", "err", err)
			}
		}()
	}

	r.metrics.GenerationActive.Set(1)
	defer r.metrics.GenerationActive.Set(0)

	batch, err := r.fetchBatch(ctx)
	if err != nil {
		return r.finish(ctx, runs.Run{Trigger: trigger, Status: runs.StatusFailed, StartedAt: started, Error: err.Error()}, err)
	}

	result, err := r.gen.FromCEL(ctx, batch)
	if err != nil {
		return r.finish(ctx, runs.Run{Trigger: trigger, Status: runs.StatusFailed, StartedAt: started, CELCount: len(batch), Error: err.Error()}, err)
	}

	if err := r.store.Delete(ctx, result.CallLogIDsToDelete); err != nil {
		return r.finish(ctx, runs.Run{Trigger: trigger, Status: runs.StatusFailed, StartedAt: started, CELCount: len(batch), Error: err.Error()}, err)
	}
	if err := r.store.Create(ctx, result.NewCallLogs); err != nil {
		return r.finish(ctx, runs.Run{Trigger: trigger, Status: runs.StatusFailed, StartedAt: started, CELCount: len(batch), Error: err.Error()}, err)
	}

	run := runs.Run{
		Trigger:      trigger,
		Status:       runs.StatusSucceeded,
		StartedAt:    started,
		CELCount:     len(batch),
		CreatedCount: len(result.NewCallLogs),
		DeletedCount: len(result.CallLogIDsToDelete),
	}
	r.log.Info("generation run finished",
		"trigger", trigger, "cels", run.CELCount,
		"created", run.CreatedCount, "deleted", run.DeletedCount)
	return r.finish(ctx, run, nil)
}

// Loop runs scheduled batches until ctx is cancelled.
func (r *Runner) Loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx, runs.TriggerScheduled); err != nil {
				r.log.Error("scheduled generation run failed", "err", err)
			}
		}
	}
}

// fetchBatch pulls unprocessed rows and widens them to their full linkedid
// sequences. The widening brings back rows already consumed by an earlier
// record; their call_log_id feeds the delete-set so the stale record gets
// replaced instead of duplicated.
func (r *Runner) fetchBatch(ctx context.Context) ([]cel.Record, error) {
	fresh, err := r.source.FetchUnprocessed(ctx, r.limit)
	if err != nil {
		return nil, err
	}

	var linkedIDs []string
	seen := make(map[string]struct{})
	for _, row := range fresh {
		if _, ok := seen[row.LinkedID]; ok {
			continue
		}
		seen[row.LinkedID] = struct{}{}
		linkedIDs = append(linkedIDs, row.LinkedID)
	}

	var batch []cel.Record
	have := make(map[int64]struct{})
	for _, linkedID := range linkedIDs {
		rows, err := r.source.FetchByLinkedID(ctx, linkedID)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if _, ok := have[row.ID]; ok {
				continue
			}
			have[row.ID] = struct{}{}
			batch = append(batch, row)
		}
	}
	return batch, nil
}

func (r *Runner) finish(ctx context.Context, run runs.Run, cause error) (runs.Run, error) {
	run.FinishedAt = time.Now().UTC()
	if r.journal != nil {
		if err := r.journal.Append(ctx, run); err != nil {
			r.log.Warn("run journal append failed", "err", err)
		}
	}
	return run, cause
}
