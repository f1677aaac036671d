// Package generator wires the correlation engine together: it turns a batch
// of raw CEL rows into finalized call logs plus the set of stale call log ids
// those rows were previously attached to.
package generator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"call-logd/internal/callog"
	"call-logd/internal/cel"
	"call-logd/internal/correlate"
	"call-logd/internal/directory"
	"call-logd/internal/interpret"
	"call-logd/internal/metrics"
	"call-logd/internal/resolve"
)

// Result is what one generation batch produced.
type Result struct {
	NewCallLogs []callog.CallLog
	// CallLogIDsToDelete lists every distinct call log id already attached
	// to an input row. Those records are stale and must be replaced by the
	// new ones.
	CallLogIDsToDelete []string
}

type Generator struct {
	correlator    *correlate.Correlator
	interpretors  []interpret.Interpretor
	dir           directory.Client
	defaultTenant func() string
	filter        *callog.ExtenFilter
	metrics       *metrics.Metrics
	log           *slog.Logger
}

func New(interpretors []interpret.Interpretor, dir directory.Client, defaultTenant func() string, filter *callog.ExtenFilter, m *metrics.Metrics, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	if filter == nil {
		filter = callog.NewExtenFilter()
	}
	return &Generator{
		correlator:    correlate.New(log),
		interpretors:  interpretors,
		dir:           dir,
		defaultTenant: defaultTenant,
		filter:        filter,
		metrics:       m,
		log:           log,
	}
}

// FromCEL reconstructs call logs from the batch. Invalid clusters are logged
// and skipped; only a missing interpretor, a programming error, aborts the
// whole batch.
func (g *Generator) FromCEL(ctx context.Context, batch []cel.Record) (Result, error) {
	started := time.Now()
	g.metrics.BatchRuns.Inc()
	g.metrics.CELRowsFetched.Add(float64(len(batch)))
	defer func() {
		g.metrics.BatchDuration.Observe(time.Since(started).Seconds())
	}()

	result := Result{CallLogIDsToDelete: staleCallLogIDs(batch)}

	for _, cluster := range g.correlator.Clusters(batch) {
		created, err := g.generateOne(ctx, cluster)
		if err != nil {
			var invalid *callog.InvalidCallLogError
			if errors.As(err, &invalid) {
				g.metrics.InvalidCallLogs.Inc()
				g.log.Error("invalid call log detected, skipping cluster",
					"linked_ids", cluster.LinkedIDs, "err", err)
				continue
			}
			g.metrics.BatchFailures.Inc()
			return Result{}, err
		}
		result.NewCallLogs = append(result.NewCallLogs, created)
	}

	g.metrics.CallLogsCreated.Add(float64(len(result.NewCallLogs)))
	g.metrics.CallLogsDeleted.Add(float64(len(result.CallLogIDsToDelete)))
	return result, nil
}

func (g *Generator) generateOne(ctx context.Context, cluster correlate.Cluster) (callog.CallLog, error) {
	in, err := interpret.ForCluster(g.interpretors, cluster.Events)
	if err != nil {
		return callog.CallLog{}, err
	}

	draft := in.Interpret(cluster.Events, callog.NewRawCallLog(g.filter))

	resolve.NewParticipantResolver(g.dir, g.log).Resolve(ctx, draft)
	resolve.NewTenantResolver(g.dir, g.defaultTenant, g.log).Resolve(ctx, draft)

	return draft.ToCallLog()
}

func staleCallLogIDs(batch []cel.Record) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, row := range batch {
		if row.CallLogID == "" {
			continue
		}
		if _, ok := seen[row.CallLogID]; ok {
			continue
		}
		seen[row.CallLogID] = struct{}{}
		out = append(out, row.CallLogID)
	}
	return out
}
