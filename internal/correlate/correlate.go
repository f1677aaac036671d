package correlate

import (
	"log/slog"
	"sort"

	"call-logd/internal/cel"
)

// Cluster is the set of CEL rows correlated (directly or transitively via
// shared channels) into one call. Events are ordered by event time, id as
// tie-break.
type Cluster struct {
	LinkedIDs []string
	Events    []cel.Record
}

// Correlator groups a flat batch of CEL rows into per-call clusters.
type Correlator struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Correlator {
	if log == nil {
		log = slog.Default()
	}
	return &Correlator{log: log}
}

type group struct {
	uniqueIDs map[string]struct{}
	linkedIDs map[string]struct{}
	order     []string
	rows      []cel.Record
}

func (g *group) intersects(uniqueIDs map[string]struct{}) bool {
	for id := range uniqueIDs {
		if _, ok := g.uniqueIDs[id]; ok {
			return true
		}
	}
	return false
}

// Clusters correlates the batch: rows are grouped per linkedid, then linkedid
// sequences sharing a channel uniqueid are merged.
//
// The merge deliberately matches the first compatible existing group only,
// processing linkedid sequences in ascending linkedid order. Two groups that
// become connected only after both already exist are NOT re-merged; the
// upstream behavior for such pathological orderings is unspecified and is
// reproduced as-is rather than closed transitively.
func (c *Correlator) Clusters(batch []cel.Record) []Cluster {
	rows := make([]cel.Record, len(batch))
	copy(rows, batch)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].LinkedID < rows[j].LinkedID })

	var groups []*group
	for start := 0; start < len(rows); {
		end := start
		for end < len(rows) && rows[end].LinkedID == rows[start].LinkedID {
			end++
		}
		c.place(&groups, rows[start].LinkedID, rows[start:end])
		start = end
	}

	out := make([]Cluster, 0, len(groups))
	for _, g := range groups {
		sort.SliceStable(g.rows, func(i, j int) bool {
			if g.rows[i].EventTime.Equal(g.rows[j].EventTime) {
				return g.rows[i].ID < g.rows[j].ID
			}
			return g.rows[i].EventTime.Before(g.rows[j].EventTime)
		})
		if !c.terminated(g) {
			continue
		}
		out = append(out, Cluster{LinkedIDs: g.order, Events: g.rows})
	}
	return out
}

// place merges one per-linkedid sequence into the first group sharing a
// channel, or opens a new group.
func (c *Correlator) place(groups *[]*group, linkedID string, seq []cel.Record) {
	uniqueIDs := make(map[string]struct{})
	for _, r := range seq {
		uniqueIDs[r.UniqueID] = struct{}{}
	}

	for _, g := range *groups {
		if !g.intersects(uniqueIDs) {
			continue
		}
		for id := range uniqueIDs {
			g.uniqueIDs[id] = struct{}{}
		}
		if _, ok := g.linkedIDs[linkedID]; !ok {
			g.linkedIDs[linkedID] = struct{}{}
			g.order = append(g.order, linkedID)
		}
		g.rows = append(g.rows, seq...)
		return
	}

	g := &group{
		uniqueIDs: uniqueIDs,
		linkedIDs: map[string]struct{}{linkedID: {}},
		order:     []string{linkedID},
		rows:      append([]cel.Record(nil), seq...),
	}
	*groups = append(*groups, g)
}

// terminated checks that every linkedid of the group has its LINKEDID_END row
// inside the group. A dangling call (still in progress, or truncated by the
// batch window) is silently dropped; the rows stay unprocessed and return in
// a later batch.
func (c *Correlator) terminated(g *group) bool {
	ended := make(map[string]struct{})
	for _, r := range g.rows {
		if r.EventType == cel.EventLinkedIDEnd {
			ended[r.LinkedID] = struct{}{}
		}
	}
	for id := range g.linkedIDs {
		if _, ok := ended[id]; !ok {
			c.log.Debug("dropping incomplete call cluster", "linkedid", id)
			return false
		}
	}
	return true
}
