// Package interpret turns one cluster's ordered CEL events into a call draft.
//
// Two strategies exist: the local-originate interpretor recognizes the
// shared-line / pickup-via-local-channel topology and walks the cluster
// imperatively; the dispatch interpretor is the catch-all, splitting events
// into caller and callee sub-sequences replayed through per-role state tables.
package interpret

import (
	"errors"
	"log/slog"

	"call-logd/internal/callog"
	"call-logd/internal/cel"
)

// ErrNoInterpretor means no strategy accepted a cluster. With the dispatch
// catch-all registered this cannot happen; seeing it is a programming error,
// not a data problem, so it propagates out of the generator.
var ErrNoInterpretor = errors.New("interpret: no suitable interpretor for cluster")

// Interpretor is one strategy for turning a cluster into a call draft.
type Interpretor interface {
	CanInterpret(events []cel.Record) bool
	Interpret(events []cel.Record, call *callog.RawCallLog) *callog.RawCallLog
}

// Default returns the production interpretor list, tried in order. The
// dispatch interpretor must stay last: it accepts everything.
func Default(log *slog.Logger) []Interpretor {
	return []Interpretor{
		NewLocalOriginate(log),
		NewDispatch(log),
	}
}

// ForCluster picks the first interpretor accepting the cluster.
func ForCluster(interpretors []Interpretor, events []cel.Record) (Interpretor, error) {
	for _, in := range interpretors {
		if in.CanInterpret(events) {
			return in, nil
		}
	}
	return nil, ErrNoInterpretor
}
