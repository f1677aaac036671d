package interpret

import (
	"log/slog"

	"call-logd/internal/callog"
	"call-logd/internal/cel"
)

// Dispatch is the generic catch-all interpretor. It splits a cluster's events
// by channel into the caller sub-sequence (the first channel to emit
// CHAN_START) and the callee sub-sequence (every other channel), then replays
// the caller events through the caller state table and the callee events
// through the callee state table, threading one accumulator through both.
type Dispatch struct {
	log    *slog.Logger
	caller *callerTable
	callee *calleeTable
}

func NewDispatch(log *slog.Logger) *Dispatch {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatch{
		log:    log,
		caller: &callerTable{log: log},
		callee: &calleeTable{log: log},
	}
}

// CanInterpret always accepts: dispatch is the catch-all strategy.
func (d *Dispatch) CanInterpret([]cel.Record) bool { return true }

func (d *Dispatch) Interpret(events []cel.Record, call *callog.RawCallLog) *callog.RawCallLog {
	for _, e := range events {
		call.CELIDs = append(call.CELIDs, e.ID)
	}

	callerEvents, calleeEvents := splitCallerCallee(events)
	for _, e := range callerEvents {
		d.caller.interpret(e, call)
	}
	for _, e := range calleeEvents {
		d.callee.interpret(e, call)
	}
	return call
}

// splitCallerCallee partitions by channel: the first channel to emit
// CHAN_START is the caller, everything else is callee. A cluster without any
// CHAN_START falls back to the first event's channel as caller.
func splitCallerCallee(events []cel.Record) (caller, callee []cel.Record) {
	callerUniqueID := ""
	for _, e := range events {
		if e.EventType == cel.EventChanStart {
			callerUniqueID = e.UniqueID
			break
		}
	}
	if callerUniqueID == "" && len(events) > 0 {
		callerUniqueID = events[0].UniqueID
	}

	for _, e := range events {
		if e.UniqueID == callerUniqueID {
			caller = append(caller, e)
		} else {
			callee = append(callee, e)
		}
	}
	return caller, callee
}
