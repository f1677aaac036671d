package interpret

import (
	"log/slog"

	"call-logd/internal/callog"
	"call-logd/internal/cel"
)

// LocalOriginate recognizes the shared-line origination topology: the
// switching core dials through a pair of local scaffolding channels before
// the real source device joins, so the first two starting channels are
// dialplan-only and the third one is the true source. The cluster is walked
// imperatively instead of through the caller/callee split.
type LocalOriginate struct {
	log *slog.Logger
}

func NewLocalOriginate(log *slog.Logger) *LocalOriginate {
	if log == nil {
		log = slog.Default()
	}
	return &LocalOriginate{log: log}
}

func (l *LocalOriginate) CanInterpret(events []cel.Record) bool {
	starts := chanStarts(events)
	if len(starts) < 3 {
		return false
	}
	if !cel.IsLocalChannel(starts[0].ChanName) || !cel.IsLocalChannel(starts[1].ChanName) {
		return false
	}
	// The very first channel must answer immediately: CHAN_START directly
	// followed by ANSWER, nothing in between.
	first := channelEvents(events, starts[0].UniqueID)
	return len(first) >= 2 &&
		first[0].EventType == cel.EventChanStart &&
		first[1].EventType == cel.EventAnswer
}

func (l *LocalOriginate) Interpret(events []cel.Record, call *callog.RawCallLog) *callog.RawCallLog {
	for _, e := range events {
		call.CELIDs = append(call.CELIDs, e.ID)
	}
	if len(events) == 0 {
		return call
	}

	call.Date = events[0].EventTime
	for _, e := range events {
		switch e.EventType {
		case cel.EventLinkedIDEnd:
			call.DateEnd = e.EventTime
		case cel.EventMixmonitorStart:
			startRecording(l.log, e, call)
		case cel.EventMixmonitorStop:
			stopRecording(l.log, e, call)
		}
	}
	if call.DateEnd.IsZero() {
		call.DateEnd = events[len(events)-1].EventTime
	}

	starts := chanStarts(events)
	if len(starts) < 3 {
		return call
	}
	chan1, chan2, chan3 := starts[0], starts[1], starts[2]

	ans1 := firstOfType(events, chan1.UniqueID, cel.EventAnswer)
	ans2 := firstOfType(events, chan2.UniqueID, cel.EventAnswer)
	end3 := firstOfType(events, chan3.UniqueID, cel.EventChanEnd)
	if ans1 == nil || ans2 == nil || end3 == nil {
		// Incomplete origination; leave the draft as-is. It will miss
		// mandatory fields and be filtered at finalize.
		l.log.Debug("local originate cluster incomplete",
			"linkedid", events[0].LinkedID)
		return call
	}

	if ans3 := firstOfType(events, chan3.UniqueID, cel.EventAnswer); ans3 != nil {
		call.SourceName = ans3.CIDName
		call.SourceExten = call.Filter(ans3.CIDNum)
	}
	call.SourceLineIdentity = cel.LineIdentity(chan3.ChanName)
	call.RawParticipant(chan3.ChanName).Role = callog.RoleSource

	call.RequestedExten = call.Filter(ans2.CIDNum)
	call.DestinationExten = call.Filter(ans2.CIDNum)

	l.interpretReachedDestination(events, starts, call)

	for _, e := range events {
		if e.EventType == cel.EventOriginateAllLines {
			l.originateAllLines(e, call)
		}
	}
	return call
}

// interpretReachedDestination looks for the last bridge entered by a real
// device channel outside the origination scaffolding; that channel's answer
// describes who was actually reached.
func (l *LocalOriginate) interpretReachedDestination(events, starts []cel.Record, call *callog.RawCallLog) {
	starting := make(map[string]struct{}, len(starts))
	for _, s := range starts[:3] {
		starting[s.UniqueID] = struct{}{}
	}

	var last *cel.Record
	for i := range events {
		e := events[i]
		if e.EventType != cel.EventBridgeEnter && e.EventType != cel.EventBridgeStart {
			continue
		}
		if cel.IsLocalChannel(e.ChanName) {
			continue
		}
		if _, ok := starting[e.UniqueID]; ok {
			continue
		}
		last = &events[i]
	}
	if last == nil {
		return
	}

	if ans := firstOfType(events, last.UniqueID, cel.EventAnswer); ans != nil {
		call.DestinationName = ans.CIDName
		call.DestinationExten = call.Filter(ans.CIDNum)
	}
	call.DestinationLineIdentity = cel.LineIdentity(last.ChanName)
	answered := last.EventTime
	call.DateAnswer = &answered

	p := call.RawParticipant(last.ChanName)
	p.Role = callog.RoleDestination
	p.Answered = true
}

func (l *LocalOriginate) originateAllLines(e cel.Record, call *callog.RawCallLog) {
	payload, err := cel.ParseUserEventPayload(e.Extra)
	if err != nil {
		l.log.Debug("originate event with malformed extra", "cel_id", e.ID, "err", err)
		return
	}
	extra, err := cel.ParseOriginateAllLines(payload)
	if err != nil {
		// Missing required keys: the event is skipped, the call survives.
		l.log.Warn("skipping unparsable originate event", "cel_id", e.ID, "err", err)
		return
	}
	for _, key := range extra.UnknownKeys {
		l.log.Warn("unexpected key in originate event", "cel_id", e.ID, "key", key)
	}

	if err := call.SetTenantUUID(extra.TenantUUID); err != nil {
		l.log.Error("tenant conflict on originate event", "cel_id", e.ID, "err", err)
	}
	mention := call.UpsertParticipantInfo(extra.UserUUID, callog.RoleSource)
	if call.RequestedType == "" {
		mention.Requested = true
		call.RequestedType = "originate"
	}
}

// chanStarts returns the CHAN_START events in event order, one per channel.
func chanStarts(events []cel.Record) []cel.Record {
	seen := make(map[string]struct{})
	var out []cel.Record
	for _, e := range events {
		if e.EventType != cel.EventChanStart {
			continue
		}
		if _, ok := seen[e.UniqueID]; ok {
			continue
		}
		seen[e.UniqueID] = struct{}{}
		out = append(out, e)
	}
	return out
}

func channelEvents(events []cel.Record, uniqueID string) []cel.Record {
	var out []cel.Record
	for _, e := range events {
		if e.UniqueID == uniqueID {
			out = append(out, e)
		}
	}
	return out
}

func firstOfType(events []cel.Record, uniqueID string, typ cel.EventType) *cel.Record {
	for i := range events {
		if events[i].UniqueID == uniqueID && events[i].EventType == typ {
			return &events[i]
		}
	}
	return nil
}
