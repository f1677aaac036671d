package interpret

import (
	"log/slog"

	"call-logd/internal/callog"
	"call-logd/internal/cel"
)

// callerTable is the per-event-type transition table for the caller channel.
// Several rules encode production heuristics that look asymmetric on purpose;
// changing them changes what existing deployments report.
type callerTable struct {
	log *slog.Logger
}

func (t *callerTable) interpret(e cel.Record, call *callog.RawCallLog) {
	switch e.EventType {
	case cel.EventChanStart:
		t.chanStart(e, call)
	case cel.EventAnswer:
		t.answer(e, call)
	case cel.EventAppStart:
		t.appStart(e, call)
	case cel.EventBridgeStart, cel.EventBridgeEnter:
		t.bridgeEnter(e, call)
	case cel.EventMixmonitorStart:
		startRecording(t.log, e, call)
	case cel.EventMixmonitorStop:
		stopRecording(t.log, e, call)
	case cel.EventChanEnd:
		t.chanEnd(e, call)
	case cel.EventLinkedIDEnd:
		t.linkedIDEnd(e, call)
	case cel.EventXiVOFromS:
		t.fromS(e, call)
	case cel.EventXiVOIncall:
		t.incall(e, call)
	case cel.EventXiVOOutcall:
		t.outcall(e, call)
	case cel.EventXiVOUserFwd:
		t.userForward(e, call)
	case cel.EventUserMissedCall:
		t.missedCall(e, call)
	case cel.EventCallLogDestination:
		t.callLogDestination(e, call)
	case cel.EventMeetingName:
		t.meetingName(e, call)
	case cel.EventConference:
		t.conference(e, call)
	default:
		t.log.Debug("caller: ignoring event", "eventtype", e.EventType, "cel_id", e.ID)
	}
}

func (t *callerTable) chanStart(e cel.Record, call *callog.RawCallLog) {
	call.Date = e.EventTime
	call.SourceName = e.CIDName
	call.SourceExten = call.Filter(e.CIDNum)
	call.RequestedExten = call.Filter(e.Exten)
	call.RequestedContext = e.Context
	call.DestinationExten = call.Filter(e.Exten)
	call.SourceLineIdentity = cel.LineIdentity(e.ChanName)
	call.CallerIDs[e.ChanName] = callog.CallerID{Name: e.CIDName, Num: e.CIDNum}
	call.RawParticipant(e.ChanName).Role = callog.RoleSource
}

// answer back-fills extens the CHAN_START could not provide (dialplan entry
// through "s"), and only then: a real exten must not be overwritten.
func (t *callerTable) answer(e cel.Record, call *callog.RawCallLog) {
	if call.DestinationExten == "" {
		call.DestinationExten = e.CIDNum
	}
	if call.RequestedExten == "" {
		call.RequestedExten = e.CIDNum
	}
}

func (t *callerTable) appStart(e cel.Record, call *callog.RawCallLog) {
	if e.UserField != "" {
		call.UserField = e.UserField
	}
}

func (t *callerTable) bridgeEnter(e cel.Record, call *callog.RawCallLog) {
	extra, ok := trackBridge(t.log, e, call)
	if !ok {
		return
	}
	// Switchboard parking is not an answer.
	if call.DateAnswer == nil && extra.Technology != holdingBridge {
		answered := e.EventTime
		call.DateAnswer = &answered
	}
}

func (t *callerTable) chanEnd(e cel.Record, call *callog.RawCallLog) {
	call.DateEnd = e.EventTime
	call.FilterExtens()
}

func (t *callerTable) linkedIDEnd(e cel.Record, call *callog.RawCallLog) {
	if call.DateEnd.IsZero() {
		call.DateEnd = e.EventTime
	}
}

// fromS re-seeds the requested and destination exten once the dialplan has
// resolved the real target of an "s" entry.
func (t *callerTable) fromS(e cel.Record, call *callog.RawCallLog) {
	call.RequestedExten = e.Exten
	call.DestinationExten = e.Exten
}

func (t *callerTable) incall(e cel.Record, call *callog.RawCallLog) {
	call.Direction = callog.DirectionInbound
	payload, err := cel.ParseUserEventPayload(e.Extra)
	if err != nil {
		t.log.Debug("incall event without tenant payload", "cel_id", e.ID, "err", err)
		return
	}
	if err := call.SetTenantUUID(payload); err != nil {
		t.log.Error("tenant conflict on incall event", "cel_id", e.ID, "err", err)
	}
}

func (t *callerTable) outcall(e cel.Record, call *callog.RawCallLog) {
	call.Direction = callog.DirectionOutbound
}

func (t *callerTable) userForward(e cel.Record, call *callog.RawCallLog) {
	call.WasForwarded = true
	payload, err := cel.ParseUserEventPayload(e.Extra)
	if err != nil {
		t.log.Debug("forward event with malformed extra", "cel_id", e.ID, "err", err)
		return
	}
	fwd, err := cel.ParseUserForward(payload)
	if err != nil {
		t.log.Debug("forward event with malformed payload", "cel_id", e.ID, "err", err)
		return
	}
	// Only the first forward describes what the caller originally requested;
	// re-forwarding must not overwrite it.
	if call.InterpretCallerUserForward {
		call.RequestedInternalExten = fwd.Num
		call.RequestedInternalContext = fwd.Context
		call.RequestedName = fwd.Name
		call.InterpretCallerUserForward = false
	}
}

func (t *callerTable) missedCall(e cel.Record, call *callog.RawCallLog) {
	payload, err := cel.ParseUserEventPayload(e.Extra)
	if err != nil {
		t.log.Debug("missed-call event with malformed extra", "cel_id", e.ID, "err", err)
		return
	}
	missed, err := cel.ParseMissedCall(payload)
	if err != nil {
		t.log.Debug("missed-call event with malformed payload", "cel_id", e.ID, "err", err)
		return
	}

	if err := call.SetTenantUUID(missed.TenantUUID); err != nil {
		t.log.Error("tenant conflict on missed-call event", "cel_id", e.ID, "err", err)
	}
	call.SourceName = missed.SourceName
	call.DestinationName = missed.DestinationName
	call.DestinationExten = missed.DestinationExten

	if missed.SourceUserUUID != "" {
		mention := call.UpsertParticipantInfo(missed.SourceUserUUID, callog.RoleSource)
		mention.Name = missed.SourceName
	}
	if missed.DestinationUserUUID != "" {
		mention := call.UpsertParticipantInfo(missed.DestinationUserUUID, callog.RoleDestination)
		mention.Name = missed.DestinationName
		notAnswered := false
		mention.Answered = &notAnswered
	}
}

func (t *callerTable) callLogDestination(e cel.Record, call *callog.RawCallLog) {
	payload, err := cel.ParseUserEventPayload(e.Extra)
	if err != nil {
		t.log.Debug("destination event with malformed extra", "cel_id", e.ID, "err", err)
		return
	}
	pairs := cel.ParsePairs(payload)

	switch pairs["type"] {
	case "user":
		call.Destination = callog.UserDestination{UserUUID: pairs["uuid"], UserName: pairs["name"]}
		call.DestinationName = pairs["name"]
		mention := call.UpsertParticipantInfo(pairs["uuid"], callog.RoleDestination)
		mention.Name = pairs["name"]
		if call.RequestedType == "" {
			mention.Requested = true
			call.RequestedType = "user"
		}
	case "conference":
		call.Destination = callog.ConferenceDestination{ConferenceID: pairs["id"]}
	case "meeting":
		call.Destination = callog.MeetingDestination{MeetingUUID: pairs["uuid"], MeetingName: pairs["name"]}
		call.DestinationName = pairs["name"]
	case "group":
		call.Destination = callog.GroupDestination{GroupID: pairs["id"], GroupLabel: pairs["label"]}
		call.DestinationName = pairs["label"]
	case "queue":
		label := pairs["label"]
		if label == "" {
			label = pairs["name"]
		}
		call.Destination = callog.QueueDestination{QueueID: pairs["id"], QueueLabel: label}
		call.DestinationName = label
	default:
		t.log.Debug("ignoring destination event with unknown type",
			"cel_id", e.ID, "type", pairs["type"])
		return
	}

	// What this event established is ground truth; later heuristics (callee
	// bridge-enter guessing) must not overwrite it. A forward still may.
	call.AuthoritativeDestinationInfo = true
}

func (t *callerTable) meetingName(e cel.Record, call *callog.RawCallLog) {
	payload, err := cel.ParseUserEventPayload(e.Extra)
	if err != nil {
		t.log.Debug("meeting-name event with malformed extra", "cel_id", e.ID, "err", err)
		return
	}
	call.DestinationName = payload
}

func (t *callerTable) conference(e cel.Record, call *callog.RawCallLog) {
	payload, err := cel.ParseUserEventPayload(e.Extra)
	if err != nil {
		t.log.Debug("conference event with malformed extra", "cel_id", e.ID, "err", err)
		return
	}
	if name, ok := cel.ParsePairs(payload)["NAME"]; ok {
		call.DestinationName = name
	}
}
