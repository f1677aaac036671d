package interpret

import (
	"log/slog"
	"regexp"
	"strings"

	"call-logd/internal/callog"
	"call-logd/internal/cel"
)

// waitForMobileRegexp matches the local channel half that parks a call until
// the callee's mobile application registers. The captured suffix reappears in
// the PJSIP channel created once registration happens.
var waitForMobileRegexp = regexp.MustCompile(`^Local/(\S+)@wazo_wait_for_registration-[^;]*;2$`)

// calleeTable is the per-event-type transition table for every channel after
// the caller's.
type calleeTable struct {
	log *slog.Logger
}

func (t *calleeTable) interpret(e cel.Record, call *callog.RawCallLog) {
	switch e.EventType {
	case cel.EventChanStart:
		t.chanStart(e, call)
	case cel.EventAnswer:
		t.answer(e, call)
	case cel.EventBridgeStart, cel.EventBridgeEnter:
		t.bridgeEnter(e, call)
	case cel.EventMixmonitorStart:
		startRecording(t.log, e, call)
	case cel.EventMixmonitorStop:
		stopRecording(t.log, e, call)
	default:
		t.log.Debug("callee: ignoring event", "eventtype", e.EventType, "cel_id", e.ID)
	}
}

func (t *calleeTable) chanStart(e cel.Record, call *callog.RawCallLog) {
	call.DestinationLineIdentity = cel.LineIdentity(e.ChanName)
	call.CallerIDs[e.ChanName] = callog.CallerID{Name: e.CIDName, Num: e.CIDNum}

	if call.Direction == callog.DirectionOutbound {
		// Outbound callee identity is re-derived from the trunk later; the
		// dialplan names observed here are placeholders.
		call.DestinationName = ""
		call.RequestedName = ""
	} else if m := waitForMobileRegexp.FindStringSubmatch(e.ChanName); m != nil {
		call.PendingWaitForMobilePeers[m[1]] = struct{}{}
		if !call.AuthoritativeDestinationInfo && e.Exten != "" {
			call.DestinationExten = call.Filter(e.Exten)
		}
	} else if suffix, ok := t.pendingMobilePeer(e.ChanName, call); ok {
		delete(call.PendingWaitForMobilePeers, suffix)
		if !call.AuthoritativeDestinationInfo {
			call.DestinationExten = e.CIDNum
			call.DestinationName = e.CIDName
			call.DestinationInternalExten = e.CIDNum
			call.DestinationInternalContext = e.Context
		}
	}

	call.RawParticipant(e.ChanName).Role = callog.RoleDestination
}

// pendingMobilePeer reports whether the channel is the PJSIP peer a
// wait-for-registration local channel announced.
func (t *calleeTable) pendingMobilePeer(channame string, call *callog.RawCallLog) (string, bool) {
	for suffix := range call.PendingWaitForMobilePeers {
		if strings.HasPrefix(channame, "PJSIP/"+suffix+"-") {
			return suffix, true
		}
	}
	return "", false
}

func (t *calleeTable) answer(e cel.Record, call *callog.RawCallLog) {
	call.RawParticipant(e.ChanName).Answered = true
	if !call.AuthoritativeDestinationInfo && call.DestinationExten == "" {
		call.DestinationExten = e.CIDNum
	}
}

func (t *calleeTable) bridgeEnter(e cel.Record, call *callog.RawCallLog) {
	if _, ok := trackBridge(t.log, e, call); !ok {
		return
	}

	// First qualifying bridge-enter guesses the reached destination from the
	// callee's own caller id. Authoritative destination info wins over the
	// guess, unless a forward moved the call elsewhere since.
	if call.InterpretCalleeBridgeEnter &&
		(!call.AuthoritativeDestinationInfo || call.WasForwarded) {
		if e.CIDNum != "" && e.CIDNum != "s" {
			call.DestinationExten = e.CIDNum
		}
		call.DestinationName = e.CIDName
		call.InterpretCalleeBridgeEnter = false
	}

	for _, peer := range e.PeerChannels() {
		call.RawParticipant(peer).Answered = true
		if call.AuthoritativeDestinationInfo {
			continue
		}
		if cid, ok := call.CallerIDs[peer]; ok && call.DestinationExten == "" {
			call.DestinationExten = cid.Num
			call.DestinationName = cid.Name
		}
	}
}
