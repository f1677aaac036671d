package interpret

import (
	"log/slog"
	"regexp"

	"github.com/google/uuid"

	"call-logd/internal/callog"
	"call-logd/internal/cel"
)

// holdingBridge is the switchboard parking technology; entering one must not
// count as answering the call.
const holdingBridge = "holding_bridge"

// recordingUUIDRegexp extracts the recording identifier embedded in the
// mixmonitor file path when the platform generated one.
var recordingUUIDRegexp = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// trackBridge registers the event's channel and peers into the bridge named
// by the extra payload. Returns false on a malformed payload, which is soft:
// the event is logged and has no effect.
func trackBridge(log *slog.Logger, e cel.Record, call *callog.RawCallLog) (cel.BridgeExtra, bool) {
	extra, err := cel.ParseBridge(e.Extra)
	if err != nil {
		log.Debug("ignoring bridge event with malformed extra", "cel_id", e.ID, "err", err)
		return cel.BridgeExtra{}, false
	}
	b := call.EnsureBridge(extra.BridgeID, extra.Technology)
	b.AddChannel(e.ChanName)
	for _, peer := range e.PeerChannels() {
		b.AddChannel(peer)
	}
	return extra, true
}

func startRecording(log *slog.Logger, e cel.Record, call *callog.RawCallLog) {
	extra, err := cel.ParseMixmonitor(e.Extra)
	if err != nil {
		log.Debug("ignoring mixmonitor start with malformed extra", "cel_id", e.ID, "err", err)
		return
	}
	recordingUUID := recordingUUIDRegexp.FindString(extra.Filename)
	if recordingUUID == "" {
		recordingUUID = uuid.NewString()
	}
	call.StartRecording(callog.Recording{
		UUID:         recordingUUID,
		Start:        e.EventTime,
		Path:         extra.Filename,
		MixmonitorID: extra.MixmonitorID,
	})
}

func stopRecording(log *slog.Logger, e cel.Record, call *callog.RawCallLog) {
	extra, err := cel.ParseMixmonitor(e.Extra)
	if err != nil {
		log.Debug("ignoring mixmonitor stop with malformed extra", "cel_id", e.ID, "err", err)
		return
	}
	call.StopRecording(extra.MixmonitorID, e.EventTime)
}
