package cel

import "time"

// EventType is one of the channel-event-log tags emitted by the switching core.
// The set is closed from this engine's point of view: anything not listed below
// is carried through untouched and ignored by the interpretors.
type EventType string

const (
	EventChanStart       EventType = "CHAN_START"
	EventChanEnd         EventType = "CHAN_END"
	EventAppStart        EventType = "APP_START"
	EventAnswer          EventType = "ANSWER"
	EventBridgeStart     EventType = "BRIDGE_START"
	EventBridgeEnter     EventType = "BRIDGE_ENTER"
	EventBridgeEnd       EventType = "BRIDGE_END"
	EventBridgeExit      EventType = "BRIDGE_EXIT"
	EventHangup          EventType = "HANGUP"
	EventMixmonitorStart EventType = "MIXMONITOR_START"
	EventMixmonitorStop  EventType = "MIXMONITOR_STOP"
	EventLinkedIDEnd     EventType = "LINKEDID_END"

	// Custom user-generated events injected by the dialplan.
	EventXiVOFromS           EventType = "XIVO_FROM_S"
	EventXiVOIncall          EventType = "XIVO_INCALL"
	EventXiVOOutcall         EventType = "XIVO_OUTCALL"
	EventXiVOUserFwd         EventType = "XIVO_USER_FWD"
	EventMeetingName         EventType = "WAZO_MEETING_NAME"
	EventConference          EventType = "WAZO_CONFERENCE"
	EventUserMissedCall      EventType = "WAZO_USER_MISSED_CALL"
	EventCallLogDestination  EventType = "WAZO_CALL_LOG_DESTINATION"
	EventOriginateAllLines   EventType = "WAZO_ORIGINATE_ALL_LINES"
)

// Record is one channel-event-log row, read-only input to the engine.
//
// UniqueID identifies one channel instance; LinkedID is shared by every channel
// belonging to the same logical call (it is the UniqueID of the call's first
// channel). ID only breaks ordering ties between rows with equal event times.
type Record struct {
	ID        int64     `db:"id"`
	UniqueID  string    `db:"uniqueid"`
	LinkedID  string    `db:"linkedid"`
	EventType EventType `db:"eventtype"`
	EventTime time.Time `db:"eventtime"`
	ChanName  string    `db:"channame"`

	// Peer holds comma-separated peer channel names. Multi-valued during
	// ad-hoc conferences.
	Peer string `db:"peer"`

	CIDName   string `db:"cid_name"`
	CIDNum    string `db:"cid_num"`
	Exten     string `db:"exten"`
	Context   string `db:"context"`
	UserField string `db:"userfield"`

	// Extra is an opaque JSON envelope; see extra.go for the recognized shapes.
	Extra string `db:"extra"`

	// CallLogID is non-empty once this row has been consumed by a finalized
	// call record. Rows arriving with it set mean the attached record is stale
	// and must be replaced.
	CallLogID string `db:"call_log_id"`
}

// PeerChannels splits the comma-separated Peer field, dropping empty entries.
func (r Record) PeerChannels() []string {
	if r.Peer == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(r.Peer); i++ {
		if i == len(r.Peer) || r.Peer[i] == ',' {
			if p := r.Peer[start:i]; p != "" {
				out = append(out, p)
			}
			start = i + 1
		}
	}
	return out
}
