package callog

import "time"

// Direction of a call relative to the platform.
type Direction string

const (
	DirectionInternal Direction = "internal"
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// ParticipantRole distinguishes the calling side from the called side.
type ParticipantRole string

const (
	RoleSource      ParticipantRole = "source"
	RoleDestination ParticipantRole = "destination"
)

// Recording is one mixmonitor start/stop pair. Entries missing either bound
// are pruned at finalize time.
type Recording struct {
	UUID         string     `json:"uuid"`
	Start        time.Time  `json:"start_time"`
	End          *time.Time `json:"end_time"`
	Path         string     `json:"path"`
	MixmonitorID string     `json:"-"`
}

// Participant is a resolved member of a finalized call record.
type Participant struct {
	UUID       string          `json:"uuid"`
	UserUUID   string          `json:"user_uuid"`
	TenantUUID string          `json:"tenant_uuid,omitempty"`
	LineID     string          `json:"line_id,omitempty"`
	Role       ParticipantRole `json:"role"`
	Tags       []string        `json:"tags,omitempty"`
	Answered   bool            `json:"answered"`
	Requested  bool            `json:"requested"`
}

// RawParticipant is what the interpretors observe about one channel before
// directory resolution.
type RawParticipant struct {
	Role          ParticipantRole
	Answered      bool
	TenantUUID    string
	MainExtension string
}

// ParticipantInfo is a CEL-derived participant mention, identified by user
// UUID rather than channel. The resolver reconciles these with the raw
// per-channel observations.
type ParticipantInfo struct {
	UserUUID  string
	Role      ParticipantRole
	Answered  *bool
	Name      string
	Requested bool
}

// Bridge tracks one bridge's technology and member channels during
// interpretation.
type Bridge struct {
	Technology string
	Channels   map[string]struct{}
}

func (b *Bridge) AddChannel(channame string) {
	if channame == "" {
		return
	}
	b.Channels[channame] = struct{}{}
}

// DestinationDetail is one ordered key/value pair describing the call's
// terminal destination.
type DestinationDetail struct {
	Key   string `json:"destination_details_key"`
	Value string `json:"destination_details_value"`
}

// DestinationDetails is the closed union of recognized terminal destinations.
// Exactly one variant applies to a call, or none.
type DestinationDetails interface {
	DestinationType() string
	Details() []DestinationDetail
}

type UserDestination struct {
	UserUUID string
	UserName string
}

func (UserDestination) DestinationType() string { return "user" }

func (d UserDestination) Details() []DestinationDetail {
	return []DestinationDetail{
		{Key: "type", Value: "user"},
		{Key: "user_uuid", Value: d.UserUUID},
		{Key: "user_name", Value: d.UserName},
	}
}

type ConferenceDestination struct {
	ConferenceID string
}

func (ConferenceDestination) DestinationType() string { return "conference" }

func (d ConferenceDestination) Details() []DestinationDetail {
	return []DestinationDetail{
		{Key: "type", Value: "conference"},
		{Key: "conference_id", Value: d.ConferenceID},
	}
}

type MeetingDestination struct {
	MeetingUUID string
	MeetingName string
}

func (MeetingDestination) DestinationType() string { return "meeting" }

func (d MeetingDestination) Details() []DestinationDetail {
	return []DestinationDetail{
		{Key: "type", Value: "meeting"},
		{Key: "meeting_uuid", Value: d.MeetingUUID},
		{Key: "meeting_name", Value: d.MeetingName},
	}
}

type GroupDestination struct {
	GroupID    string
	GroupLabel string
}

func (GroupDestination) DestinationType() string { return "group" }

func (d GroupDestination) Details() []DestinationDetail {
	return []DestinationDetail{
		{Key: "type", Value: "group"},
		{Key: "group_id", Value: d.GroupID},
		{Key: "group_label", Value: d.GroupLabel},
	}
}

type QueueDestination struct {
	QueueID    string
	QueueLabel string
}

func (QueueDestination) DestinationType() string { return "queue" }

func (d QueueDestination) Details() []DestinationDetail {
	return []DestinationDetail{
		{Key: "type", Value: "queue"},
		{Key: "queue_id", Value: d.QueueID},
		{Key: "queue_label", Value: d.QueueLabel},
	}
}

// CallLog is the finalized, immutable call record.
type CallLog struct {
	ID         string `json:"id"`
	TenantUUID string `json:"tenant_uuid"`

	Date       time.Time  `json:"date"`
	DateEnd    time.Time  `json:"date_end"`
	DateAnswer *time.Time `json:"date_answer,omitempty"`

	SourceName            string `json:"source_name"`
	SourceExten           string `json:"source_exten"`
	SourceInternalExten   string `json:"source_internal_exten,omitempty"`
	SourceInternalContext string `json:"source_internal_context,omitempty"`
	SourceInternalName    string `json:"source_internal_name,omitempty"`
	SourceLineIdentity    string `json:"source_line_identity,omitempty"`

	RequestedName            string `json:"requested_name,omitempty"`
	RequestedExten           string `json:"requested_exten,omitempty"`
	RequestedContext         string `json:"requested_context,omitempty"`
	RequestedInternalExten   string `json:"requested_internal_exten,omitempty"`
	RequestedInternalContext string `json:"requested_internal_context,omitempty"`

	DestinationName            string `json:"destination_name"`
	DestinationExten           string `json:"destination_exten"`
	DestinationInternalExten   string `json:"destination_internal_exten,omitempty"`
	DestinationInternalContext string `json:"destination_internal_context,omitempty"`
	DestinationLineIdentity    string `json:"destination_line_identity,omitempty"`

	Direction Direction `json:"direction"`
	UserField string    `json:"user_field,omitempty"`

	Participants       []Participant       `json:"participants"`
	Recordings         []Recording         `json:"recordings"`
	DestinationDetails []DestinationDetail `json:"destination_details"`

	// CELIDs is the provenance list: the rows this record was built from.
	// Consumers reassign their call_log_id and correlate bus events with it.
	CELIDs []int64 `json:"-"`
}

// Answered reports whether the call was ever answered.
func (c CallLog) Answered() bool { return c.DateAnswer != nil }
