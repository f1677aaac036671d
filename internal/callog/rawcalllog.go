package callog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InvalidCallLogError rejects a draft that cannot become a call record.
// It is scoped to one cluster: the generator logs it and keeps processing the
// rest of the batch.
type InvalidCallLogError struct {
	Reason string
}

func (e *InvalidCallLogError) Error() string {
	return fmt.Sprintf("callog: invalid call log: %s", e.Reason)
}

// TenantConflictError reports a second, different tenant observed after one
// was already set. The first value wins; the conflict is logged, not fatal.
type TenantConflictError struct {
	Existing string
	Rejected string
}

func (e *TenantConflictError) Error() string {
	return fmt.Sprintf("callog: tenant %s already set, refusing %s", e.Existing, e.Rejected)
}

// CallerID is the display name/number pair observed on a channel.
type CallerID struct {
	Name string
	Num  string
}

// RawCallLog is the mutable draft one cluster's events are replayed into.
// It belongs to exactly one cluster at a time and is consumed once by
// ToCallLog.
type RawCallLog struct {
	Date       time.Time
	DateEnd    time.Time
	DateAnswer *time.Time

	SourceName            string
	SourceExten           string
	SourceInternalExten   string
	SourceInternalContext string
	SourceInternalName    string
	SourceLineIdentity    string

	RequestedName            string
	RequestedExten           string
	RequestedContext         string
	RequestedInternalExten   string
	RequestedInternalContext string

	DestinationName            string
	DestinationExten           string
	DestinationInternalExten   string
	DestinationInternalContext string
	DestinationLineIdentity    string

	Direction Direction
	UserField string

	Bridges    map[string]*Bridge
	Recordings []Recording

	RawParticipants     map[string]*RawParticipant
	rawParticipantOrder []string
	ParticipantsInfo    []ParticipantInfo

	// Participants is set by the participant resolver just before finalize.
	Participants []Participant

	Destination DestinationDetails

	// One-shot interpretation gates. Independent booleans, not states.
	AuthoritativeDestinationInfo bool
	InterpretCalleeBridgeEnter   bool
	InterpretCallerUserForward   bool
	WasForwarded                 bool

	// RequestedType records which kind of destination first claimed the
	// "requested" participant slot.
	RequestedType string

	// PendingWaitForMobilePeers holds channel suffixes waiting for a mobile
	// registration peer to start.
	PendingWaitForMobilePeers map[string]struct{}

	// CallerIDs remembers the caller id observed per channel so later events
	// can back-fill identity from a peer.
	CallerIDs map[string]CallerID

	CELIDs []int64

	tenantUUID string
	filter     *ExtenFilter
}

// NewRawCallLog returns an empty draft. A nil filter disables extension
// filtering.
func NewRawCallLog(filter *ExtenFilter) *RawCallLog {
	return &RawCallLog{
		Direction:                  DirectionInternal,
		Bridges:                    make(map[string]*Bridge),
		RawParticipants:            make(map[string]*RawParticipant),
		PendingWaitForMobilePeers:  make(map[string]struct{}),
		CallerIDs:                  make(map[string]CallerID),
		InterpretCalleeBridgeEnter: true,
		InterpretCallerUserForward: true,
		filter:                     filter,
	}
}

// Filter applies the configured extension filter.
func (c *RawCallLog) Filter(exten string) string { return c.filter.Filter(exten) }

// TenantUUID returns the owning tenant, or "" when undetermined.
func (c *RawCallLog) TenantUUID() string { return c.tenantUUID }

// SetTenantUUID records the owning tenant with write-once semantics: the
// first value wins, a second distinct value yields a *TenantConflictError.
func (c *RawCallLog) SetTenantUUID(tenantUUID string) error {
	if tenantUUID == "" || tenantUUID == c.tenantUUID {
		return nil
	}
	if c.tenantUUID != "" {
		return &TenantConflictError{Existing: c.tenantUUID, Rejected: tenantUUID}
	}
	c.tenantUUID = tenantUUID
	return nil
}

// RawParticipant returns the per-channel observation record, creating it on
// first use. Creation order is preserved for the final participant list.
func (c *RawCallLog) RawParticipant(channame string) *RawParticipant {
	if p, ok := c.RawParticipants[channame]; ok {
		return p
	}
	p := &RawParticipant{}
	c.RawParticipants[channame] = p
	c.rawParticipantOrder = append(c.rawParticipantOrder, channame)
	return p
}

// RawParticipantChannels returns channel names in first-observation order.
func (c *RawCallLog) RawParticipantChannels() []string {
	out := make([]string, len(c.rawParticipantOrder))
	copy(out, c.rawParticipantOrder)
	return out
}

// EnsureBridge returns the bridge registered under id, creating it with the
// given technology on first sight.
func (c *RawCallLog) EnsureBridge(id, technology string) *Bridge {
	if b, ok := c.Bridges[id]; ok {
		return b
	}
	b := &Bridge{Technology: technology, Channels: make(map[string]struct{})}
	c.Bridges[id] = b
	return b
}

// StartRecording opens a recording for a mixmonitor instance.
func (c *RawCallLog) StartRecording(r Recording) {
	c.Recordings = append(c.Recordings, r)
}

// StopRecording closes the recording opened under the mixmonitor id. Unknown
// ids are ignored: the start may have been lost or belong to another call.
func (c *RawCallLog) StopRecording(mixmonitorID string, end time.Time) {
	for i := range c.Recordings {
		if c.Recordings[i].MixmonitorID == mixmonitorID && c.Recordings[i].End == nil {
			c.Recordings[i].End = &end
			return
		}
	}
}

// UpsertParticipantInfo returns the CEL-derived mention matching the
// (user uuid, role) pair, appending a new one when absent.
func (c *RawCallLog) UpsertParticipantInfo(userUUID string, role ParticipantRole) *ParticipantInfo {
	for i := range c.ParticipantsInfo {
		if c.ParticipantsInfo[i].UserUUID == userUUID && c.ParticipantsInfo[i].Role == role {
			return &c.ParticipantsInfo[i]
		}
	}
	c.ParticipantsInfo = append(c.ParticipantsInfo, ParticipantInfo{UserUUID: userUUID, Role: role})
	return &c.ParticipantsInfo[len(c.ParticipantsInfo)-1]
}

// FilterExtens applies the extension filter to every exposed extension field.
// Called at the end of the caller path and again by the finalizer.
func (c *RawCallLog) FilterExtens() {
	c.SourceExten = c.Filter(c.SourceExten)
	c.SourceInternalExten = c.Filter(c.SourceInternalExten)
	c.RequestedExten = c.Filter(c.RequestedExten)
	c.RequestedInternalExten = c.Filter(c.RequestedInternalExten)
	c.DestinationExten = c.Filter(c.DestinationExten)
	c.DestinationInternalExten = c.Filter(c.DestinationInternalExten)
}

// ToCallLog validates and freezes the draft into an immutable call record.
// A draft with no date or no source identity yields *InvalidCallLogError.
func (c *RawCallLog) ToCallLog() (CallLog, error) {
	if c.Date.IsZero() {
		return CallLog{}, &InvalidCallLogError{Reason: "date is not set"}
	}
	if c.SourceName == "" && c.SourceExten == "" {
		return CallLog{}, &InvalidCallLogError{Reason: "source name and source exten are both empty"}
	}

	c.FilterExtens()

	recordings := make([]Recording, 0, len(c.Recordings))
	for _, r := range c.Recordings {
		if r.Start.IsZero() || r.End == nil {
			continue
		}
		recordings = append(recordings, r)
	}

	details := []DestinationDetail{}
	if c.Destination != nil {
		details = c.Destination.Details()
	}

	out := CallLog{
		ID:         uuid.NewString(),
		TenantUUID: c.tenantUUID,

		Date:       c.Date,
		DateEnd:    c.DateEnd,
		DateAnswer: c.DateAnswer,

		SourceName:            c.SourceName,
		SourceExten:           c.SourceExten,
		SourceInternalExten:   c.SourceInternalExten,
		SourceInternalContext: c.SourceInternalContext,
		SourceInternalName:    c.SourceInternalName,
		SourceLineIdentity:    c.SourceLineIdentity,

		RequestedName:            c.RequestedName,
		RequestedExten:           c.RequestedExten,
		RequestedContext:         c.RequestedContext,
		RequestedInternalExten:   c.RequestedInternalExten,
		RequestedInternalContext: c.RequestedInternalContext,

		DestinationName:            c.DestinationName,
		DestinationExten:           c.DestinationExten,
		DestinationInternalExten:   c.DestinationInternalExten,
		DestinationInternalContext: c.DestinationInternalContext,
		DestinationLineIdentity:    c.DestinationLineIdentity,

		Direction: c.Direction,
		UserField: c.UserField,

		Participants:       append([]Participant(nil), c.Participants...),
		Recordings:         recordings,
		DestinationDetails: details,
		CELIDs:             append([]int64(nil), c.CELIDs...),
	}
	return out, nil
}
