package cel

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// The extra column is a JSON envelope. Bridge and mixmonitor events carry their
// own object shapes; custom user events wrap a further delimited payload under
// the "extra" key, e.g.
//
//	{"extra": "type: user,uuid: 5e3128fa-...,name: Harry Potter"}
//
// Parsers here return typed results only. A malformed payload yields an
// *ExtraFormatError carrying the raw text so callers can log it and move on;
// nothing untyped crosses this boundary.

// ExtraFormatError reports an extra payload that does not match the expected
// shape. It is a soft failure: the event is treated as if it had no extra.
type ExtraFormatError struct {
	Raw    string
	Reason string
}

func (e *ExtraFormatError) Error() string {
	return fmt.Sprintf("cel: malformed extra %q: %s", e.Raw, e.Reason)
}

func badExtra(raw, reason string) error {
	return &ExtraFormatError{Raw: raw, Reason: reason}
}

// BridgeExtra is the payload of BRIDGE_START/BRIDGE_ENTER/BRIDGE_EXIT events.
type BridgeExtra struct {
	BridgeID   string `json:"bridge_id"`
	Technology string `json:"bridge_technology"`
}

// ParseBridge decodes the extra payload of a bridge event.
func ParseBridge(raw string) (BridgeExtra, error) {
	var out BridgeExtra
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return BridgeExtra{}, badExtra(raw, "not a JSON object")
	}
	if out.BridgeID == "" {
		return BridgeExtra{}, badExtra(raw, "missing bridge_id")
	}
	return out, nil
}

// MixmonitorExtra is the payload of MIXMONITOR_START/MIXMONITOR_STOP events.
// Filename is only present on start.
type MixmonitorExtra struct {
	Filename     string `json:"filename"`
	MixmonitorID string `json:"mixmonitor_id"`
}

// ParseMixmonitor decodes the extra payload of a mixmonitor event.
func ParseMixmonitor(raw string) (MixmonitorExtra, error) {
	var out MixmonitorExtra
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return MixmonitorExtra{}, badExtra(raw, "not a JSON object")
	}
	if out.MixmonitorID == "" {
		return MixmonitorExtra{}, badExtra(raw, "missing mixmonitor_id")
	}
	return out, nil
}

type userEventEnvelope struct {
	Extra string `json:"extra"`
}

// ParseUserEventPayload unwraps the inner delimited payload of a custom
// user-generated event.
func ParseUserEventPayload(raw string) (string, error) {
	var env userEventEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return "", badExtra(raw, "not a JSON object")
	}
	if env.Extra == "" {
		return "", badExtra(raw, "missing inner extra")
	}
	return env.Extra, nil
}

// ParsePairs splits a "key: value,key: value" payload into a map. Entries
// without a colon are skipped. Keys and values are whitespace-trimmed.
func ParsePairs(payload string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(payload, ",") {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out
}

var userForwardRegexp = regexp.MustCompile(`^NUM:(.*),CONTEXT:(.*),NAME:(.*)$`)

// UserForwardExtra is the payload of an XIVO_USER_FWD event.
type UserForwardExtra struct {
	Num     string
	Context string
	Name    string
}

// ParseUserForward decodes the fixed-shape XIVO_USER_FWD inner payload.
func ParseUserForward(payload string) (UserForwardExtra, error) {
	m := userForwardRegexp.FindStringSubmatch(payload)
	if m == nil {
		return UserForwardExtra{}, badExtra(payload, "expected NUM:...,CONTEXT:...,NAME:...")
	}
	return UserForwardExtra{Num: m[1], Context: m[2], Name: m[3]}, nil
}

// MissedCallExtra is the payload of a WAZO_USER_MISSED_CALL event. Names are
// URL-escaped on the wire and stored unescaped here.
type MissedCallExtra struct {
	TenantUUID          string
	SourceUserUUID      string
	DestinationUserUUID string
	DestinationExten    string
	SourceName          string
	DestinationName     string
}

// ParseMissedCall decodes the WAZO_USER_MISSED_CALL inner payload.
func ParseMissedCall(payload string) (MissedCallExtra, error) {
	pairs := ParsePairs(payload)
	tenant, ok := pairs["wazo_tenant_uuid"]
	if !ok {
		return MissedCallExtra{}, badExtra(payload, "missing wazo_tenant_uuid")
	}
	out := MissedCallExtra{
		TenantUUID:          tenant,
		SourceUserUUID:      pairs["source_user_uuid"],
		DestinationUserUUID: pairs["destination_user_uuid"],
		DestinationExten:    pairs["destination_exten"],
		SourceName:          unquote(pairs["source_name"]),
		DestinationName:     unquote(pairs["destination_name"]),
	}
	return out, nil
}

func unquote(s string) string {
	unescaped, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return unescaped
}

// OriginateAllLinesExtra is the payload of a WAZO_ORIGINATE_ALL_LINES event.
type OriginateAllLinesExtra struct {
	UserUUID   string
	TenantUUID string

	// UnknownKeys lists tolerated keys outside the expected pair; callers
	// warn about them.
	UnknownKeys []string
}

// ParseOriginateAllLines decodes the WAZO_ORIGINATE_ALL_LINES inner payload.
// Key order is not significant. Extra keys are tolerated and reported back;
// a missing user_uuid or tenant_uuid is a parse failure.
func ParseOriginateAllLines(payload string) (OriginateAllLinesExtra, error) {
	var out OriginateAllLinesExtra
	for key, value := range ParsePairs(payload) {
		switch key {
		case "user_uuid":
			out.UserUUID = value
		case "tenant_uuid":
			out.TenantUUID = value
		default:
			out.UnknownKeys = append(out.UnknownKeys, key)
		}
	}
	if out.UserUUID == "" || out.TenantUUID == "" {
		return OriginateAllLinesExtra{}, badExtra(payload, "user_uuid and tenant_uuid are required")
	}
	return out, nil
}
