package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"call-logd/internal/callog"
	"call-logd/internal/cel"
	"call-logd/internal/directory"
	"call-logd/internal/interpret"
)

var t0 = time.Unix(1700000000, 0).UTC()

type eventOpt func(*cel.Record)

func onChan(uniqueID, channame string) eventOpt {
	return func(r *cel.Record) { r.UniqueID = uniqueID; r.ChanName = channame }
}

func cid(name, num string) eventOpt {
	return func(r *cel.Record) { r.CIDName = name; r.CIDNum = num }
}

func exten(e, context string) eventOpt {
	return func(r *cel.Record) { r.Exten = e; r.Context = context }
}

func extra(s string) eventOpt {
	return func(r *cel.Record) { r.Extra = s }
}

func peer(p string) eventOpt {
	return func(r *cel.Record) { r.Peer = p }
}

func attachedTo(callLogID string) eventOpt {
	return func(r *cel.Record) { r.CallLogID = callLogID }
}

var nextID int64

func ev(linkedID string, typ cel.EventType, offset time.Duration, opts ...eventOpt) cel.Record {
	nextID++
	r := cel.Record{
		ID:        nextID,
		LinkedID:  linkedID,
		UniqueID:  linkedID,
		EventType: typ,
		EventTime: t0.Add(offset),
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// incomingCallToUser builds the canonical inbound sequence: an incoming
// trunk channel ringing user U, answered and bridged.
func incomingCallToUser(linkedID string, opts ...eventOpt) []cel.Record {
	caller := linkedID
	callee := linkedID + ".2"
	mk := func(typ cel.EventType, offset time.Duration, extraOpts ...eventOpt) cel.Record {
		r := ev(linkedID, typ, offset, extraOpts...)
		for _, opt := range opts {
			opt(&r)
		}
		return r
	}
	return []cel.Record{
		mk(cel.EventChanStart, 0, onChan(caller, "PJSIP/trunk-01"), cid("Tom Riddle", "5551234"), exten("1009", "from-extern")),
		mk(cel.EventXiVOIncall, time.Second, onChan(caller, "PJSIP/trunk-01"),
			extra(`{"extra":"tenant-inbound"}`)),
		mk(cel.EventCallLogDestination, time.Second, onChan(caller, "PJSIP/trunk-01"),
			extra(`{"extra":"type: user,uuid: user-harry,name: Harry Potter"}`)),
		mk(cel.EventAppStart, 2*time.Second, onChan(caller, "PJSIP/trunk-01")),
		mk(cel.EventChanStart, 2*time.Second, onChan(callee, "PJSIP/harry-01"), cid("Harry Potter", "1009")),
		mk(cel.EventAnswer, 4*time.Second, onChan(callee, "PJSIP/harry-01"), cid("Harry Potter", "1009")),
		mk(cel.EventAnswer, 4*time.Second, onChan(caller, "PJSIP/trunk-01"), cid("Tom Riddle", "5551234")),
		mk(cel.EventBridgeEnter, 5*time.Second, onChan(callee, "PJSIP/harry-01"), cid("Harry Potter", "1009"),
			extra(`{"bridge_id":"b1","bridge_technology":"simple_bridge"}`)),
		mk(cel.EventBridgeEnter, 5*time.Second, onChan(caller, "PJSIP/trunk-01"), cid("Tom Riddle", "5551234"),
			extra(`{"bridge_id":"b1","bridge_technology":"simple_bridge"}`), peer("PJSIP/harry-01")),
		mk(cel.EventBridgeExit, 20*time.Second, onChan(callee, "PJSIP/harry-01")),
		mk(cel.EventBridgeExit, 20*time.Second, onChan(caller, "PJSIP/trunk-01")),
		mk(cel.EventHangup, 20*time.Second, onChan(callee, "PJSIP/harry-01")),
		mk(cel.EventChanEnd, 20*time.Second, onChan(callee, "PJSIP/harry-01")),
		mk(cel.EventHangup, 20*time.Second, onChan(caller, "PJSIP/trunk-01")),
		mk(cel.EventChanEnd, 20*time.Second, onChan(caller, "PJSIP/trunk-01")),
		mk(cel.EventLinkedIDEnd, 20*time.Second, onChan(caller, "PJSIP/trunk-01")),
	}
}

func newGenerator(dir directory.Client) *Generator {
	return New(interpret.Default(nil), dir, func() string { return "tenant-default" }, nil, nil, nil)
}

func TestFromCELIncomingCallToUser(t *testing.T) {
	dir := directory.NewMemoryDirectory()
	dir.ByChannel["PJSIP/harry-01"] = directory.Participant{
		UUID: "user-harry", TenantUUID: "tenant-inbound", MainExtension: "1009",
	}

	result, err := newGenerator(dir).FromCEL(context.Background(), incomingCallToUser("100.1"))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.NewCallLogs) != 1 {
		t.Fatalf("call logs = %d, want 1", len(result.NewCallLogs))
	}
	if len(result.CallLogIDsToDelete) != 0 {
		t.Fatalf("delete set = %v, want empty", result.CallLogIDsToDelete)
	}

	call := result.NewCallLogs[0]
	if call.TenantUUID != "tenant-inbound" {
		t.Fatalf("tenant = %q, want tenant-inbound", call.TenantUUID)
	}
	if call.Direction != callog.DirectionInbound {
		t.Fatalf("direction = %s, want inbound", call.Direction)
	}
	if call.DestinationName != "Harry Potter" {
		t.Fatalf("destination name = %q", call.DestinationName)
	}
	if !call.Answered() {
		t.Fatalf("call must be answered")
	}

	want := map[string]string{
		"type":      "user",
		"user_uuid": "user-harry",
		"user_name": "Harry Potter",
	}
	if len(call.DestinationDetails) != len(want) {
		t.Fatalf("destination details = %+v", call.DestinationDetails)
	}
	for _, d := range call.DestinationDetails {
		if want[d.Key] != d.Value {
			t.Fatalf("destination detail %s = %q, want %q", d.Key, d.Value, want[d.Key])
		}
	}

	var harry *callog.Participant
	for i := range call.Participants {
		if call.Participants[i].UserUUID == "user-harry" {
			harry = &call.Participants[i]
		}
	}
	if harry == nil {
		t.Fatalf("missing destination participant: %+v", call.Participants)
	}
	if harry.Role != callog.RoleDestination || !harry.Answered || !harry.Requested {
		t.Fatalf("unexpected destination participant: %+v", harry)
	}
	if len(call.CELIDs) == 0 {
		t.Fatalf("cel provenance must be recorded")
	}
}

func TestFromCELIncompleteClusterDropped(t *testing.T) {
	events := incomingCallToUser("100.1")
	// Drop the terminating event: the call is still in flight.
	events = events[:len(events)-1]

	result, err := newGenerator(directory.NewMemoryDirectory()).FromCEL(context.Background(), events)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.NewCallLogs) != 0 {
		t.Fatalf("call logs = %d, want 0", len(result.NewCallLogs))
	}
}

func TestFromCELCorruptedClusterDoesNotBlockSiblings(t *testing.T) {
	healthy := incomingCallToUser("100.1")
	corrupted := incomingCallToUser("200.1", cid("", ""), extra("not json"))

	result, err := newGenerator(directory.NewMemoryDirectory()).FromCEL(context.Background(), append(corrupted, healthy...))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.NewCallLogs) != 1 {
		t.Fatalf("call logs = %d, want 1", len(result.NewCallLogs))
	}
	if got := result.NewCallLogs[0].SourceName; got != "Tom Riddle" {
		t.Fatalf("surviving record source = %q", got)
	}
}

func TestFromCELStaleCallLogIDs(t *testing.T) {
	events := incomingCallToUser("100.1", attachedTo("stale-1"))
	events = append(events, incomingCallToUser("200.1", attachedTo("stale-2"))...)

	result, err := newGenerator(directory.NewMemoryDirectory()).FromCEL(context.Background(), events)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.CallLogIDsToDelete) != 2 {
		t.Fatalf("delete set = %v, want stale-1 and stale-2", result.CallLogIDsToDelete)
	}
	seen := map[string]bool{}
	for _, id := range result.CallLogIDsToDelete {
		seen[id] = true
	}
	if !seen["stale-1"] || !seen["stale-2"] {
		t.Fatalf("delete set = %v", result.CallLogIDsToDelete)
	}
}

func TestFromCELIdempotentReplay(t *testing.T) {
	dir := directory.NewMemoryDirectory()
	dir.ByChannel["PJSIP/harry-01"] = directory.Participant{UUID: "user-harry", TenantUUID: "tenant-inbound"}

	gen := newGenerator(dir)
	first, err := gen.FromCEL(context.Background(), incomingCallToUser("100.1"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := gen.FromCEL(context.Background(), incomingCallToUser("100.1"))
	if err != nil {
		t.Fatal(err)
	}
	a, b := first.NewCallLogs[0], second.NewCallLogs[0]

	if a.TenantUUID != b.TenantUUID || a.Direction != b.Direction ||
		a.SourceName != b.SourceName || a.SourceExten != b.SourceExten ||
		a.DestinationName != b.DestinationName || a.DestinationExten != b.DestinationExten ||
		!a.Date.Equal(b.Date) || !a.DateEnd.Equal(b.DateEnd) {
		t.Fatalf("replay diverged:\n%+v\n%+v", a, b)
	}
	if len(a.Participants) != len(b.Participants) {
		t.Fatalf("participants diverged: %d vs %d", len(a.Participants), len(b.Participants))
	}
	for i := range a.Participants {
		if a.Participants[i].UserUUID != b.Participants[i].UserUUID ||
			a.Participants[i].Answered != b.Participants[i].Answered {
			t.Fatalf("participant %d diverged", i)
		}
	}
}

func TestFromCELAtMostOneLookupPerChannelAndUser(t *testing.T) {
	dir := directory.NewMemoryDirectory()
	dir.ByChannel["PJSIP/harry-01"] = directory.Participant{UUID: "user-harry", TenantUUID: "tenant-inbound"}

	if _, err := newGenerator(dir).FromCEL(context.Background(), incomingCallToUser("100.1")); err != nil {
		t.Fatal(err)
	}
	for channame, n := range dir.ChannelLookups {
		if n != 1 {
			t.Fatalf("channel %s looked up %d times", channame, n)
		}
	}
	if n := dir.UserLookups["user-harry"]; n != 0 {
		t.Fatalf("user-harry looked up %d times, want 0 (already resolved by channel)", n)
	}
}

func TestFromCELNoInterpretorIsFatal(t *testing.T) {
	gen := New(nil, directory.NewMemoryDirectory(), nil, nil, nil, nil)

	_, err := gen.FromCEL(context.Background(), incomingCallToUser("100.1"))
	if !errors.Is(err, interpret.ErrNoInterpretor) {
		t.Fatalf("err = %v, want ErrNoInterpretor", err)
	}
}
