package correlate

import (
	"testing"
	"time"

	"call-logd/internal/cel"
)

var t0 = time.Unix(1700000000, 0).UTC()

func row(id int64, uniqueID, linkedID string, typ cel.EventType, offset time.Duration) cel.Record {
	return cel.Record{
		ID:        id,
		UniqueID:  uniqueID,
		LinkedID:  linkedID,
		EventType: typ,
		EventTime: t0.Add(offset),
	}
}

func TestClusters_GroupsByLinkedID(t *testing.T) {
	batch := []cel.Record{
		row(1, "100.1", "100.1", cel.EventChanStart, 0),
		row(2, "200.1", "200.1", cel.EventChanStart, time.Second),
		row(3, "100.1", "100.1", cel.EventLinkedIDEnd, 2*time.Second),
		row(4, "200.1", "200.1", cel.EventLinkedIDEnd, 3*time.Second),
	}

	got := New(nil).Clusters(batch)
	if len(got) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(got))
	}
}

func TestClusters_MergesOnSharedChannel(t *testing.T) {
	// linkedid 100.1 and 200.1 share channel 150.1: one call.
	batch := []cel.Record{
		row(1, "100.1", "100.1", cel.EventChanStart, 0),
		row(2, "150.1", "100.1", cel.EventChanStart, time.Second),
		row(3, "150.1", "200.1", cel.EventChanStart, 2*time.Second),
		row(4, "250.1", "200.1", cel.EventChanStart, 3*time.Second),
		row(5, "100.1", "100.1", cel.EventLinkedIDEnd, 4*time.Second),
		row(6, "250.1", "200.1", cel.EventLinkedIDEnd, 5*time.Second),
	}

	got := New(nil).Clusters(batch)
	if len(got) != 1 {
		t.Fatalf("expected merged cluster, got %d clusters", len(got))
	}
	if len(got[0].LinkedIDs) != 2 {
		t.Fatalf("expected 2 linkedids, got %v", got[0].LinkedIDs)
	}
	if len(got[0].Events) != 6 {
		t.Fatalf("expected 6 events, got %d", len(got[0].Events))
	}
}

func TestClusters_EventsOrderedByTimeThenID(t *testing.T) {
	batch := []cel.Record{
		row(3, "100.1", "100.1", cel.EventLinkedIDEnd, 2*time.Second),
		row(2, "100.1", "100.1", cel.EventAnswer, time.Second),
		row(1, "100.1", "100.1", cel.EventChanStart, 0),
		// same instant as the answer, lower id first
		row(4, "100.2", "100.1", cel.EventChanStart, time.Second),
	}

	got := New(nil).Clusters(batch)
	if len(got) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(got))
	}
	ids := make([]int64, 0, 4)
	for _, e := range got[0].Events {
		ids = append(ids, e.ID)
	}
	want := []int64{1, 2, 4, 3}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, ids)
		}
	}
}

func TestClusters_DropsUnterminated(t *testing.T) {
	batch := []cel.Record{
		row(1, "100.1", "100.1", cel.EventChanStart, 0),
		row(2, "100.1", "100.1", cel.EventHangup, time.Second),
	}

	got := New(nil).Clusters(batch)
	if len(got) != 0 {
		t.Fatalf("expected dangling cluster to be dropped, got %d clusters", len(got))
	}
}

func TestClusters_DropsPartiallyTerminatedMerge(t *testing.T) {
	// Merged cluster where only one of the two linkedids ended: still dangling.
	batch := []cel.Record{
		row(1, "100.1", "100.1", cel.EventChanStart, 0),
		row(2, "150.1", "100.1", cel.EventChanStart, time.Second),
		row(3, "150.1", "200.1", cel.EventChanStart, 2*time.Second),
		row(4, "100.1", "100.1", cel.EventLinkedIDEnd, 3*time.Second),
	}

	got := New(nil).Clusters(batch)
	if len(got) != 0 {
		t.Fatalf("expected partially terminated cluster to be dropped, got %d", len(got))
	}
}

func TestClusters_FirstMatchOnlyMergeOrder(t *testing.T) {
	// Three linkedid sequences processed in ascending order: "300" bridges
	// "100" and "200", but by the time it is placed both already exist.
	// It merges into the first compatible group ("100") only; "200" stays
	// separate. This mirrors the documented upstream behavior.
	batch := []cel.Record{
		row(1, "a", "100", cel.EventChanStart, 0),
		row(2, "b", "200", cel.EventChanStart, time.Second),
		row(3, "a", "300", cel.EventChanStart, 2*time.Second),
		row(4, "b", "300", cel.EventChanStart, 3*time.Second),
		row(5, "a", "100", cel.EventLinkedIDEnd, 4*time.Second),
		row(6, "b", "200", cel.EventLinkedIDEnd, 5*time.Second),
		row(7, "a", "300", cel.EventLinkedIDEnd, 6*time.Second),
	}

	got := New(nil).Clusters(batch)
	if len(got) != 2 {
		t.Fatalf("expected 2 clusters (first-match-only merge), got %d", len(got))
	}
}
