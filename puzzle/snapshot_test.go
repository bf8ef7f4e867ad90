/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package puzzle

import (
	"encoding/json"
	"testing"
)

func TestSnapshotRoundTripKeepsStamps(t *testing.T) {
	c := &clock{now: 2000, breaker: 33}
	s := newTestSession(t, c)
	_, _ = s.Apply(Type('a', MarkerPen))
	_ = s.Select(0, 4)
	_, _ = s.Apply(Type('c', MarkerPencil))

	data, err := s.Snapshot().Encode()
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string][]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if len(raw["values"]) != 6 || string(raw["values"][2]) != "null" {
		t.Fatalf("values = %s", data)
	}

	snap, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatal(err)
	}

	fresh := newTestSession(t, nil)
	edits := snap.Edits(fresh)
	if len(edits) != 2 {
		t.Fatalf("edits = %+v", edits)
	}
	want := Edit{CellID: 4, Guess: "C", Marker: MarkerPencil, Stamp: Stamp{Time: 2000, Breaker: 33}}
	if edits[1] != want {
		t.Fatalf("edit = %+v, want %+v", edits[1], want)
	}
}

func TestSnapshotLegacyGuesses(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`{"guesses": ["A", null, "!", " ", "", "D", "Z"]}`))
	if err != nil {
		t.Fatal(err)
	}

	s := newTestSession(t, nil)
	edits := snap.Edits(s)
	if len(edits) != 2 {
		t.Fatalf("edits = %+v", edits)
	}
	if edits[0] != (Edit{CellID: 0, Guess: "A", Stamp: ReplayStamp}) {
		t.Fatalf("edit 0 = %+v", edits[0])
	}
	if edits[1].CellID != 5 || edits[1].Guess != "D" {
		t.Fatalf("edit 1 = %+v", edits[1])
	}
}

func TestSnapshotValuesWinOverGuesses(t *testing.T) {
	data := `{
		"values": [{"guess": "X", "marker": "pencil"}, null, null, null, null, {"guess": "Y", "marker": "bogus"}],
		"guesses": ["A", "B"]
	}`
	snap, err := DecodeSnapshot([]byte(data))
	if err != nil {
		t.Fatal(err)
	}

	edits := snap.Edits(newTestSession(t, nil))
	if len(edits) != 3 {
		t.Fatalf("edits = %+v", edits)
	}
	if edits[0].Guess != "X" || edits[0].Marker != MarkerPencil || edits[0].Stamp != ReplayStamp {
		t.Fatalf("edit 0 = %+v", edits[0])
	}
	if edits[1].CellID != 1 || edits[1].Guess != "B" {
		t.Fatalf("edit 1 = %+v", edits[1])
	}
	if edits[2].Marker != MarkerNone {
		t.Fatalf("unknown marker kept: %+v", edits[2])
	}
}

func TestReplayLosesToLiveEdits(t *testing.T) {
	s := newTestSession(t, &clock{now: 50, breaker: 0})
	_, _ = s.Apply(Type('k', MarkerPen))

	snap, _ := DecodeSnapshot([]byte(`{"guesses": ["A"]}`))
	for _, e := range snap.Edits(s) {
		if ok, _ := s.ApplyRemote(e); ok {
			t.Fatal("replayed entry overwrote a live edit")
		}
	}
	if c, _ := s.Cell(0); c.Guess != "K" {
		t.Fatalf("cell 0 = %q", c.Guess)
	}
}

func TestDecodeSnapshotRejectsGarbage(t *testing.T) {
	if _, err := DecodeSnapshot([]byte(`{"values": 7}`)); err == nil {
		t.Fatal("expected error")
	}
}
