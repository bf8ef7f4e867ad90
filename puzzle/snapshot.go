/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package puzzle

import (
	"encoding/json"
	"fmt"
)

// ReplayStamp orders snapshot entries saved without a stamp. It loses to any
// edit made in a live session.
var ReplayStamp = Stamp{Time: 1, Breaker: 1}

// SavedValue is the persisted state of one editable cell.
type SavedValue struct {
	Guess   string `json:"guess"`
	Marker  Marker `json:"marker"`
	Time    int64  `json:"time,omitempty"`
	Breaker int64  `json:"breaker,omitempty"`
}

// Snapshot is the locally persisted record for one puzzle. Values has one
// entry per quote cell, nil for fixed cells. Guesses is the older format
// without markers and is only ever read.
type Snapshot struct {
	Values  []*SavedValue `json:"values,omitempty"`
	Guesses []*string     `json:"guesses,omitempty"`
}

// Snapshot captures every editable cell of the session.
func (s *Session) Snapshot() *Snapshot {
	snap := &Snapshot{Values: make([]*SavedValue, len(s.cells))}
	for i := range s.cells {
		c := &s.cells[i]
		if !c.Editable {
			continue
		}
		snap.Values[i] = &SavedValue{
			Guess:   c.Guess,
			Marker:  c.Marker,
			Time:    c.Stamp.Time,
			Breaker: c.Stamp.Breaker,
		}
	}
	return snap
}

func (snap *Snapshot) Encode() ([]byte, error) {
	return json.Marshal(snap)
}

// DecodeSnapshot parses a persisted record in either format.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Edits lists one edit per editable cell with a stored guess. Entries for
// fixed or unknown cells are skipped, and the values format wins over the
// guesses format for the same cell.
func (snap *Snapshot) Edits(s *Session) []Edit {
	byID := make(map[int]Edit)

	for i, g := range snap.Guesses {
		if g == nil || *g == "" || !s.isEditable(i) {
			continue
		}
		byID[i] = Edit{CellID: i, Guess: *g, Stamp: ReplayStamp}
	}

	for i, v := range snap.Values {
		if v == nil || v.Guess == "" || !s.isEditable(i) {
			continue
		}
		m := v.Marker
		if !m.Valid() {
			m = MarkerNone
		}
		st := Stamp{Time: v.Time, Breaker: v.Breaker}
		if st.Time == 0 {
			st = ReplayStamp
		}
		byID[i] = Edit{CellID: i, Guess: v.Guess, Marker: m, Stamp: st}
	}

	edits := make([]Edit, 0, len(byID))
	for i := range s.cells {
		if e, ok := byID[i]; ok {
			edits = append(edits, e)
		}
	}
	return edits
}

func (s *Session) isEditable(id int) bool {
	return id >= 0 && id < len(s.cells) && s.cells[id].Editable
}
