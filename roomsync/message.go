/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roomsync

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/Seednode/acrostic/puzzle"
)

var ErrMalformed = errors.New("malformed room message")

// Record is the wire form of one edit.
type Record struct {
	Time    int64         `json:"time"`
	Breaker int64         `json:"breaker"`
	Guess   string        `json:"guess"`
	Marker  puzzle.Marker `json:"marker"`
}

func (r Record) Stamp() puzzle.Stamp {
	return puzzle.Stamp{Time: r.Time, Breaker: r.Breaker}
}

// Batch is one room message: cell id to latest edit. The same shape flows
// in both directions, and an empty batch is meaningful as a first message.
type Batch map[string]Record

func NewBatch(edits ...puzzle.Edit) Batch {
	b := make(Batch, len(edits))
	for _, e := range edits {
		b[strconv.Itoa(e.CellID)] = Record{
			Time:    e.Stamp.Time,
			Breaker: e.Stamp.Breaker,
			Guess:   e.Guess,
			Marker:  e.Marker,
		}
	}
	return b
}

func (b Batch) Encode() ([]byte, error) {
	return json.Marshal(b)
}

// DecodeBatch parses a room message. A JSON null decodes as an empty batch.
func DecodeBatch(data []byte) (Batch, error) {
	var b Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if b == nil {
		b = Batch{}
	}
	return b, nil
}

// Edits converts the batch to puzzle edits ordered by cell id. Every key
// must be a non-negative integer.
func (b Batch) Edits() ([]puzzle.Edit, error) {
	edits := make([]puzzle.Edit, 0, len(b))
	for k, r := range b {
		id, err := strconv.Atoi(k)
		if err != nil || id < 0 {
			return nil, fmt.Errorf("%w: bad cell id %q", ErrMalformed, k)
		}
		m := r.Marker
		if !m.Valid() {
			m = puzzle.MarkerNone
		}
		edits = append(edits, puzzle.Edit{
			CellID: id,
			Guess:  r.Guess,
			Marker: m,
			Stamp:  r.Stamp(),
		})
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].CellID < edits[j].CellID })
	return edits, nil
}

// Canonical rewrites every key in its plain decimal form and resets unknown
// markers. Keys naming the same cell fold together under Merge.
func (b Batch) Canonical() (Batch, error) {
	edits, err := b.Edits()
	if err != nil {
		return nil, err
	}

	out := make(Batch, len(edits))
	for _, e := range edits {
		out.Merge(NewBatch(e))
	}
	return out, nil
}

// Merge folds other into b under the same ordering clients use, and returns
// the entries that changed b.
func (b Batch) Merge(other Batch) Batch {
	changed := make(Batch)
	for k, r := range other {
		cur, ok := b[k]
		if ok && !r.Stamp().Supersedes(cur.Stamp()) {
			continue
		}
		b[k] = r
		changed[k] = r
	}
	return changed
}

// Clone returns a shallow copy; records are values.
func (b Batch) Clone() Batch {
	out := make(Batch, len(b))
	for k, r := range b {
		out[k] = r
	}
	return out
}
