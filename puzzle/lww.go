/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package puzzle

import "fmt"

// Every write to a cell goes through ProposeLocal or ApplyRemote. Both keep
// each cell a last-writer-wins register ordered by Stamp.

// ProposeLocal writes a locally authored guess. The new stamp is at least
// one tick past the cell's current time, so a local edit always wins over
// the cell's prior state even if the wall clock stalls or goes backward.
func (s *Session) ProposeLocal(id int, guess string, marker Marker) (Edit, error) {
	c, err := s.editable(id)
	if err != nil {
		return Edit{}, err
	}

	t := s.now()
	if t <= c.Stamp.Time {
		t = c.Stamp.Time + 1
	}

	e := Edit{
		CellID: id,
		Guess:  guess,
		Marker: marker,
		Stamp:  Stamp{Time: t, Breaker: s.breaker()},
	}
	c.Guess, c.Marker, c.Stamp = e.Guess, e.Marker, e.Stamp

	return e, nil
}

// ApplyRemote writes e if its stamp supersedes the cell's. A stale or
// duplicate edit is not an error: it returns false. Replayed snapshot edits
// and network edits use this same rule.
func (s *Session) ApplyRemote(e Edit) (bool, error) {
	c, err := s.editable(e.CellID)
	if err != nil {
		return false, err
	}

	if !e.Stamp.Supersedes(c.Stamp) {
		return false, nil
	}
	c.Guess, c.Marker, c.Stamp = e.Guess, e.Marker, e.Stamp

	return true, nil
}

// Edits lists the current state of every editable cell that has been
// written, erasures included, ordered by cell id.
func (s *Session) Edits() []Edit {
	var edits []Edit
	for i := range s.cells {
		c := &s.cells[i]
		if !c.Editable || c.Stamp == (Stamp{}) {
			continue
		}
		edits = append(edits, Edit{CellID: c.ID, Guess: c.Guess, Marker: c.Marker, Stamp: c.Stamp})
	}
	return edits
}

func (s *Session) editable(id int) (*Cell, error) {
	if id < 0 || id >= len(s.cells) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCell, id)
	}
	c := &s.cells[id]
	if !c.Editable {
		return nil, fmt.Errorf("%w: %d", ErrNotEditable, id)
	}
	return c, nil
}
