/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package puzzle

import (
	"errors"
	"fmt"
	"strings"
)

// Blank is the guess that marks a cell as intentionally left empty.
// It renders as a blank cell, which is distinct from "no entry yet".
const Blank = " "

var (
	ErrNotEditable = errors.New("cell is not editable")
	ErrUnknownCell = errors.New("unknown cell")
)

// Marker annotates a guess. The zero value means no marker.
type Marker string

const (
	MarkerNone   Marker = ""
	MarkerPencil Marker = "pencil"
	MarkerPen    Marker = "pen"
)

func (m Marker) Valid() bool {
	switch m {
	case MarkerNone, MarkerPencil, MarkerPen:
		return true
	}
	return false
}

// Stamp orders writes to a single cell. Time is a logical timestamp in
// Unix milliseconds, Breaker a random value drawn with it.
type Stamp struct {
	Time    int64
	Breaker int64
}

// Supersedes reports whether s is strictly newer than o. Equal times go to
// the larger breaker; identical stamps never supersede each other.
func (s Stamp) Supersedes(o Stamp) bool {
	if s.Time != o.Time {
		return s.Time > o.Time
	}
	return s.Breaker > o.Breaker
}

func (s Stamp) String() string {
	return fmt.Sprintf("%d/%d", s.Time, s.Breaker)
}

// Cell is one character of the quote. Grids refer to cells by ID.
type Cell struct {
	ID       int
	Solution string
	Editable bool

	Guess  string
	Marker Marker
	Stamp  Stamp
}

func newCell(id int, solution string) Cell {
	c := Cell{
		ID:       id,
		Solution: solution,
		Editable: isLetter(solution),
	}
	if c.Editable {
		c.Solution = strings.ToUpper(solution)
	} else {
		c.Guess = solution
	}
	return c
}

// Correct reports whether the current guess matches the solution.
func (c *Cell) Correct() bool {
	return c.Guess == c.Solution
}

func isLetter(s string) bool {
	if len(s) != 1 {
		return false
	}
	b := s[0]
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// Edit is one write to one cell, as produced locally or received from a peer.
type Edit struct {
	CellID int
	Guess  string
	Marker Marker
	Stamp  Stamp
}
