/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package puzzle

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// DefaultColumns is the width of the quote grid when none is configured.
const DefaultColumns = 40

// MaxBreaker is the largest tie-breaker drawn for a local edit.
const MaxBreaker = 1_000_000_000

type Options struct {
	// Columns is the quote grid row width.
	Columns int
	// Now returns the current time in Unix milliseconds.
	Now func() int64
	// Breaker returns a random tie-breaker in [0, MaxBreaker].
	Breaker func() int64
}

func (o *Options) defaults() {
	if o.Columns <= 0 {
		o.Columns = DefaultColumns
	}
	if o.Now == nil {
		o.Now = func() int64 { return time.Now().UnixMilli() }
	}
	if o.Breaker == nil {
		o.Breaker = func() int64 { return rand.Int64N(MaxBreaker + 1) }
	}
}

// Session is the state of one loaded puzzle. It is not safe for concurrent
// use; a single goroutine owns it (see roomsync.Adapter).
type Session struct {
	cells  []Cell
	grids  []*Grid
	cursor Cursor

	now     func() int64
	breaker func() int64
}

// Cursor is the selected grid, by position in the cyclic grid order, and the
// selected cell ID within it.
type Cursor struct {
	Grid int
	Cell int
}

// New builds a session from a validated document.
func New(doc *Document, opts Options) (*Session, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	opts.defaults()

	s := &Session{
		cells:   make([]Cell, len(doc.QuoteLetters)),
		now:     opts.Now,
		breaker: opts.Breaker,
	}

	quoteIDs := make([]int, len(doc.QuoteLetters))
	for i, ch := range doc.QuoteLetters {
		s.cells[i] = newCell(i, ch)
		quoteIDs[i] = i
	}

	quote, err := newGrid(KindQuote, -1, "", quoteIDs, opts.Columns)
	if err != nil {
		return nil, err
	}

	sourceIDs := make([]int, 0, len(doc.Clues))
	clues := make([]*Grid, 0, len(doc.Clues))
	for n, c := range doc.Clues {
		sourceIDs = append(sourceIDs, c.Indices[0])

		ids := make([]int, len(c.Indices))
		copy(ids, c.Indices)

		g, err := newGrid(KindClue, n, c.Clue, ids, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		clues = append(clues, g)
	}

	source, err := newGrid(KindSource, -1, "", sourceIDs, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	s.grids = append([]*Grid{quote, source}, clues...)
	s.cursor = Cursor{Grid: 0, Cell: quote.At(0)}

	return s, nil
}

func (s *Session) Quote() *Grid  { return s.grids[0] }
func (s *Session) Source() *Grid { return s.grids[1] }

// Clues returns the clue grids in clue order.
func (s *Session) Clues() []*Grid { return s.grids[2:] }

// Grids returns every grid in cyclic navigation order.
func (s *Session) Grids() []*Grid { return s.grids }

func (s *Session) Len() int { return len(s.cells) }

// Cell returns a copy of the cell with the given ID.
func (s *Session) Cell(id int) (Cell, bool) {
	if id < 0 || id >= len(s.cells) {
		return Cell{}, false
	}
	return s.cells[id], true
}

func (s *Session) Cursor() Cursor { return s.cursor }

func (s *Session) SelectedGrid() *Grid { return s.grids[s.cursor.Grid] }

// Solved reports whether every cell's guess equals its solution.
func (s *Session) Solved() bool {
	for i := range s.cells {
		if !s.cells[i].Correct() {
			return false
		}
	}
	return true
}

// Move steps the cursor within the selected grid.
func (s *Session) Move(delta int) {
	s.cursor.Cell = s.SelectedGrid().Step(s.cursor.Cell, delta)
}

// MoveVertical moves one row down (dir > 0) or up (dir < 0). Only the quote
// grid is two-dimensional; on other grids the cursor stays put.
func (s *Session) MoveVertical(dir int) {
	if s.cursor.Grid != 0 || dir == 0 {
		return
	}
	g := s.SelectedGrid()
	if dir > 0 {
		s.Move(g.Columns)
	} else {
		s.Move(-g.Columns)
	}
}

// SwitchGrid selects the next (dir > 0) or previous grid, wrapping at both
// ends, and places the cursor on its first cell.
func (s *Session) SwitchGrid(dir int) {
	n := len(s.grids)
	step := 1
	if dir < 0 {
		step = -1
	}
	s.cursor.Grid = ((s.cursor.Grid+step)%n + n) % n
	s.cursor.Cell = s.grids[s.cursor.Grid].At(0)
}

// Select points the cursor at the index-th cell of the grid-th grid.
func (s *Session) Select(grid, index int) error {
	if grid < 0 || grid >= len(s.grids) {
		return fmt.Errorf("select: no grid %d", grid)
	}
	g := s.grids[grid]
	if index < 0 || index >= g.Len() {
		return fmt.Errorf("select: no cell %d in %s grid", index, g.Name())
	}
	s.cursor = Cursor{Grid: grid, Cell: g.At(index)}
	return nil
}
