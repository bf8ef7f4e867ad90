/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package puzzle

import "fmt"

type GridKind string

const (
	KindQuote  GridKind = "quote"
	KindSource GridKind = "source"
	KindClue   GridKind = "clue"
)

// Grid is an ordered view over cells of the session arena. The same cell ID
// may appear in several grids, but never twice in one grid.
type Grid struct {
	Kind GridKind
	// Clue is the zero-based clue number for clue grids, -1 otherwise.
	Clue int
	// Text is the clue text for clue grids.
	Text string
	// Columns is the row width used for vertical moves. Single-row grids
	// have Columns equal to their length.
	Columns int

	cells []int
	pos   map[int]int
}

func newGrid(kind GridKind, clue int, text string, cells []int, columns int) (*Grid, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("%s grid has no cells", kind)
	}
	if columns <= 0 || columns > len(cells) {
		columns = len(cells)
	}

	g := &Grid{
		Kind:    kind,
		Clue:    clue,
		Text:    text,
		Columns: columns,
		cells:   cells,
		pos:     make(map[int]int, len(cells)),
	}
	for i, id := range cells {
		if _, dup := g.pos[id]; dup {
			return nil, fmt.Errorf("%s grid repeats cell %d", g.Name(), id)
		}
		g.pos[id] = i
	}
	return g, nil
}

// Name is a short human label such as "quote" or "clue 3".
func (g *Grid) Name() string {
	if g.Kind == KindClue {
		return fmt.Sprintf("clue %d", g.Clue+1)
	}
	return string(g.Kind)
}

func (g *Grid) Len() int { return len(g.cells) }

// At returns the cell ID at index. Indices come from navigation, so an
// out-of-range index panics like any slice access.
func (g *Grid) At(index int) int { return g.cells[index] }

// Cells returns a copy of the grid's cell IDs in order.
func (g *Grid) Cells() []int {
	out := make([]int, len(g.cells))
	copy(out, g.cells)
	return out
}

func (g *Grid) IndexOf(id int) (int, bool) {
	i, ok := g.pos[id]
	return i, ok
}

func (g *Grid) Contains(id int) bool {
	_, ok := g.pos[id]
	return ok
}

// Step returns the cell reached by moving delta from the cell with the given
// ID. Supported deltas are ±1 and ±Columns.
//
// Every move wraps, never clamps. Horizontal moves wrap circularly over the
// whole grid. Moving down past the last row lands on the first row in the
// same column. Moving up past the first row lands on the bottom-most row
// that has a cell in that column. For 12 cells in 5 columns, up from 2 is 7
// and down from 9 is 4.
func (g *Grid) Step(id, delta int) int {
	index, ok := g.pos[id]
	if !ok {
		panic(fmt.Sprintf("puzzle: cell %d is not in %s grid", id, g.Name()))
	}

	n := len(g.cells)
	switch delta {
	case 1, -1:
		index = ((index+delta)%n + n) % n
	case g.Columns:
		index += g.Columns
		if index >= n {
			index %= g.Columns
		}
	case -g.Columns:
		index -= g.Columns
		if index < 0 {
			for index+g.Columns < n {
				index += g.Columns
			}
		}
	default:
		panic(fmt.Sprintf("puzzle: unsupported step %d in %s grid", delta, g.Name()))
	}

	return g.cells[index]
}
