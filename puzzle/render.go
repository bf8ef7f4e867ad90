/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package puzzle

import "strings"

type Content string

const (
	ContentSpace   Content = "space"
	ContentGuess   Content = "guess"
	ContentCorrect Content = "correct"
)

// CursorClass says how a cell relates to the cursor: the selected cell in
// the selected grid (both), another cell of the selected grid (grid), the
// selected cell seen from another grid (cell), or unrelated (none).
type CursorClass string

const (
	CursorBoth CursorClass = "both"
	CursorGrid CursorClass = "grid"
	CursorCell CursorClass = "cell"
	CursorNone CursorClass = "none"
)

type RenderCell struct {
	ID      int
	Char    string
	Content Content
	Marker  Marker
	Cursor  CursorClass
}

type RenderGrid struct {
	Kind    GridKind
	Name    string
	Text    string
	Columns int
	Cells   []RenderCell
}

// Frame is everything a drawing surface needs to paint the puzzle.
type Frame struct {
	Grids  []RenderGrid
	Solved bool
}

// Renderer consumes frames. Implementations live outside this package.
type Renderer interface {
	Render(Frame)
}

// Frame builds the render-state snapshot for the current session state.
func (s *Session) Frame() Frame {
	f := Frame{
		Grids:  make([]RenderGrid, len(s.grids)),
		Solved: s.Solved(),
	}

	for gi, g := range s.grids {
		selected := gi == s.cursor.Grid
		rg := RenderGrid{
			Kind:    g.Kind,
			Name:    g.Name(),
			Text:    g.Text,
			Columns: g.Columns,
			Cells:   make([]RenderCell, g.Len()),
		}
		for i, id := range g.cells {
			rg.Cells[i] = s.renderCell(id, selected)
		}
		f.Grids[gi] = rg
	}

	return f
}

func (s *Session) renderCell(id int, selectedGrid bool) RenderCell {
	c := &s.cells[id]
	rc := RenderCell{ID: id}

	switch {
	case c.Guess == Blank:
		rc.Content = ContentSpace
	case c.Editable:
		rc.Char = c.Guess
		rc.Content = ContentGuess
		rc.Marker = c.Marker
	default:
		rc.Char = c.Solution
		rc.Content = ContentCorrect
	}

	here := id == s.cursor.Cell
	switch {
	case selectedGrid && here:
		rc.Cursor = CursorBoth
	case selectedGrid:
		rc.Cursor = CursorGrid
	case here:
		rc.Cursor = CursorCell
	default:
		rc.Cursor = CursorNone
	}

	return rc
}

// String draws the grid for terminals, one row per line. The cursor cell is
// bracketed, empty editable cells show as '_' and pencil guesses in lower
// case.
func (g RenderGrid) String() string {
	var b strings.Builder
	for i, c := range g.Cells {
		if i > 0 && i%g.Columns == 0 {
			b.WriteByte('\n')
		}
		ch := c.Char
		switch {
		case c.Content == ContentSpace:
			ch = " "
		case c.Content == ContentGuess && ch == "":
			ch = "_"
		case c.Content == ContentGuess && c.Marker == MarkerPencil:
			ch = strings.ToLower(ch)
		}
		switch c.Cursor {
		case CursorBoth:
			b.WriteString("[" + ch + "]")
		case CursorCell:
			b.WriteString("(" + ch + ")")
		default:
			b.WriteString(" " + ch + " ")
		}
	}
	return b.String()
}
