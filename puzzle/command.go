/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package puzzle

import (
	"fmt"
	"strings"
)

type CommandKind int

const (
	CmdMove CommandKind = iota
	CmdMoveVertical
	CmdSwitchGrid
	CmdSelect
	CmdType
	CmdErase
)

// Command is a normalized input intent produced by a keyboard or pointer
// collaborator.
type Command struct {
	Kind CommandKind

	// Delta is ±1 for CmdMove, CmdMoveVertical and CmdSwitchGrid. For
	// CmdErase, -1 erases behind the cursor (backspace) and +1 erases under it
	// and advances (space).
	Delta int

	// Grid and Index address the cell for CmdSelect.
	Grid  int
	Index int

	// Char and Marker are the typed character for CmdType.
	Char   rune
	Marker Marker
}

func Move(delta int) Command         { return Command{Kind: CmdMove, Delta: delta} }
func MoveVertical(dir int) Command   { return Command{Kind: CmdMoveVertical, Delta: dir} }
func SwitchGrid(dir int) Command     { return Command{Kind: CmdSwitchGrid, Delta: dir} }
func Select(grid, index int) Command { return Command{Kind: CmdSelect, Grid: grid, Index: index} }
func Erase(delta int) Command        { return Command{Kind: CmdErase, Delta: delta} }

func Type(ch rune, marker Marker) Command {
	return Command{Kind: CmdType, Char: ch, Marker: marker}
}

// Typable reports whether ch may be entered into a cell.
func Typable(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

// Apply runs cmd against the session and returns the local edits it made,
// at most one. Typing or erasing on a fixed cell only moves the cursor.
func (s *Session) Apply(cmd Command) ([]Edit, error) {
	switch cmd.Kind {
	case CmdMove:
		s.Move(unit(cmd.Delta))

	case CmdMoveVertical:
		s.MoveVertical(cmd.Delta)

	case CmdSwitchGrid:
		s.SwitchGrid(cmd.Delta)

	case CmdSelect:
		return nil, s.Select(cmd.Grid, cmd.Index)

	case CmdType:
		if !Typable(cmd.Char) {
			return nil, fmt.Errorf("cannot type %q", cmd.Char)
		}
		edits, err := s.writeCursor(strings.ToUpper(string(cmd.Char)), cmd.Marker)
		s.Move(1)
		return edits, err

	case CmdErase:
		if cmd.Delta < 0 {
			s.Move(-1)
			return s.writeCursor("", MarkerNone)
		}
		edits, err := s.writeCursor("", MarkerNone)
		s.Move(1)
		return edits, err

	default:
		return nil, fmt.Errorf("unknown command kind %d", cmd.Kind)
	}

	return nil, nil
}

func (s *Session) writeCursor(guess string, marker Marker) ([]Edit, error) {
	if !s.cells[s.cursor.Cell].Editable {
		return nil, nil
	}
	e, err := s.ProposeLocal(s.cursor.Cell, guess, marker)
	if err != nil {
		return nil, err
	}
	return []Edit{e}, nil
}

func unit(delta int) int {
	if delta < 0 {
		return -1
	}
	return 1
}
