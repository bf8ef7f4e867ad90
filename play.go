/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/Seednode/acrostic/puzzle"
	"github.com/Seednode/acrostic/roomsync"
	"github.com/Seednode/acrostic/snapshot"
)

var errQuit = errors.New("quit")

// Play loads the puzzle at src and solves it from line input on in, drawing
// each frame to out. With cfg.room set, the session joins that room.
func Play(ctx context.Context, cfg *Config, src string, in io.Reader, out io.Writer) error {
	doc, err := puzzle.LoadDocument(ctx, src)
	if err != nil {
		return err
	}

	session, err := puzzle.New(doc, puzzle.Options{Columns: cfg.columns})
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	adapter := roomsync.NewAdapter(session, roomsync.Options{
		Store:    store,
		Key:      snapshotKey(src),
		Renderer: &textRenderer{w: out},
		Logger:   cfg.logger,
	})

	var ch roomsync.Channel
	if cfg.room != "" {
		ch = roomsync.Dial(ctx, cfg.room, roomsync.DialOptions{Logger: cfg.logger})
	}

	cmds := make(chan puzzle.Command)
	go readCommands(ctx, in, newLineParser(cfg.pencil), cmds, cfg.logger)

	err = adapter.Run(ctx, cmds, ch)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ListIndex prints the puzzles listed in the index document at src.
func ListIndex(ctx context.Context, cfg *Config, src string, out io.Writer) error {
	idx, err := puzzle.LoadIndex(ctx, src)
	if err != nil {
		return err
	}

	logf(cfg, "INDEX: %d puzzle(s) in %s", len(idx.Links), src)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, l := range idx.Links {
		fmt.Fprintf(tw, "%s\t%s\n", l.Name, l.URL)
	}
	return tw.Flush()
}

func openStore(ctx context.Context, cfg *Config) (snapshot.Store, error) {
	switch {
	case cfg.snapshotDB != "":
		return snapshot.OpenSQLite(ctx, cfg.snapshotDB)
	case cfg.snapshotDir != "":
		return snapshot.NewDir(cfg.snapshotDir)
	default:
		return snapshot.NewMemory(), nil
	}
}

func defaultSnapshotDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "acrostic")
}

// snapshotKey names the stored progress for src. Local paths are made
// absolute so the same file resolves to the same key from any directory.
func snapshotKey(src string) string {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return src
	}
	if abs, err := filepath.Abs(src); err == nil {
		return abs
	}
	return src
}

type textRenderer struct {
	w io.Writer
}

func (t *textRenderer) Render(f puzzle.Frame) {
	var b strings.Builder
	for _, g := range f.Grids {
		b.WriteString("== " + g.Name)
		if g.Text != "" {
			b.WriteString(": " + g.Text)
		}
		b.WriteString(" ==\n")
		b.WriteString(g.String())
		b.WriteString("\n\n")
	}
	if f.Solved {
		b.WriteString("*** solved ***\n")
	}
	_, _ = io.WriteString(t.w, b.String())
}

// lineParser turns lines of terminal input into commands. Letters and digits
// are typed in order and a space erases the cell under the cursor. Lines
// starting with ':' are movement and mode commands.
type lineParser struct {
	marker puzzle.Marker
}

func newLineParser(pencil bool) *lineParser {
	p := &lineParser{marker: puzzle.MarkerPen}
	if pencil {
		p.marker = puzzle.MarkerPencil
	}
	return p
}

func (p *lineParser) parse(line string) ([]puzzle.Command, error) {
	line = strings.TrimRight(line, "\r\n")

	if !strings.HasPrefix(line, ":") {
		var cmds []puzzle.Command
		for _, r := range line {
			switch {
			case puzzle.Typable(r):
				cmds = append(cmds, puzzle.Type(r, p.marker))
			case r == ' ':
				cmds = append(cmds, puzzle.Erase(1))
			}
		}
		return cmds, nil
	}

	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return nil, nil
	}

	count := 1
	if len(fields) == 2 && fields[0] != "select" {
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("bad repeat count %q", fields[1])
		}
		count = n
	}

	var cmd puzzle.Command
	switch fields[0] {
	case "q", "quit":
		return nil, errQuit
	case "h", "left":
		cmd = puzzle.Move(-1)
	case "l", "right":
		cmd = puzzle.Move(1)
	case "k", "up":
		cmd = puzzle.MoveVertical(-1)
	case "j", "down":
		cmd = puzzle.MoveVertical(1)
	case "n", "tab":
		cmd = puzzle.SwitchGrid(1)
	case "p", "shift-tab":
		cmd = puzzle.SwitchGrid(-1)
	case "b", "back":
		cmd = puzzle.Erase(-1)
	case "x", "del":
		cmd = puzzle.Erase(1)
	case "pencil":
		p.marker = puzzle.MarkerPencil
		return nil, nil
	case "pen":
		p.marker = puzzle.MarkerPen
		return nil, nil
	case "select":
		if len(fields) != 3 {
			return nil, errors.New("usage: :select <grid> <index>")
		}
		g, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("bad grid %q", fields[1])
		}
		i, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("bad index %q", fields[2])
		}
		return []puzzle.Command{puzzle.Select(g, i)}, nil
	default:
		return nil, fmt.Errorf("unknown command %q", fields[0])
	}

	cmds := make([]puzzle.Command, count)
	for i := range cmds {
		cmds[i] = cmd
	}
	return cmds, nil
}

// readCommands feeds parsed input to cmds and closes it at end of input or
// on :quit.
func readCommands(ctx context.Context, in io.Reader, p *lineParser, cmds chan<- puzzle.Command, log zerolog.Logger) {
	defer close(cmds)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		parsed, err := p.parse(scanner.Text())
		if errors.Is(err, errQuit) {
			return
		}
		if err != nil {
			log.Warn().Err(err).Msg("ignoring input")
			continue
		}

		for _, cmd := range parsed {
			select {
			case cmds <- cmd:
			case <-ctx.Done():
				return
			}
		}
	}
	if err := scanner.Err(); err != nil {
		log.Warn().Err(err).Msg("reading input")
	}
}
