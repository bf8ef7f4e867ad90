/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Seednode/acrostic/puzzle"
	"github.com/Seednode/acrostic/snapshot"
)

const testPuzzle = `{
	"quote": "Hi, yo",
	"quote_letters": ["H", "I", ",", " ", "Y", "O"],
	"source": "HI",
	"clues": [
		{"clue": "Greeting", "indices": [0, 1], "answer_letters": ["H", "I"]},
		{"clue": "Slang", "indices": [4, 5], "answer_letters": ["Y", "O"]}
	]
}`

func writeFile(t *testing.T, name, data string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLineParser(t *testing.T) {
	p := newLineParser(false)

	tests := []struct {
		line string
		want []puzzle.Command
	}{
		{"hi", []puzzle.Command{puzzle.Type('h', puzzle.MarkerPen), puzzle.Type('i', puzzle.MarkerPen)}},
		{"a b!", []puzzle.Command{puzzle.Type('a', puzzle.MarkerPen), puzzle.Erase(1), puzzle.Type('b', puzzle.MarkerPen)}},
		{"ab  ", []puzzle.Command{puzzle.Type('a', puzzle.MarkerPen), puzzle.Type('b', puzzle.MarkerPen), puzzle.Erase(1), puzzle.Erase(1)}},
		{"a \r\n", []puzzle.Command{puzzle.Type('a', puzzle.MarkerPen), puzzle.Erase(1)}},
		{":left", []puzzle.Command{puzzle.Move(-1)}},
		{":l 3", []puzzle.Command{puzzle.Move(1), puzzle.Move(1), puzzle.Move(1)}},
		{":down", []puzzle.Command{puzzle.MoveVertical(1)}},
		{":k", []puzzle.Command{puzzle.MoveVertical(-1)}},
		{":tab", []puzzle.Command{puzzle.SwitchGrid(1)}},
		{":shift-tab", []puzzle.Command{puzzle.SwitchGrid(-1)}},
		{":back", []puzzle.Command{puzzle.Erase(-1)}},
		{":del", []puzzle.Command{puzzle.Erase(1)}},
		{":select 2 1", []puzzle.Command{puzzle.Select(2, 1)}},
		{":", nil},
		{"", nil},
	}

	for _, tt := range tests {
		got, err := p.parse(tt.line)
		if err != nil {
			t.Fatalf("parse(%q): %v", tt.line, err)
		}
		if len(got) != len(tt.want) {
			t.Fatalf("parse(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("parse(%q)[%d] = %+v, want %+v", tt.line, i, got[i], tt.want[i])
			}
		}
	}
}

func TestLineParserModesAndErrors(t *testing.T) {
	p := newLineParser(true)

	got, _ := p.parse("x")
	if got[0].Marker != puzzle.MarkerPencil {
		t.Fatalf("--pencil typed with %q", got[0].Marker)
	}
	_, _ = p.parse(":pen")
	got, _ = p.parse("x")
	if got[0].Marker != puzzle.MarkerPen {
		t.Fatalf(":pen typed with %q", got[0].Marker)
	}
	_, _ = p.parse(":pencil")
	got, _ = p.parse("x")
	if got[0].Marker != puzzle.MarkerPencil {
		t.Fatalf(":pencil typed with %q", got[0].Marker)
	}

	if _, err := p.parse(":quit"); !errors.Is(err, errQuit) {
		t.Fatalf(":quit = %v", err)
	}
	for _, bad := range []string{":jump", ":l x", ":l 0", ":select 1", ":select a b"} {
		if _, err := p.parse(bad); err == nil {
			t.Fatalf("parse(%q) succeeded", bad)
		}
	}
}

func TestPlayLocalSavesProgress(t *testing.T) {
	src := writeFile(t, "puzzle.json", testPuzzle)
	dir := t.TempDir()

	cfg := &Config{snapshotDir: dir, columns: 3, logger: zerolog.Nop()}
	var out bytes.Buffer
	in := strings.NewReader("hi\n:select 3 0\nyo\n")

	if err := Play(context.Background(), cfg, src, in, &out); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if !strings.Contains(out.String(), "*** solved ***") {
		t.Fatalf("never rendered solved:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "== clue 2: Slang ==") {
		t.Fatalf("missing clue header:\n%s", out.String())
	}

	store, _ := snapshot.NewDir(dir)
	data, err := store.Load(context.Background(), snapshotKey(src))
	if err != nil {
		t.Fatalf("no snapshot saved: %v", err)
	}
	snap, err := puzzle.DecodeSnapshot(data)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Values[0].Guess != "H" || snap.Values[5].Guess != "O" || snap.Values[2] != nil {
		t.Fatalf("snapshot = %s", data)
	}

	// A second run picks up where the first left off.
	out.Reset()
	if err := Play(context.Background(), cfg, src, strings.NewReader(":q\n"), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "*** solved ***") {
		t.Fatalf("progress not restored:\n%s", out.String())
	}
}

func TestPlayFetchesOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/p.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(testPuzzle))
	}))
	defer srv.Close()

	cfg := &Config{snapshotDB: filepath.Join(t.TempDir(), "progress.db"), columns: 40, logger: zerolog.Nop()}

	var out bytes.Buffer
	if err := Play(context.Background(), cfg, srv.URL+"/p.json", strings.NewReader("h\n"), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "== quote ==") {
		t.Fatalf("output:\n%s", out.String())
	}

	if err := Play(context.Background(), cfg, srv.URL+"/missing.json", strings.NewReader(""), &out); err == nil {
		t.Fatal("expected error for missing puzzle")
	}
}

func TestPlayRejectsInvalidPuzzle(t *testing.T) {
	src := writeFile(t, "bad.json", `{"quote": "x", "quote_letters": ["X"], "clues": []}`)
	cfg := &Config{columns: 40, logger: zerolog.Nop()}

	err := Play(context.Background(), cfg, src, strings.NewReader(""), &bytes.Buffer{})
	if !errors.Is(err, puzzle.ErrInvalidDocument) {
		t.Fatalf("got %v, want ErrInvalidDocument", err)
	}
}

func TestListIndex(t *testing.T) {
	src := writeFile(t, "index.json", `{"links": [
		{"name": "Monday", "url": "https://example.com/1.json"},
		{"name": "Tuesday", "url": "https://example.com/2.json"}
	]}`)

	var out bytes.Buffer
	if err := ListIndex(context.Background(), &Config{logger: zerolog.Nop()}, src, &out); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "Tuesday") || !strings.HasSuffix(lines[1], "2.json") {
		t.Fatalf("output:\n%s", out.String())
	}
}

func TestSnapshotKey(t *testing.T) {
	if got := snapshotKey("https://example.com/p.json"); got != "https://example.com/p.json" {
		t.Fatalf("url key = %q", got)
	}
	if got := snapshotKey("p.json"); !filepath.IsAbs(got) {
		t.Fatalf("path key %q is not absolute", got)
	}
}
