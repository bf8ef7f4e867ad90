package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"defaults", Config{port: 3030}, true},
		{"tls pair", Config{port: 443, tlsCert: "c", tlsKey: "k"}, true},
		{"cert only", Config{port: 443, tlsCert: "c"}, false},
		{"port zero", Config{port: 0}, false},
		{"port too large", Config{port: 70000}, false},
	}

	for _, tt := range tests {
		if err := tt.cfg.validate(); (err == nil) != tt.ok {
			t.Fatalf("%s: validate() = %v", tt.name, err)
		}
	}
}

func TestValidatePlay(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"defaults", Config{columns: 40}, true},
		{"room", Config{columns: 40, room: "wss://ws.acrostic.club/room/abc"}, true},
		{"http room", Config{columns: 40, room: "https://ws.acrostic.club/room/abc"}, false},
		{"both stores", Config{columns: 40, snapshotDir: "d", snapshotDB: "f.db"}, false},
		{"no columns", Config{columns: 0}, false},
	}

	for _, tt := range tests {
		if err := tt.cfg.validatePlay(); (err == nil) != tt.ok {
			t.Fatalf("%s: validatePlay() = %v", tt.name, err)
		}
	}
}

func runCmd(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	cmd := newCmd(&Config{})
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out.String()
}

func TestRoomCommand(t *testing.T) {
	got := strings.TrimSpace(runCmd(t, "room", "--server", "ws://localhost:3030/"))
	if !strings.HasPrefix(got, "ws://localhost:3030/room/") || len(got) != len("ws://localhost:3030/room/")+8 {
		t.Fatalf("room URL = %q", got)
	}
}

func TestEnvironmentSetsFlags(t *testing.T) {
	t.Setenv("ACROSTIC_SERVER", "wss://rooms.example.com")

	got := runCmd(t, "room")
	if !strings.HasPrefix(got, "wss://rooms.example.com/room/") {
		t.Fatalf("room URL = %q", got)
	}

	got = runCmd(t, "room", "--server", "ws://flag.example.com")
	if !strings.HasPrefix(got, "ws://flag.example.com/room/") {
		t.Fatalf("flag did not win over environment: %q", got)
	}
}

func TestVersionFlag(t *testing.T) {
	if got := runCmd(t, "--version"); got != "acrostic v"+releaseVersion+"\n" {
		t.Fatalf("version = %q", got)
	}
}
