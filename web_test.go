/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestHumanReadableSize(t *testing.T) {
	tests := map[int64]string{
		0:             "0 B",
		999:           "999 B",
		1000:          "1.0 kB",
		1536:          "1.5 kB",
		2_500_000:     "2.5 MB",
		7_000_000_000: "7.0 GB",
	}

	for in, want := range tests {
		if got := humanReadableSize(in); got != want {
			t.Fatalf("humanReadableSize(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestProfileRoutesFollowFlag(t *testing.T) {
	for _, enabled := range []bool{false, true} {
		cfg := &Config{profile: enabled, logger: zerolog.Nop()}
		mux, _ := newRouter(cfg, make(chan error, 1))

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pprof/cmdline", nil))

		if got := rec.Code == http.StatusOK; got != enabled {
			t.Fatalf("profile=%v: /pprof/cmdline returned %d", enabled, rec.Code)
		}
	}
}

func TestPrefixedRoutes(t *testing.T) {
	cfg := &Config{prefix: "/acrostic/", logger: zerolog.Nop()}
	mux, _ := newRouter(cfg, make(chan error, 1))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/acrostic/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("prefixed healthz returned %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/new", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unprefixed /new returned %d", rec.Code)
	}
}

func TestLogfFormatsOnlyWhenVerbose(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{logger: zerolog.New(&buf).Level(zerolog.DebugLevel)}

	logf(cfg, "INDEX: %d puzzle(s) in %s", 3, "index.json")
	if buf.Len() != 0 {
		t.Fatalf("quiet logf wrote %q", buf.String())
	}

	cfg.verbose = true
	logf(cfg, "INDEX: %d puzzle(s) in %s", 3, "index.json")
	if !strings.Contains(buf.String(), `"message":"INDEX: 3 puzzle(s) in index.json"`) {
		t.Fatalf("logf wrote %q", buf.String())
	}
}
