/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roomsync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// echoRoom greets each socket with {} and echoes what it receives. The
// first socket is dropped after one echo.
func echoRoom(t *testing.T) *httptest.Server {
	t.Helper()

	var accepted atomic.Int32
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		n := accepted.Add(1)
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`{}`)); err != nil {
			return
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
			if n == 1 {
				return
			}
		}
	}))
}

func next(t *testing.T, c *Conn) Event {
	t.Helper()

	select {
	case ev, ok := <-c.Events():
		if !ok {
			t.Fatal("events closed")
		}
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestConnReconnects(t *testing.T) {
	srv := echoRoom(t)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := Dial(ctx, url, DialOptions{Logger: zerolog.Nop(), MinBackoff: 10 * time.Millisecond})

	for round := 1; round <= 2; round++ {
		if ev := next(t, c); ev.Kind != Connected {
			t.Fatalf("round %d: got %v, want Connected", round, ev.Kind)
		}
		if ev := next(t, c); ev.Kind != Message || string(ev.Data) != `{}` {
			t.Fatalf("round %d: first message = %v %q", round, ev.Kind, ev.Data)
		}

		if err := c.Send([]byte(`{"1":{"time":1,"breaker":1,"guess":"A","marker":"pen"}}`)); err != nil {
			t.Fatalf("round %d: Send: %v", round, err)
		}
		if ev := next(t, c); ev.Kind != Message || !strings.Contains(string(ev.Data), `"guess":"A"`) {
			t.Fatalf("round %d: echo = %v %q", round, ev.Kind, ev.Data)
		}

		if round == 1 {
			if ev := next(t, c); ev.Kind != Disconnected {
				t.Fatalf("got %v, want Disconnected", ev.Kind)
			}
		}
	}

	cancel()
	for range c.Events() {
	}
	if err := c.Send([]byte(`{}`)); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Send after close = %v", err)
	}
}

func TestConnReportsDialFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	c := Dial(ctx, url, DialOptions{Logger: zerolog.Nop(), MinBackoff: time.Hour})
	ev := next(t, c)
	if ev.Kind != Disconnected || ev.Err == nil {
		t.Fatalf("got %v %v, want Disconnected with error", ev.Kind, ev.Err)
	}
	if err := c.Send([]byte(`{}`)); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Send while offline = %v", err)
	}
}
