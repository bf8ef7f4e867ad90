/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roomsync

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var (
	ErrNotConnected = errors.New("room not connected")
	ErrQueueFull    = errors.New("room send queue full")
)

const (
	sendBuffer   = 64
	eventBuffer  = 16
	writeTimeout = 10 * time.Second
)

type DialOptions struct {
	Dialer *websocket.Dialer
	Header http.Header
	Logger zerolog.Logger

	// MinBackoff and MaxBackoff bound the delay between reconnect attempts.
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// Conn is a websocket room channel that reconnects until its context ends.
// Each successful dial is reported as a Connected event.
type Conn struct {
	url  string
	opts DialOptions
	log  zerolog.Logger

	events chan Event

	mu   sync.Mutex
	send chan []byte
}

// Dial starts connecting to the room at url in the background. The events
// channel is closed once ctx is done.
func Dial(ctx context.Context, url string, opts DialOptions) *Conn {
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.MinBackoff <= 0 {
		opts.MinBackoff = 500 * time.Millisecond
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 30 * time.Second
	}
	opts.MaxBackoff = max(opts.MaxBackoff, opts.MinBackoff)

	c := &Conn{
		url:    url,
		opts:   opts,
		log:    opts.Logger.With().Str("room", url).Logger(),
		events: make(chan Event, eventBuffer),
	}
	go c.run(ctx)
	return c
}

func (c *Conn) Events() <-chan Event { return c.events }

// Send queues data for the current connection without blocking.
func (c *Conn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.send == nil {
		return ErrNotConnected
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrQueueFull
	}
}

func (c *Conn) run(ctx context.Context) {
	defer close(c.events)

	backoff := c.opts.MinBackoff
	for {
		conn, _, err := c.opts.Dialer.DialContext(ctx, c.url, c.opts.Header)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Debug().Err(err).Dur("retry", backoff).Msg("dial failed")
			if !c.emit(ctx, Event{Kind: Disconnected, Err: err}) {
				return
			}
		} else {
			backoff = c.opts.MinBackoff
			err = c.serve(ctx, conn)
			if ctx.Err() != nil {
				return
			}
			if !c.emit(ctx, Event{Kind: Disconnected, Err: err}) {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, c.opts.MaxBackoff)
	}
}

// serve pumps one connection until it fails or ctx ends.
func (c *Conn) serve(ctx context.Context, conn *websocket.Conn) error {
	send := make(chan []byte, sendBuffer)

	c.mu.Lock()
	c.send = send
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.send = nil
		close(send)
		c.mu.Unlock()
	}()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	go c.writePump(conn, send)

	if !c.emit(ctx, Event{Kind: Connected}) {
		conn.Close()
		return ctx.Err()
	}

	return c.readPump(ctx, conn)
}

func (c *Conn) readPump(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if !c.emit(ctx, Event{Kind: Message, Data: data}) {
			return ctx.Err()
		}
	}
}

func (c *Conn) writePump(conn *websocket.Conn, send <-chan []byte) {
	defer conn.Close()

	for msg := range send {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.log.Debug().Err(err).Msg("write failed")
			return
		}
	}
}

func (c *Conn) emit(ctx context.Context, ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
