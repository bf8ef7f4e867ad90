// Acrostic room relay
//
// A room is a shared last-writer-wins map from cell id to the latest edit
// for that cell. The relay knows nothing about puzzles: it merges whatever
// edits clients send using the same (time, breaker) order the clients use,
// and relays what changed.
//
// Features:
// - WebSockets per room name: /room/:room
// - Each new socket first receives the room's full map, {} for a new room
// - Inbound batches are merged; entries that won are relayed to every socket,
//   the sender included
// - Slow sockets get a coalesced batch instead of a backlog
// - Rooms auto-reaped after configurable idle timeout
// - Random 8-char room names via crypto/rand, with server-side collision check
// - PNG QR code of the room URL, backed by go-qrcode

package main

import (
	"crypto/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/acrostic/roomsync"
)

const (
	maxMessageSize = 1 << 20
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
)

// Client is one socket in a room. Outgoing edits accumulate in pending and
// are flushed by writePump; wake has room for one signal.
type Client struct {
	id   string
	conn *websocket.Conn

	mu      sync.Mutex
	pending roomsync.Batch
	wake    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// queue merges b into the client's pending batch. Queuing an empty batch
// still produces a message, which is how a new socket learns the room is
// empty.
func (c *Client) queue(b roomsync.Batch) {
	c.mu.Lock()
	if c.pending == nil {
		c.pending = roomsync.Batch{}
	}
	c.pending.Merge(b)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Client) take() roomsync.Batch {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.pending
	c.pending = nil
	return b
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
	})
}

type inbound struct {
	client *Client
	batch  roomsync.Batch
}

type Room struct {
	id      string
	clients map[*Client]bool
	state   roomsync.Batch

	register chan *Client
	unreg    chan *Client
	edits    chan inbound
	quit     chan struct{}

	mu         sync.RWMutex
	createdAt  time.Time
	lastActive time.Time
}

func newRoom(roomID string) *Room {
	now := time.Now()
	return &Room{
		id:         roomID,
		clients:    make(map[*Client]bool),
		state:      roomsync.Batch{},
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		edits:      make(chan inbound),
		quit:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
	}
}

func (r *Room) touch() {
	r.mu.Lock()
	r.lastActive = time.Now()
	r.mu.Unlock()
}

func (r *Room) run(cfg *Config) {
	for {
		select {
		case c := <-r.register:
			r.touch()
			r.clients[c] = true
			c.queue(r.state.Clone())

			logf(cfg, "ROOMS: Client %s joined %s (%d connected, %d cells)", c.id, r.id, len(r.clients), len(r.state))

		case c := <-r.unreg:
			r.touch()
			if _, ok := r.clients[c]; ok {
				delete(r.clients, c)
				c.close()
			}

			logf(cfg, "ROOMS: Client %s left %s (%d connected)", c.id, r.id, len(r.clients))

		case in := <-r.edits:
			r.touch()
			changed := r.state.Merge(in.batch)
			if len(changed) == 0 {
				continue
			}
			for c := range r.clients {
				c.queue(changed)
			}

		case <-r.quit:
			for c := range r.clients {
				c.close()
				_ = c.conn.Close()
				delete(r.clients, c)
			}
			return
		}
	}
}

// closeAll disconnects all clients of this room (used by reaper).
func (r *Room) closeAll() {
	close(r.quit)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// RoomManager holds a set of rooms keyed by name, so each /room/:room is its
// own isolated map.
type RoomManager struct {
	mu          sync.Mutex
	rooms       map[string]*Room
	idleTimeout time.Duration
}

func newRoomManager(idleTimeout time.Duration) *RoomManager {
	rm := &RoomManager{
		rooms:       make(map[string]*Room),
		idleTimeout: idleTimeout,
	}
	if idleTimeout > 0 {
		go rm.reaperLoop()
	}
	return rm
}

func (rm *RoomManager) getRoom(cfg *Config, roomID string) *Room {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if room, ok := rm.rooms[roomID]; ok {
		return room
	}

	room := newRoom(roomID)
	rm.rooms[roomID] = room
	go room.run(cfg)
	return room
}

func (rm *RoomManager) count() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	return len(rm.rooms)
}

// newRoomID generates a crypto-random room name that no live room uses.
func (rm *RoomManager) newRoomID() string {
	for {
		id := randomRoomID()

		rm.mu.Lock()
		_, exists := rm.rooms[id]
		rm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

func randomRoomID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	out := make([]byte, 8)
	for i := range out {
		out[i] = letters[int(buf[i])%len(letters)]
	}
	return string(out)
}

// reaperLoop periodically removes rooms that have been idle longer than
// idleTimeout. A room with connected sockets still counts as idle once
// nobody has written to it for that long.
func (rm *RoomManager) reaperLoop() {
	ticker := time.NewTicker(rm.idleTimeout / 2)
	for range ticker.C {
		rm.reap(time.Now().Add(-rm.idleTimeout))
	}
}

func (rm *RoomManager) reap(cutoff time.Time) int {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	reaped := 0
	for id, room := range rm.rooms {
		room.mu.RLock()
		last := room.lastActive
		room.mu.RUnlock()

		if last.Before(cutoff) {
			delete(rm.rooms, id)
			room.closeAll()
			reaped++
		}
	}
	return reaped
}

// WebSocket handler that picks the room based on :room
func serveRoomSocket(cfg *Config, rm *RoomManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID := ps.ByName("room")
		if roomID == "" {
			http.Error(w, "missing room", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			cfg.logger.Warn().Err(err).Str("remote", realIP(r)).Msg("upgrade failed")
			return
		}
		conn.SetReadLimit(maxMessageSize)

		room := rm.getRoom(cfg, roomID)
		client := newClient(conn)

		select {
		case room.register <- client:
		case <-room.quit:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(cfg, room)
	}
}

func (c *Client) readPump(cfg *Config, r *Room) {
	defer func() {
		select {
		case r.unreg <- c:
		case <-r.quit:
		}
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		batch, err := roomsync.DecodeBatch(data)
		if err == nil {
			batch, err = batch.Canonical()
		}
		if err != nil {
			cfg.logger.Warn().Err(err).Str("client", c.id).Str("room", r.id).Msg("dropping message")
			continue
		}

		select {
		case r.edits <- inbound{client: c, batch: batch}:
		case <-r.quit:
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.wake:
			b := c.take()
			if b == nil {
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(b); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// roomURL derives the websocket URL of a room from the request that asked
// for it, respecting TLS and X-Forwarded-Proto.
func roomURL(cfg *Config, r *http.Request, roomID string) string {
	scheme := "ws"
	if r.TLS != nil {
		scheme = "wss"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" || proto == "wss" {
		scheme = "wss"
	}

	return scheme + "://" + r.Host + cfg.prefix + "/room/" + roomID
}

// QR handler: generates a PNG QR code for the room's websocket URL.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID := ps.ByName("room")
		if roomID == "" {
			http.Error(w, "missing room", http.StatusBadRequest)
			return
		}

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(roomURL(cfg, r, roomID), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)
		_, _ = w.Write(png)
	}
}

// redirectNewRoom handles GET /new by generating a new random room name
// (with server-side collision detection) and redirecting to its QR code.
func redirectNewRoom(cfg *Config, rm *RoomManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		roomID := rm.newRoomID()
		logf(cfg, "ROOMS: Created room %s", roomID)

		w.Header().Set("X-Room-URL", roomURL(cfg, r, roomID))
		http.Redirect(w, r, cfg.prefix+"/room/"+roomID+"/qr", http.StatusTemporaryRedirect)
	}
}

// registerRooms sets up routes so that:
//   - /new             → redirects to a new random room's QR code
//   - /room/:room      → WebSocket for that room
//   - /room/:room/qr   → PNG QR code for that room's URL
func registerRooms(cfg *Config, mux *httprouter.Router) *RoomManager {
	rm := newRoomManager(cfg.sessionTimeout)

	mux.GET(cfg.prefix+"/new", redirectNewRoom(cfg, rm))
	mux.GET(cfg.prefix+"/room/:room", serveRoomSocket(cfg, rm))
	mux.GET(cfg.prefix+"/room/:room/qr", qrHandler(cfg))

	return rm
}
