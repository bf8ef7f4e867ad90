/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package roomsync keeps a puzzle session in step with a room of peers.
//
// Every producer of cell writes (local commands, inbound room messages and
// replay of the local snapshot) is funneled through one Adapter, which runs
// on a single goroutine and applies the session's last-writer-wins rule.
package roomsync

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/Seednode/acrostic/puzzle"
	"github.com/Seednode/acrostic/snapshot"
)

// Sender delivers an encoded batch to the room. Delivery is best effort.
type Sender interface {
	Send(data []byte) error
}

type EventKind int

const (
	Connected EventKind = iota
	Message
	Disconnected
)

type Event struct {
	Kind EventKind
	Data []byte
	Err  error
}

// Channel is a room connection. Each Connected event starts a new channel
// instance with its own bootstrap handshake.
type Channel interface {
	Sender
	Events() <-chan Event
}

type Options struct {
	// Store and Key locate the persisted snapshot. A nil Store disables
	// persistence.
	Store snapshot.Store
	Key   string

	Renderer puzzle.Renderer
	Logger   zerolog.Logger
}

// Adapter drives one session. It is not safe for concurrent use; Run owns it.
type Adapter struct {
	session  *puzzle.Session
	store    snapshot.Store
	key      string
	renderer puzzle.Renderer
	log      zerolog.Logger

	out Sender

	// seenFirst is set once the current channel instance has delivered its
	// first message.
	seenFirst bool
	// settled is set once the session knows which state to trust: the local
	// snapshot was replayed, or the room answered. Until then nothing is
	// persisted, so a half-built session never overwrites the stored record.
	settled bool
	// unsent holds cells whose local edit never reached a channel. They are
	// offered again when the next channel instance delivers its first message.
	unsent map[int]struct{}
}

func NewAdapter(s *puzzle.Session, opts Options) *Adapter {
	return &Adapter{
		session:  s,
		store:    opts.Store,
		key:      opts.Key,
		renderer: opts.Renderer,
		log:      opts.Logger,
		unsent:   make(map[int]struct{}),
	}
}

func (a *Adapter) Session() *puzzle.Session { return a.session }

// Attach starts a new channel instance and re-arms the handshake.
func (a *Adapter) Attach(out Sender) {
	a.out = out
	a.seenFirst = false
}

// SeenFirst reports whether the current channel has delivered a message.
func (a *Adapter) SeenFirst() bool { return a.seenFirst }

// StartLocal is the single-player start: replay the snapshot and render.
func (a *Adapter) StartLocal(ctx context.Context) {
	a.replay(ctx)
	a.settled = true
	a.render()
}

// Handle applies one input command, pushes the resulting edit to the room
// and persists the session.
func (a *Adapter) Handle(ctx context.Context, cmd puzzle.Command) {
	edits, err := a.session.Apply(cmd)
	if err != nil {
		a.log.Debug().Err(err).Msg("command rejected")
	}

	if len(edits) > 0 {
		a.push(edits...)
	}
	if cmd.Kind == puzzle.CmdType || cmd.Kind == puzzle.CmdErase {
		a.persist(ctx)
	}
	a.render()
}

// Receive processes one inbound room message.
func (a *Adapter) Receive(ctx context.Context, data []byte) {
	var edits []puzzle.Edit
	batch, err := DecodeBatch(data)
	if err == nil {
		edits, err = batch.Edits()
	}
	if err != nil {
		a.log.Warn().Err(err).Int("bytes", len(data)).Msg("dropping room message")
		return
	}

	first := !a.seenFirst
	if first {
		a.seenFirst = true
		if len(batch) == 0 {
			a.bootstrap(ctx)
		}
	}

	accepted := 0
	for _, e := range edits {
		ok, err := a.session.ApplyRemote(e)
		if err != nil {
			a.log.Debug().Err(err).Int("cell", e.CellID).Msg("ignoring room edit")
			continue
		}
		if ok {
			accepted++
		}
	}
	a.log.Debug().Int("edits", len(edits)).Int("accepted", accepted).Msg("room message")

	if first && len(batch) > 0 {
		a.flush()
	}

	a.settled = true
	a.persist(ctx)
	a.render()
}

// Disconnected handles loss of the channel. If the room never answered, the
// session falls back to the local snapshot so it stays usable offline.
func (a *Adapter) Disconnected(ctx context.Context, err error) {
	a.log.Warn().Err(err).Msg("room connection lost")
	if a.settled {
		return
	}
	a.replay(ctx)
	a.settled = true
	a.render()
}

// Run is the session's event loop. With a nil channel it plays locally.
// It returns when ctx is done or cmds is closed.
func (a *Adapter) Run(ctx context.Context, cmds <-chan puzzle.Command, ch Channel) error {
	var events <-chan Event
	if ch == nil {
		a.StartLocal(ctx)
	} else {
		events = ch.Events()
		a.render()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case cmd, ok := <-cmds:
			if !ok {
				return nil
			}
			a.Handle(ctx, cmd)

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			switch ev.Kind {
			case Connected:
				a.log.Info().Msg("joined room")
				a.Attach(ch)
			case Message:
				a.Receive(ctx, ev.Data)
			case Disconnected:
				a.Disconnected(ctx, ev.Err)
			}
		}
	}
}

// bootstrap answers an empty first message: the room has no state yet, so
// this client's board becomes the room's. That covers the stored snapshot
// and anything typed before the room answered.
func (a *Adapter) bootstrap(ctx context.Context) {
	a.replay(ctx)
	clear(a.unsent)
	edits := a.session.Edits()
	a.log.Info().Int("cells", len(edits)).Msg("room is empty, uploading board")
	a.push(edits...)
}

// replay loads the stored snapshot and applies it through the session's
// merge rule.
func (a *Adapter) replay(ctx context.Context) {
	if a.store == nil {
		return
	}

	data, err := a.store.Load(ctx, a.key)
	if errors.Is(err, snapshot.ErrNoSnapshot) {
		return
	}
	if err != nil {
		a.log.Warn().Err(err).Msg("snapshot unavailable")
		return
	}

	snap, err := puzzle.DecodeSnapshot(data)
	if err != nil {
		a.log.Warn().Err(err).Msg("ignoring corrupt snapshot")
		return
	}

	for _, e := range snap.Edits(a.session) {
		if _, err := a.session.ApplyRemote(e); err != nil {
			a.log.Debug().Err(err).Int("cell", e.CellID).Msg("ignoring snapshot entry")
		}
	}
}

// flush resends the current state of every cell in unsent. A cell the room
// has since overwritten goes out with the room's value, which the relay
// drops as stale.
func (a *Adapter) flush() {
	if len(a.unsent) == 0 {
		return
	}

	edits := make([]puzzle.Edit, 0, len(a.unsent))
	for id := range a.unsent {
		c, ok := a.session.Cell(id)
		if !ok {
			continue
		}
		edits = append(edits, puzzle.Edit{CellID: id, Guess: c.Guess, Marker: c.Marker, Stamp: c.Stamp})
	}
	clear(a.unsent)

	a.log.Info().Int("cells", len(edits)).Msg("sending edits made while disconnected")
	a.push(edits...)
}

func (a *Adapter) push(edits ...puzzle.Edit) {
	if a.out == nil {
		a.log.Debug().Int("edits", len(edits)).Msg("not connected, edit kept locally")
		a.keep(edits)
		return
	}

	data, err := NewBatch(edits...).Encode()
	if err != nil {
		a.log.Error().Err(err).Msg("encode room message")
		return
	}
	if err := a.out.Send(data); err != nil {
		a.log.Warn().Err(err).Int("edits", len(edits)).Msg("room send failed")
		a.keep(edits)
	}
}

func (a *Adapter) keep(edits []puzzle.Edit) {
	for _, e := range edits {
		a.unsent[e.CellID] = struct{}{}
	}
}

func (a *Adapter) persist(ctx context.Context) {
	if a.store == nil || !a.settled {
		return
	}

	data, err := a.session.Snapshot().Encode()
	if err != nil {
		a.log.Error().Err(err).Msg("encode snapshot")
		return
	}
	if err := a.store.Save(ctx, a.key, data); err != nil {
		a.log.Warn().Err(err).Msg("snapshot save failed")
	}
}

func (a *Adapter) render() {
	if a.renderer != nil {
		a.renderer.Render(a.session.Frame())
	}
}
