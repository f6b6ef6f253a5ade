package gameroom

import (
	"log/slog"
	"sync"

	"github.com/tidegate/roomforge/internal/protocol"
	"github.com/tidegate/roomforge/internal/roomerr"
	"github.com/tidegate/roomforge/internal/wire"
)

type connection struct {
	id     string
	outbox *Outbox
}

type broadcastTarget int

const (
	targetAll broadcastTarget = iota
	targetExcept
	targetOne
)

// Room is the authoritative per-room runtime: current and previous
// state, a fixed bank of connection slots, and the three differential
// broadcast primitives. All operations that touch state or connections
// acquire the room's own lock; callers never manage locking themselves.
type Room[T any, O any, P any, CGE any, SGE any] struct {
	mu     sync.RWMutex
	schema *Schema[T, O, P, CGE, SGE]
	log    *slog.Logger

	state       T
	prevState   T
	connections []*connection
}

// NewRoom constructs a room with every connection slot absent, host set
// to zero, and prevState equal to the freshly constructed state.
func NewRoom[T any, O any, P any, CGE any, SGE any](
	schema *Schema[T, O, P, CGE, SGE],
	log *slog.Logger,
) *Room[T, O, P, CGE, SGE] {
	state := schema.NewRoom()
	return &Room[T, O, P, CGE, SGE]{
		schema:      schema,
		log:         log,
		state:       state,
		prevState:   schema.CloneRoom(state),
		connections: make([]*connection, schema.MaxPlayers),
	}
}

// MaxPlayers returns the room's fixed connection-slot capacity.
func (r *Room[T, O, P, CGE, SGE]) MaxPlayers() int {
	return len(r.connections)
}

// State returns a clone of the room's current aggregate, safe for the
// caller to read without racing the room's own goroutines (a status
// endpoint, a test assertion, anything outside the HandleEvent path).
func (r *Room[T, O, P, CGE, SGE]) State() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schema.CloneRoom(r.state)
}

func (r *Room[T, O, P, CGE, SGE]) indexOfLocked(id string) int {
	for i, c := range r.connections {
		if c != nil && c.id == id {
			return i
		}
	}
	return -1
}

// IndexOf returns the connection slot holding id, or -1 if none does.
func (r *Room[T, O, P, CGE, SGE]) IndexOf(id string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexOfLocked(id)
}

// Join installs a new player named name into the first absent slot,
// broadcasts PlayerJoined to every other occupied slot, and separately
// sends RoomJoined with the full current snapshot to the joiner alone. It
// fails with roomerr.ErrRoomFull if every slot is occupied.
func (r *Room[T, O, P, CGE, SGE]) Join(id string, name protocol.Name) (int, *Outbox, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, c := range r.connections {
		if c == nil {
			idx = i
			break
		}
	}
	if idx < 0 {
		return -1, nil, roomerr.New(roomerr.ErrRoomFull, "room has no free connection slot")
	}

	p := r.schema.NewPlayer(name)
	r.schema.SetPlayerAt(&r.state, idx, &p)
	outbox := newOutbox()
	r.connections[idx] = &connection{id: id, outbox: outbox}

	var zero SGE
	r.broadcastLocked(protocol.ServerEventPlayerJoined, zero, targetExcept, idx)
	r.sendSnapshotLocked(idx, protocol.ServerEventRoomJoined)

	r.log.Info("player joined", slog.String("client", id), slog.Int("slot", idx))
	return idx, outbox, nil
}

// Reconnect re-attaches a new outbox to the existing slot for id, clears
// its disconnected flag, and broadcasts PlayerReconnected to everyone
// else. It fails with roomerr.ErrNoSuchClient if id holds no slot.
func (r *Room[T, O, P, CGE, SGE]) Reconnect(id string) (int, *Outbox, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOfLocked(id)
	if idx < 0 {
		return -1, nil, roomerr.New(roomerr.ErrNoSuchClient, "no connection slot for client %q", id)
	}

	if p := r.schema.PlayerAt(&r.state, idx); p != nil {
		r.schema.SetPlayerDisconnected(p, false)
	}
	outbox := newOutbox()
	r.connections[idx].outbox = outbox

	var zero SGE
	r.broadcastLocked(protocol.ServerEventPlayerReconnected, zero, targetExcept, idx)

	r.log.Info("player reconnected", slog.String("client", id), slog.Int("slot", idx))
	return idx, outbox, nil
}

// Leave empties the slot at index (voluntary departure), closes its
// outbox, and broadcasts PlayerLeft to every remaining occupied slot. A
// request against an already-absent slot is a no-op.
func (r *Room[T, O, P, CGE, SGE]) Leave(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index < 0 || index >= len(r.connections) || r.connections[index] == nil {
		return
	}
	r.connections[index].outbox.Close()
	r.connections[index] = nil
	r.schema.SetPlayerAt(&r.state, index, nil)

	var zero SGE
	r.broadcastLocked(protocol.ServerEventPlayerLeft, zero, targetAll, -1)

	r.log.Info("player left", slog.Int("slot", index))
}

// Disconnect marks the player holding id as disconnected, retaining its
// slot, and broadcasts PlayerDisconnected. It reports false (and has no
// effect) if id holds no slot or the player is already disconnected.
func (r *Room[T, O, P, CGE, SGE]) Disconnect(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOfLocked(id)
	if idx < 0 {
		return false
	}
	p := r.schema.PlayerAt(&r.state, idx)
	if p == nil || r.schema.PlayerDisconnected(p) {
		return false
	}
	r.schema.SetPlayerDisconnected(p, true)

	var zero SGE
	r.broadcastLocked(protocol.ServerEventPlayerDisconnected, zero, targetAll, -1)

	r.log.Info("player disconnected", slog.String("client", id), slog.Int("slot", idx))
	return true
}

// Empty reports whether every connection slot is absent or belongs to a
// disconnected player — the condition under which the registry evicts
// this room.
func (r *Room[T, O, P, CGE, SGE]) Empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, c := range r.connections {
		if c == nil {
			continue
		}
		p := r.schema.PlayerAt(&r.state, i)
		if p != nil && !r.schema.PlayerDisconnected(p) {
			return false
		}
	}
	return true
}

// HandleEvent runs the host validator against e and, if it passes,
// invokes the host's OnEvent callback under the room's write lock. A
// rejected event has no effect and produces no broadcast.
func (r *Room[T, O, P, CGE, SGE]) HandleEvent(index int, e protocol.ClientEvent[CGE]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.schema.ValidateEvent(&r.state, index, e) {
		return
	}
	ctx := &RoomCtx[T, O, P, CGE, SGE]{room: r}
	r.schema.OnEvent(ctx, index, e)
}

// broadcastLocked computes delta = diff(prevState, state) once, advances
// prevState to a fresh clone of state, and enqueues an encoded
// ServerMessage to every connection slot selected by target/index. The
// caller must hold r.mu for writing.
func (r *Room[T, O, P, CGE, SGE]) broadcastLocked(kind protocol.ServerEventKind, game SGE, target broadcastTarget, index int) {
	delta := r.schema.DiffRoom(r.prevState, r.state)
	r.prevState = r.schema.CloneRoom(r.state)

	for i, conn := range r.connections {
		if conn == nil {
			continue
		}
		switch target {
		case targetExcept:
			if i == index {
				continue
			}
		case targetOne:
			if i != index {
				continue
			}
		}
		r.sendTo(conn, kind, game, delta, i)
	}
}

// sendSnapshotLocked sends the full current-state snapshot (not a diff)
// to a single recipient, for the join-path's RoomJoined message. It does
// not touch prevState: broadcastLocked has already advanced it to match
// state earlier in the same handshake step.
func (r *Room[T, O, P, CGE, SGE]) sendSnapshotLocked(index int, kind protocol.ServerEventKind) {
	conn := r.connections[index]
	if conn == nil {
		return
	}
	snap := r.schema.IntoOptRoom(r.state)
	var zero SGE
	r.sendTo(conn, kind, zero, &snap, index)
}

// sendTo encodes and enqueues one ServerMessage for conn. delta is shared
// across every recipient of a single broadcast call, so Redact (a pure
// function of the delta) is what keeps one recipient's redaction from
// leaking into another's view rather than any copying done here.
func (r *Room[T, O, P, CGE, SGE]) sendTo(conn *connection, kind protocol.ServerEventKind, game SGE, delta *O, recipientIndex int) {
	var roomOpt *O
	if delta != nil {
		d := *delta
		if r.schema.Redact != nil {
			d = r.schema.Redact(d, recipientIndex)
		}
		roomOpt = &d
	}
	msg := protocol.ServerMessage[SGE, O]{
		Event: protocol.ServerEvent[SGE]{Kind: kind, Game: game},
		Room:  roomOpt,
	}
	w := wire.NewWriter(64)
	protocol.EncodeServerMessage(w, msg, r.schema.WriteGameEvent, r.schema.WriteRoomOpt)
	conn.outbox.Push(w.Bytes())
}

// RoomCtx is the mutation handle the host's OnEvent callback receives. It
// assumes the room's write lock is already held by the HandleEvent call
// that constructed it.
type RoomCtx[T any, O any, P any, CGE any, SGE any] struct {
	room *Room[T, O, P, CGE, SGE]
}

// State returns a mutable pointer to the room's live aggregate.
func (c *RoomCtx[T, O, P, CGE, SGE]) State() *T { return &c.room.state }

// PlayerAt returns the player at slot i, or nil if absent.
func (c *RoomCtx[T, O, P, CGE, SGE]) PlayerAt(i int) *P {
	return c.room.schema.PlayerAt(&c.room.state, i)
}

// Host returns the current host slot index.
func (c *RoomCtx[T, O, P, CGE, SGE]) Host() uint8 {
	return c.room.schema.Host(&c.room.state)
}

// SetHost designates slot h as host.
func (c *RoomCtx[T, O, P, CGE, SGE]) SetHost(h uint8) {
	c.room.schema.SetHost(&c.room.state, h)
}

// BroadcastAll sends kind/game to every occupied connection slot.
func (c *RoomCtx[T, O, P, CGE, SGE]) BroadcastAll(kind protocol.ServerEventKind, game SGE) {
	c.room.broadcastLocked(kind, game, targetAll, -1)
}

// BroadcastExcept sends kind/game to every occupied slot but index.
func (c *RoomCtx[T, O, P, CGE, SGE]) BroadcastExcept(index int, kind protocol.ServerEventKind, game SGE) {
	c.room.broadcastLocked(kind, game, targetExcept, index)
}

// BroadcastOne sends kind/game only to index.
func (c *RoomCtx[T, O, P, CGE, SGE]) BroadcastOne(index int, kind protocol.ServerEventKind, game SGE) {
	c.room.broadcastLocked(kind, game, targetOne, index)
}
