// Package gameroom implements the room runtime: authoritative state
// plus a previous-snapshot mirror, a fixed bank of connection slots, host
// designation, and the three differential broadcast primitives. It is
// generic over a host-supplied schema: the room runtime never inspects T,
// O, P, or the game event types directly, only through the function
// pointers a Schema bundles together. In a production build those
// function pointers are what the derivation layer (cmd/roomgen) emits for
// a tagged user struct; here they are supplied directly by the schema
// author.
package gameroom

import (
	"github.com/tidegate/roomforge/internal/protocol"
	"github.com/tidegate/roomforge/internal/wire"
)

// Schema bundles everything the room runtime needs to treat a
// host-defined room type T (with opt companion O) and player type P as
// first-class participants in the delta model and the broadcast
// primitives, without the runtime ever switching on concrete types.
//
// T, O, P, CGE and SGE are, respectively: the room aggregate, its opt
// companion, the player aggregate, the client-supplied game event type,
// and the server-supplied game event type.
type Schema[T any, O any, P any, CGE any, SGE any] struct {
	// MaxPlayers is the fixed connection-slot capacity of a room of this
	// type (MAX in the room record invariant).
	MaxPlayers int

	// NewRoom default-constructs T with every player slot absent and
	// host set to 0.
	NewRoom func() T
	// CloneRoom deep-copies a room value so that advancing the previous
	// snapshot never aliases player records with the live state.
	CloneRoom func(T) T

	// DiffRoom, ApplyRoom, IntoOptRoom and FromOptRoom are the four
	// delta operations for T.
	DiffRoom    func(a, b T) *O
	ApplyRoom   func(dst *T, d O)
	IntoOptRoom func(a T) O
	FromOptRoom func(d O) T

	// WriteRoomOpt and WriteGameEvent encode a room delta and a
	// server-supplied game event payload onto the wire.
	WriteRoomOpt   func(w *wire.Writer, o O)
	WriteGameEvent func(w *wire.Writer, g SGE)
	// ReadClientGameEvent decodes a client-supplied game event payload.
	ReadClientGameEvent func(r *wire.Reader) (CGE, error)

	// PlayerAt and SetPlayerAt expose the room capability's fixed-length
	// sequence of nullable player slots.
	PlayerAt    func(room *T, i int) *P
	SetPlayerAt func(room *T, i int, p *P)
	// Host and SetHost expose the room capability's host field.
	Host    func(room *T) uint8
	SetHost func(room *T, h uint8)

	// NewPlayer constructs a default player record with the given name
	// and disconnected=false.
	NewPlayer func(name protocol.Name) P
	// PlayerName, PlayerDisconnected and SetPlayerDisconnected expose the
	// player capability's tagged fields.
	PlayerName            func(p *P) protocol.Name
	PlayerDisconnected    func(p *P) bool
	SetPlayerDisconnected func(p *P, v bool)

	// ValidateEvent is the pure predicate gating HandleEvent: a false
	// result silently drops the event, with no state change and no
	// broadcast.
	ValidateEvent func(room *T, playerIndex int, e protocol.ClientEvent[CGE]) bool
	// OnEvent mutates the room and invokes the broadcast primitives
	// through the RoomCtx it is given.
	OnEvent func(ctx *RoomCtx[T, O, P, CGE, SGE], playerIndex int, e protocol.ClientEvent[CGE])

	// Redact optionally scrubs private-tagged fields that don't belong
	// to recipientIndex out of a delta right before it's encoded for
	// that recipient. It must be pure: o is shared across every
	// recipient of one broadcast, so Redact returns a (possibly new)
	// value rather than mutating o or anything it points to. A nil
	// Redact is the identity.
	Redact func(o O, recipientIndex int) O
}
