// Package protocol defines the two top-level wire messages — ServerMessage
// and ClientEvent — and their variant tag sets. Encoding follows a fixed
// scheme: u32 variant tags in field-declaration order, a single tag byte
// for the room delta's N<Opt<T>> slot. Decode errors on a client frame
// default to Unknown rather than failing the connection, matching the
// deliberately tolerant contract around Active-phase decode errors.
package protocol

import (
	"github.com/tidegate/roomforge/internal/wire"
)

// NameLen is the fixed byte width of a player display name, matching the
// [u8; 20] name field clients send on JoinRoom.
const NameLen = 20

// Name is a fixed-width, NUL-padded player display name.
type Name [NameLen]byte

// NameFrom truncates or NUL-pads s into a Name.
func NameFrom(s string) Name {
	var n Name
	copy(n[:], s)
	return n
}

func (n Name) String() string {
	i := 0
	for i < len(n) && n[i] != 0 {
		i++
	}
	return string(n[:i])
}

func writeName(w *wire.Writer, n Name) { w.WriteRaw(n[:]) }

func readName(r *wire.Reader) (Name, error) {
	var n Name
	raw, err := r.ReadRaw(NameLen)
	if err != nil {
		return n, err
	}
	copy(n[:], raw)
	return n, nil
}

// ServerEventKind is the server→client event taxonomy.
type ServerEventKind uint32

const (
	ServerEventRoomJoined ServerEventKind = iota
	ServerEventPlayerJoined
	ServerEventPlayerLeft
	ServerEventPlayerDisconnected
	ServerEventPlayerReconnected
	ServerEventHostChanged
	ServerEventUnknown
	ServerEventGame
)

// ServerEvent is a tagged server→client event. Game is only meaningful
// when Kind is ServerEventGame.
type ServerEvent[G any] struct {
	Kind ServerEventKind
	Game G
}

// ServerMessage pairs a tagged event with an optional room delta. A nil
// Room means "no state change".
type ServerMessage[G any, O any] struct {
	Event ServerEvent[G]
	Room  *O
}

// EncodeServerMessage serialises m. writeGame encodes the host-supplied
// game event payload; writeRoomOpt encodes one room delta.
func EncodeServerMessage[G any, O any](
	w *wire.Writer,
	m ServerMessage[G, O],
	writeGame func(*wire.Writer, G),
	writeRoomOpt func(*wire.Writer, O),
) {
	w.WriteU32(uint32(m.Event.Kind))
	if m.Event.Kind == ServerEventGame {
		writeGame(w, m.Event.Game)
	}
	wire.WriteOption(w, m.Room, writeRoomOpt)
}

// DecodeServerMessage is the inverse of EncodeServerMessage.
func DecodeServerMessage[G any, O any](
	r *wire.Reader,
	readGame func(*wire.Reader) (G, error),
	readRoomOpt func(*wire.Reader) (O, error),
) (ServerMessage[G, O], error) {
	var m ServerMessage[G, O]
	kind, err := r.ReadU32()
	if err != nil {
		return m, err
	}
	m.Event.Kind = ServerEventKind(kind)
	if m.Event.Kind > ServerEventGame {
		m.Event.Kind = ServerEventUnknown
	}
	if m.Event.Kind == ServerEventGame {
		g, err := readGame(r)
		if err != nil {
			return m, err
		}
		m.Event.Game = g
	}
	room, err := wire.ReadOption(r, readRoomOpt)
	if err != nil {
		return m, err
	}
	m.Room = room
	return m, nil
}

// ClientEventKind is the client→server event taxonomy.
type ClientEventKind uint32

const (
	ClientEventJoinRoom ClientEventKind = iota
	ClientEventLeaveRoom
	ClientEventUnknown
	ClientEventGame
)

// ClientEvent is a tagged client→server event. Name is only meaningful
// for ClientEventJoinRoom; Game only for ClientEventGame.
type ClientEvent[G any] struct {
	Kind ClientEventKind
	Name Name
	Game G
}

// EncodeClientEvent serialises e. writeGame encodes the host-supplied
// game event payload.
func EncodeClientEvent[G any](w *wire.Writer, e ClientEvent[G], writeGame func(*wire.Writer, G)) {
	w.WriteU32(uint32(e.Kind))
	switch e.Kind {
	case ClientEventJoinRoom:
		writeName(w, e.Name)
	case ClientEventGame:
		writeGame(w, e.Game)
	}
}

// DecodeClientEvent is the inverse of EncodeClientEvent. Any error
// decoding the tag or the variant's payload is swallowed and reported as
// ClientEventUnknown with ok=false, so callers on the Active-phase receive
// loop can treat it as a no-op rather than tearing down the connection.
func DecodeClientEvent[G any](r *wire.Reader, readGame func(*wire.Reader) (G, error)) (ClientEvent[G], bool) {
	var e ClientEvent[G]
	kind, err := r.ReadU32()
	if err != nil {
		e.Kind = ClientEventUnknown
		return e, false
	}
	e.Kind = ClientEventKind(kind)
	switch e.Kind {
	case ClientEventJoinRoom:
		name, err := readName(r)
		if err != nil {
			e.Kind = ClientEventUnknown
			return e, false
		}
		e.Name = name
		return e, true
	case ClientEventLeaveRoom:
		return e, true
	case ClientEventGame:
		g, err := readGame(r)
		if err != nil {
			e.Kind = ClientEventUnknown
			return e, false
		}
		e.Game = g
		return e, true
	default:
		e.Kind = ClientEventUnknown
		return e, true
	}
}
