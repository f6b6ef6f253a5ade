// Companion code for tictactoe.go (Player, Room): the opt types, delta
// operations, wire codec and gameroom.Schema wiring in the shape
// cmd/roomgen derives, maintained by hand, plus the game-event codecs
// (WriteClientGameEvent, ReadClientGameEvent, WriteServerGameEvent) that
// roomgen does not emit.

package tictactoe

import (
	"github.com/tidegate/roomforge/internal/gameroom"
	"github.com/tidegate/roomforge/internal/opt"
	"github.com/tidegate/roomforge/internal/protocol"
	"github.com/tidegate/roomforge/internal/util/clone"
	"github.com/tidegate/roomforge/internal/wire"
)

// BoardSize is the fixed cell count of Room.Board.
const BoardSize = 9

// PlayerOpt is the opt companion of Player.
type PlayerOpt struct {
	Name         *protocol.Name
	Disconnected *bool
	Note         *string
}

// RoomOpt is the opt companion of Room.
type RoomOpt struct {
	Host     *uint8
	Players  []*opt.Slot[PlayerOpt]
	Board    []*Mark
	Turn     *uint8
	Winner   *opt.Slot[uint8]
	Finished *bool
}

func identityUint8(v uint8) uint8    { return v }
func applyUint8(dst *uint8, v uint8) { *dst = v }

func (p Player) Clone() Player { return p }

func (r Room) Clone() Room {
	return Room{
		Host:     r.Host,
		Players:  clone.DeepSlice(r.Players),
		Board:    append([]Mark(nil), r.Board...),
		Turn:     r.Turn,
		Winner:   clone.TrivialPtr(r.Winner),
		Finished: r.Finished,
	}
}

func diffPlayer(a, b Player) *PlayerOpt {
	name := opt.DiffScalar(a.Name, b.Name)
	disc := opt.DiffScalar(a.Disconnected, b.Disconnected)
	note := opt.DiffScalar(a.Note, b.Note)
	if name == nil && disc == nil && note == nil {
		return nil
	}
	return &PlayerOpt{Name: name, Disconnected: disc, Note: note}
}

func applyPlayer(dst *Player, d PlayerOpt) {
	opt.ApplyScalar(&dst.Name, d.Name)
	opt.ApplyScalar(&dst.Disconnected, d.Disconnected)
	opt.ApplyScalar(&dst.Note, d.Note)
}

func intoPlayer(a Player) PlayerOpt {
	return PlayerOpt{Name: &a.Name, Disconnected: &a.Disconnected, Note: &a.Note}
}

func fromPlayer(d PlayerOpt) Player {
	var p Player
	if d.Name != nil {
		p.Name = *d.Name
	}
	if d.Disconnected != nil {
		p.Disconnected = *d.Disconnected
	}
	if d.Note != nil {
		p.Note = *d.Note
	}
	return p
}

func diffRoom(a, b Room) *RoomOpt {
	host := opt.DiffScalar(a.Host, b.Host)
	players := opt.DiffSeq(a.Players, b.Players, diffPlayer, intoPlayer)
	board := opt.DiffArray(a.Board, b.Board)
	turn := opt.DiffScalar(a.Turn, b.Turn)
	winner := opt.DiffSlot(a.Winner, b.Winner, opt.DiffScalar[uint8], identityUint8)
	finished := opt.DiffScalar(a.Finished, b.Finished)
	if host == nil && players == nil && board == nil && turn == nil && winner == nil && finished == nil {
		return nil
	}
	return &RoomOpt{Host: host, Players: players, Board: board, Turn: turn, Winner: winner, Finished: finished}
}

func applyRoom(dst *Room, d RoomOpt) {
	opt.ApplyScalar(&dst.Host, d.Host)
	opt.ApplySeq(dst.Players, d.Players, applyPlayer, fromPlayer)
	opt.ApplyArray(dst.Board, d.Board)
	opt.ApplyScalar(&dst.Turn, d.Turn)
	opt.ApplySlot(&dst.Winner, d.Winner, applyUint8, identityUint8)
	opt.ApplyScalar(&dst.Finished, d.Finished)
}

func intoOptRoom(a Room) RoomOpt {
	return RoomOpt{
		Host:     &a.Host,
		Players:  opt.IntoOptSeq(a.Players, intoPlayer),
		Board:    opt.IntoOptArray(a.Board),
		Turn:     &a.Turn,
		Winner:   opt.IntoOptSlot(a.Winner, identityUint8),
		Finished: &a.Finished,
	}
}

func fromOptRoom(d RoomOpt) Room {
	var host, turn uint8
	var finished bool
	if d.Host != nil {
		host = *d.Host
	}
	if d.Turn != nil {
		turn = *d.Turn
	}
	if d.Finished != nil {
		finished = *d.Finished
	}
	return Room{
		Host:     host,
		Players:  opt.FromOptSeq(MaxPlayers, d.Players, fromPlayer),
		Board:    opt.FromOptArray(BoardSize, d.Board),
		Turn:     turn,
		Winner:   opt.FromOptSlot(d.Winner, identityUint8),
		Finished: finished,
	}
}

func writeName(w *wire.Writer, n protocol.Name) { w.WriteRaw(n[:]) }

func readName(r *wire.Reader) (protocol.Name, error) {
	var n protocol.Name
	raw, err := r.ReadRaw(protocol.NameLen)
	if err != nil {
		return n, err
	}
	copy(n[:], raw)
	return n, nil
}

func writePlayerOpt(w *wire.Writer, p PlayerOpt) {
	wire.WriteOption(w, p.Name, writeName)
	wire.WriteOption(w, p.Disconnected, func(w *wire.Writer, v bool) { w.WriteBool(v) })
	wire.WriteOption(w, p.Note, func(w *wire.Writer, v string) { w.WriteString(v) })
}

func readPlayerOpt(r *wire.Reader) (PlayerOpt, error) {
	name, err := wire.ReadOption(r, readName)
	if err != nil {
		return PlayerOpt{}, err
	}
	disc, err := wire.ReadOption(r, func(r *wire.Reader) (bool, error) { return r.ReadBool() })
	if err != nil {
		return PlayerOpt{}, err
	}
	note, err := wire.ReadOption(r, func(r *wire.Reader) (string, error) { return r.ReadString() })
	if err != nil {
		return PlayerOpt{}, err
	}
	return PlayerOpt{Name: name, Disconnected: disc, Note: note}, nil
}

func writeMark(w *wire.Writer, m Mark) { w.WriteU8(uint8(m)) }

func readMark(r *wire.Reader) (Mark, error) {
	v, err := r.ReadU8()
	return Mark(v), err
}

// WriteRoomOpt encodes a Room delta; it is the function cmd/roomgen wires
// into gameroom.Schema.WriteRoomOpt.
func WriteRoomOpt(w *wire.Writer, o RoomOpt) {
	wire.WriteOption(w, o.Host, func(w *wire.Writer, v uint8) { w.WriteU8(v) })
	if o.Players == nil {
		w.WriteBool(false)
	} else {
		w.WriteBool(true)
		for _, slot := range o.Players {
			wire.WriteOption(w, slot, func(w *wire.Writer, s opt.Slot[PlayerOpt]) {
				w.WriteBool(s.Present)
				if s.Present {
					writePlayerOpt(w, s.Value)
				}
			})
		}
	}
	if o.Board == nil {
		w.WriteBool(false)
	} else {
		w.WriteBool(true)
		for _, c := range o.Board {
			wire.WriteOption(w, c, writeMark)
		}
	}
	wire.WriteOption(w, o.Turn, func(w *wire.Writer, v uint8) { w.WriteU8(v) })
	wire.WriteOption(w, o.Winner, func(w *wire.Writer, s opt.Slot[uint8]) {
		w.WriteBool(s.Present)
		if s.Present {
			w.WriteU8(s.Value)
		}
	})
	wire.WriteOption(w, o.Finished, func(w *wire.Writer, v bool) { w.WriteBool(v) })
}

// ReadRoomOpt decodes a Room delta.
func ReadRoomOpt(r *wire.Reader) (RoomOpt, error) {
	var o RoomOpt

	host, err := wire.ReadOption(r, func(r *wire.Reader) (uint8, error) { return r.ReadU8() })
	if err != nil {
		return o, err
	}
	o.Host = host

	present, err := r.ReadBool()
	if err != nil {
		return o, err
	}
	if present {
		players := make([]*opt.Slot[PlayerOpt], MaxPlayers)
		for i := 0; i < MaxPlayers; i++ {
			slot, err := wire.ReadOption(r, func(r *wire.Reader) (opt.Slot[PlayerOpt], error) {
				present, err := r.ReadBool()
				if err != nil {
					return opt.Slot[PlayerOpt]{}, err
				}
				if !present {
					return opt.Slot[PlayerOpt]{Present: false}, nil
				}
				p, err := readPlayerOpt(r)
				return opt.Slot[PlayerOpt]{Present: true, Value: p}, err
			})
			if err != nil {
				return o, err
			}
			players[i] = slot
		}
		o.Players = players
	}

	present, err = r.ReadBool()
	if err != nil {
		return o, err
	}
	if present {
		board := make([]*Mark, BoardSize)
		for i := 0; i < BoardSize; i++ {
			c, err := wire.ReadOption(r, readMark)
			if err != nil {
				return o, err
			}
			board[i] = c
		}
		o.Board = board
	}

	turn, err := wire.ReadOption(r, func(r *wire.Reader) (uint8, error) { return r.ReadU8() })
	if err != nil {
		return o, err
	}
	o.Turn = turn

	winner, err := wire.ReadOption(r, func(r *wire.Reader) (opt.Slot[uint8], error) {
		present, err := r.ReadBool()
		if err != nil {
			return opt.Slot[uint8]{}, err
		}
		if !present {
			return opt.Slot[uint8]{Present: false}, nil
		}
		v, err := r.ReadU8()
		return opt.Slot[uint8]{Present: true, Value: v}, err
	})
	if err != nil {
		return o, err
	}
	o.Winner = winner

	finished, err := wire.ReadOption(r, func(r *wire.Reader) (bool, error) { return r.ReadBool() })
	if err != nil {
		return o, err
	}
	o.Finished = finished

	return o, nil
}

// WriteClientGameEvent encodes a move.
func WriteClientGameEvent(w *wire.Writer, e ClientGameEvent) {
	w.WriteU32(uint32(e.Kind))
	switch e.Kind {
	case ClientGamePlay:
		w.WriteU8(e.Cell)
	}
}

// ReadClientGameEvent decodes a move.
func ReadClientGameEvent(r *wire.Reader) (ClientGameEvent, error) {
	var e ClientGameEvent
	kind, err := r.ReadU32()
	if err != nil {
		return e, err
	}
	e.Kind = ClientGameEventKind(kind)
	switch e.Kind {
	case ClientGamePlay:
		cell, err := r.ReadU8()
		if err != nil {
			return e, err
		}
		e.Cell = cell
	}
	return e, nil
}

// WriteServerGameEvent encodes the (empty) server game event payload.
func WriteServerGameEvent(w *wire.Writer, g ServerGameEvent) {}

// ReadServerGameEvent decodes the (empty) server game event payload; used
// by clients decoding ServerMessage, not by gameroom.Schema itself.
func ReadServerGameEvent(r *wire.Reader) (ServerGameEvent, error) {
	return ServerGameEvent{}, nil
}

func playerAt(room *Room, i int) *Player       { return room.Players[i] }
func setPlayerAt(room *Room, i int, p *Player) { room.Players[i] = p }
func roomHost(room *Room) uint8                { return room.Host }
func setRoomHost(room *Room, h uint8)          { room.Host = h }
func newPlayer(name protocol.Name) Player      { return Player{Name: name} }
func playerName(p *Player) protocol.Name       { return p.Name }
func playerDisconnected(p *Player) bool        { return p.Disconnected }
func setPlayerDisconnected(p *Player, v bool)  { p.Disconnected = v }

// NewSchema builds the gameroom.Schema for tic-tac-toe, wiring the
// generated capability accessors and wire codec together with the
// hand-written ValidateEvent/OnEvent/Redact hooks from tictactoe.go.
func NewSchema() *gameroom.Schema[Room, RoomOpt, Player, ClientGameEvent, ServerGameEvent] {
	return &gameroom.Schema[Room, RoomOpt, Player, ClientGameEvent, ServerGameEvent]{
		MaxPlayers: MaxPlayers,
		NewRoom: func() Room {
			return Room{Players: make([]*Player, MaxPlayers), Board: make([]Mark, BoardSize)}
		},
		CloneRoom:             func(r Room) Room { return r.Clone() },
		DiffRoom:              diffRoom,
		ApplyRoom:             applyRoom,
		IntoOptRoom:           intoOptRoom,
		FromOptRoom:           fromOptRoom,
		WriteRoomOpt:          WriteRoomOpt,
		WriteGameEvent:        WriteServerGameEvent,
		ReadClientGameEvent:   ReadClientGameEvent,
		PlayerAt:              playerAt,
		SetPlayerAt:           setPlayerAt,
		Host:                  roomHost,
		SetHost:               setRoomHost,
		NewPlayer:             newPlayer,
		PlayerName:            playerName,
		PlayerDisconnected:    playerDisconnected,
		SetPlayerDisconnected: setPlayerDisconnected,
		ValidateEvent:         ValidateEvent,
		OnEvent:               OnEvent,
		Redact:                Redact,
	}
}
