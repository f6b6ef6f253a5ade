// Package tictactoe is a worked example of a host-declared schema: a
// player record and a room record with the fields cmd/roomgen looks for
// tagged (`roomforge:"name"`, `roomforge:"disconnected"`, `roomforge:"private"`
// on the player side; `roomforge:"host"`, `roomforge:"players"` on the room
// side), plus the hand-written game logic that never touches the wire
// format directly. tictactoe_gen.go holds the companion code for these
// two types in the shape cmd/roomgen derives, written by hand rather than
// regenerated; it also carries the client and server game-event codecs,
// which roomgen does not emit.
package tictactoe

import (
	"github.com/tidegate/roomforge/internal/gameroom"
	"github.com/tidegate/roomforge/internal/opt"
	"github.com/tidegate/roomforge/internal/protocol"
)

const MaxPlayers = 2

// Mark is a single board cell's contents.
type Mark uint8

const (
	MarkEmpty Mark = iota
	MarkX
	MarkO
)

// Player is one seat at the table. Note is a private scratch field: it is
// visible to its own owner but redacted out of every other recipient's
// delta, exercising the privacy hook.
type Player struct {
	Name         protocol.Name `roomforge:"name"`
	Disconnected bool          `roomforge:"disconnected"`
	Note         string        `roomforge:"private"`
}

// Room is the authoritative tic-tac-toe game state. Board is a fixed
// 9-cell array of always-present scalars (roomgen's "array" kind, as
// opposed to Players' bank of nullable slots); Winner is a single
// nullable scalar (roomgen's "nullable" kind).
type Room struct {
	Host     uint8     `roomforge:"host"`
	Players  []*Player `roomforge:"players"`
	Board    []Mark    `roomforge:"array:9,wire=u8"`
	Turn     uint8
	Winner   *uint8 `roomforge:"nullable"`
	Finished bool
}

// ClientGameEventKind tags the client-supplied game event variants.
type ClientGameEventKind uint32

const (
	ClientGamePlay ClientGameEventKind = iota
)

// ClientGameEvent is the single move a player can send: claim cell Cell.
type ClientGameEvent struct {
	Kind ClientGameEventKind
	Cell uint8
}

// ServerGameEvent carries no payload of its own: every tic-tac-toe state
// change (a mark placed, a win, a draw) is fully expressed as a room
// delta, so the schema never needs a bespoke server-pushed event.
type ServerGameEvent struct{}

func line(b []Mark, i, j, k int) (Mark, bool) {
	if b[i] == MarkEmpty || b[i] != b[j] || b[j] != b[k] {
		return MarkEmpty, false
	}
	return b[i], true
}

var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

func checkWinner(b []Mark) (Mark, bool) {
	for _, l := range winLines {
		if m, ok := line(b, l[0], l[1], l[2]); ok {
			return m, true
		}
	}
	return MarkEmpty, false
}

func boardFull(b []Mark) bool {
	for _, m := range b {
		if m == MarkEmpty {
			return false
		}
	}
	return true
}

// markFor reports the mark a player at slot i plays with: the room's two
// occupied slots are assigned X and O in join order.
func markFor(slot uint8) Mark {
	if slot == 0 {
		return MarkX
	}
	return MarkO
}

// ValidateEvent rejects moves out of turn, on a finished game, or on an
// occupied cell. Non-game events (join/leave bookkeeping already handled
// by the room runtime) are always allowed through.
func ValidateEvent(room *Room, playerIndex int, e protocol.ClientEvent[ClientGameEvent]) bool {
	if e.Kind != protocol.ClientEventGame {
		return true
	}
	if room.Finished {
		return false
	}
	if int(room.Turn) != playerIndex {
		return false
	}
	cell := e.Game.Cell
	if int(cell) >= len(room.Board) {
		return false
	}
	return room.Board[cell] == MarkEmpty
}

// OnEvent places the mark, checks for a win or draw, and broadcasts the
// resulting room delta to every seat. Tic-tac-toe never needs a bespoke
// ServerGameEvent: the board/turn/winner/finished fields already carry the
// whole story through the ordinary room delta.
func OnEvent(ctx *gameroom.RoomCtx[Room, RoomOpt, Player, ClientGameEvent, ServerGameEvent], playerIndex int, e protocol.ClientEvent[ClientGameEvent]) {
	if e.Kind != protocol.ClientEventGame {
		return
	}
	room := ctx.State()
	room.Board[e.Game.Cell] = markFor(uint8(playerIndex))

	if winner, ok := checkWinner(room.Board); ok {
		room.Finished = true
		w := uint8(playerIndex)
		_ = winner
		room.Winner = &w
	} else if boardFull(room.Board) {
		room.Finished = true
	} else {
		room.Turn = 1 - room.Turn
	}

	ctx.BroadcastAll(protocol.ServerEventGame, ServerGameEvent{})
}

// Redact returns a copy of o with every player's Note cleared except the
// recipient's own. It never mutates o or anything o.Players' entries
// point to: o is the same delta value handed to every recipient of one
// broadcast, so redaction has to build new state rather than edit shared
// state in place.
func Redact(o RoomOpt, recipientIndex int) RoomOpt {
	needsWork := false
	for i, slot := range o.Players {
		if i != recipientIndex && slot != nil && slot.Present && slot.Value.Note != nil {
			needsWork = true
			break
		}
	}
	if !needsWork {
		return o
	}

	players := make([]*opt.Slot[PlayerOpt], len(o.Players))
	copy(players, o.Players)
	for i, slot := range players {
		if i == recipientIndex || slot == nil || !slot.Present || slot.Value.Note == nil {
			continue
		}
		v := slot.Value
		v.Note = nil
		players[i] = &opt.Slot[PlayerOpt]{Present: true, Value: v}
	}
	o.Players = players
	return o
}
