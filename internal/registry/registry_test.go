package registry

import (
	"testing"

	"github.com/tidegate/roomforge/internal/gameroom"
	"github.com/tidegate/roomforge/internal/protocol"
	"github.com/tidegate/roomforge/internal/util/slogx"
	"github.com/tidegate/roomforge/internal/wire"
)

type rPlayer struct {
	Name         protocol.Name
	Disconnected bool
}

type rRoom struct {
	Players []*rPlayer
	Host    uint8
}

type rRoomOpt struct{}

func testSchema() *gameroom.Schema[rRoom, rRoomOpt, rPlayer, struct{}, struct{}] {
	const max = 4
	return &gameroom.Schema[rRoom, rRoomOpt, rPlayer, struct{}, struct{}]{
		MaxPlayers:          max,
		NewRoom:             func() rRoom { return rRoom{Players: make([]*rPlayer, max)} },
		CloneRoom:           func(r rRoom) rRoom { return rRoom{Players: append([]*rPlayer(nil), r.Players...), Host: r.Host} },
		DiffRoom:            func(a, b rRoom) *rRoomOpt { return nil },
		ApplyRoom:           func(dst *rRoom, d rRoomOpt) {},
		IntoOptRoom:         func(a rRoom) rRoomOpt { return rRoomOpt{} },
		FromOptRoom:         func(d rRoomOpt) rRoom { return rRoom{Players: make([]*rPlayer, max)} },
		WriteRoomOpt:        func(w *wire.Writer, o rRoomOpt) {},
		WriteGameEvent:      func(w *wire.Writer, g struct{}) {},
		ReadClientGameEvent: func(r *wire.Reader) (struct{}, error) { return struct{}{}, nil },
		PlayerAt:            func(room *rRoom, i int) *rPlayer { return room.Players[i] },
		SetPlayerAt:         func(room *rRoom, i int, p *rPlayer) { room.Players[i] = p },
		Host:                func(room *rRoom) uint8 { return room.Host },
		SetHost:             func(room *rRoom, h uint8) { room.Host = h },
		NewPlayer:           func(name protocol.Name) rPlayer { return rPlayer{Name: name} },
		PlayerName:          func(p *rPlayer) protocol.Name { return p.Name },
		PlayerDisconnected:  func(p *rPlayer) bool { return p.Disconnected },
		SetPlayerDisconnected: func(p *rPlayer, v bool) {
			p.Disconnected = v
		},
		ValidateEvent: func(room *rRoom, i int, e protocol.ClientEvent[struct{}]) bool { return true },
		OnEvent: func(ctx *gameroom.RoomCtx[rRoom, rRoomOpt, rPlayer, struct{}, struct{}], i int, e protocol.ClientEvent[struct{}]) {
		},
	}
}

func TestGetOrCreateIsLazyAndIdempotent(t *testing.T) {
	reg := New(testSchema(), slogx.DiscardLogger())
	if reg.Len() != 0 {
		t.Fatalf("new registry should start empty")
	}
	r1 := reg.GetOrCreate("ABCDEF")
	r2 := reg.GetOrCreate("ABCDEF")
	if r1 != r2 {
		t.Fatalf("GetOrCreate must return the same room for the same code")
	}
	if reg.Len() != 1 {
		t.Fatalf("expected exactly one room, got %d", reg.Len())
	}
}

// TestEvictionHappensExactlyWhenRoomEmpties checks that the registry
// removes a room exactly when, after a disconnect, every slot is absent
// or belongs to a disconnected player.
func TestEvictionHappensExactlyWhenRoomEmpties(t *testing.T) {
	reg := New(testSchema(), slogx.DiscardLogger())
	room := reg.GetOrCreate("ABCDEF")

	if _, _, err := room.Join("A", protocol.NameFrom("alice")); err != nil {
		t.Fatalf("join A: %v", err)
	}
	if _, _, err := room.Join("B", protocol.NameFrom("bob")); err != nil {
		t.Fatalf("join B: %v", err)
	}

	room.Disconnect("A")
	reg.AfterDisconnect("ABCDEF")
	if reg.Len() != 1 {
		t.Fatalf("room must survive while B is still connected")
	}

	room.Disconnect("B")
	reg.AfterDisconnect("ABCDEF")
	if reg.Len() != 0 {
		t.Fatalf("room must be evicted once every slot is absent or disconnected")
	}

	if _, ok := reg.Room("ABCDEF"); ok {
		t.Fatalf("evicted code must no longer be looked up")
	}
}

func TestAfterDisconnectOnUnknownCodeIsNoop(t *testing.T) {
	reg := New(testSchema(), slogx.DiscardLogger())
	reg.AfterDisconnect("NOPE00")
	if reg.Len() != 0 {
		t.Fatalf("unknown code must not create a room")
	}
}

func TestCodesSortedSnapshot(t *testing.T) {
	reg := New(testSchema(), slogx.DiscardLogger())
	reg.GetOrCreate("ZZZZZZ")
	reg.GetOrCreate("AAAAAA")
	codes := reg.Codes()
	if len(codes) != 2 || codes[0] != "AAAAAA" || codes[1] != "ZZZZZZ" {
		t.Fatalf("expected sorted codes, got %v", codes)
	}
}
