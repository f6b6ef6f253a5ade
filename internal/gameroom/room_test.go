package gameroom

import (
	"testing"

	"github.com/tidegate/roomforge/internal/opt"
	"github.com/tidegate/roomforge/internal/protocol"
	"github.com/tidegate/roomforge/internal/util/clone"
	"github.com/tidegate/roomforge/internal/util/slogx"
	"github.com/tidegate/roomforge/internal/wire"
)

const testMaxPlayers = 4

type testPlayer struct {
	Name         protocol.Name
	Disconnected bool
}

func (p testPlayer) Clone() testPlayer { return p }

type testPlayerOpt struct {
	Name         *protocol.Name
	Disconnected *bool
}

type testRoom struct {
	Players []*testPlayer
	Host    uint8
}

func (r testRoom) Clone() testRoom {
	return testRoom{Players: clone.DeepSlice(r.Players), Host: r.Host}
}

type testRoomOpt struct {
	Players []*opt.Slot[testPlayerOpt]
	Host    *uint8
}

func diffTestPlayer(a, b testPlayer) *testPlayerOpt {
	name := opt.DiffScalar(a.Name, b.Name)
	disc := opt.DiffScalar(a.Disconnected, b.Disconnected)
	if name == nil && disc == nil {
		return nil
	}
	return &testPlayerOpt{Name: name, Disconnected: disc}
}

func applyTestPlayer(dst *testPlayer, d testPlayerOpt) {
	opt.ApplyScalar(&dst.Name, d.Name)
	opt.ApplyScalar(&dst.Disconnected, d.Disconnected)
}

func intoTestPlayer(a testPlayer) testPlayerOpt {
	return testPlayerOpt{Name: &a.Name, Disconnected: &a.Disconnected}
}

func fromTestPlayer(d testPlayerOpt) testPlayer {
	var p testPlayer
	if d.Name != nil {
		p.Name = *d.Name
	}
	if d.Disconnected != nil {
		p.Disconnected = *d.Disconnected
	}
	return p
}

func diffTestRoom(a, b testRoom) *testRoomOpt {
	players := opt.DiffSeq(a.Players, b.Players, diffTestPlayer, intoTestPlayer)
	host := opt.DiffScalar(a.Host, b.Host)
	if players == nil && host == nil {
		return nil
	}
	return &testRoomOpt{Players: players, Host: host}
}

func applyTestRoom(dst *testRoom, d testRoomOpt) {
	opt.ApplySeq(dst.Players, d.Players, applyTestPlayer, fromTestPlayer)
	opt.ApplyScalar(&dst.Host, d.Host)
}

func intoOptTestRoom(a testRoom) testRoomOpt {
	return testRoomOpt{Players: opt.IntoOptSeq(a.Players, intoTestPlayer), Host: &a.Host}
}

func fromOptTestRoom(d testRoomOpt) testRoom {
	var host uint8
	if d.Host != nil {
		host = *d.Host
	}
	return testRoom{Players: opt.FromOptSeq(testMaxPlayers, d.Players, fromTestPlayer), Host: host}
}

func writeTestPlayerOpt(w *wire.Writer, p testPlayerOpt) {
	wire.WriteOption(w, p.Name, func(w *wire.Writer, n protocol.Name) { w.WriteRaw(n[:]) })
	wire.WriteOption(w, p.Disconnected, func(w *wire.Writer, v bool) { w.WriteBool(v) })
}

func readTestPlayerOpt(r *wire.Reader) (testPlayerOpt, error) {
	name, err := wire.ReadOption(r, func(r *wire.Reader) (protocol.Name, error) {
		var n protocol.Name
		raw, err := r.ReadRaw(protocol.NameLen)
		if err != nil {
			return n, err
		}
		copy(n[:], raw)
		return n, nil
	})
	if err != nil {
		return testPlayerOpt{}, err
	}
	disc, err := wire.ReadOption(r, func(r *wire.Reader) (bool, error) { return r.ReadBool() })
	if err != nil {
		return testPlayerOpt{}, err
	}
	return testPlayerOpt{Name: name, Disconnected: disc}, nil
}

func writeTestRoomOpt(w *wire.Writer, o testRoomOpt) {
	if o.Players == nil {
		w.WriteBool(false)
	} else {
		w.WriteBool(true)
		for _, slot := range o.Players {
			wire.WriteOption(w, slot, func(w *wire.Writer, s opt.Slot[testPlayerOpt]) {
				w.WriteBool(s.Present)
				if s.Present {
					writeTestPlayerOpt(w, s.Value)
				}
			})
		}
	}
	wire.WriteOption(w, o.Host, func(w *wire.Writer, v uint8) { w.WriteU8(v) })
}

func readTestRoomOpt(r *wire.Reader) (testRoomOpt, error) {
	present, err := r.ReadBool()
	if err != nil {
		return testRoomOpt{}, err
	}
	var players []*opt.Slot[testPlayerOpt]
	if present {
		players = make([]*opt.Slot[testPlayerOpt], testMaxPlayers)
		for i := 0; i < testMaxPlayers; i++ {
			slot, err := wire.ReadOption(r, func(r *wire.Reader) (opt.Slot[testPlayerOpt], error) {
				present, err := r.ReadBool()
				if err != nil {
					return opt.Slot[testPlayerOpt]{}, err
				}
				if !present {
					return opt.Slot[testPlayerOpt]{Present: false}, nil
				}
				p, err := readTestPlayerOpt(r)
				return opt.Slot[testPlayerOpt]{Present: true, Value: p}, err
			})
			if err != nil {
				return testRoomOpt{}, err
			}
			players[i] = slot
		}
	}
	host, err := wire.ReadOption(r, func(r *wire.Reader) (uint8, error) { return r.ReadU8() })
	if err != nil {
		return testRoomOpt{}, err
	}
	return testRoomOpt{Players: players, Host: host}, nil
}

func newTestSchema() *Schema[testRoom, testRoomOpt, testPlayer, struct{}, struct{}] {
	return &Schema[testRoom, testRoomOpt, testPlayer, struct{}, struct{}]{
		MaxPlayers:          testMaxPlayers,
		NewRoom:             func() testRoom { return testRoom{Players: make([]*testPlayer, testMaxPlayers)} },
		CloneRoom:           func(r testRoom) testRoom { return r.Clone() },
		DiffRoom:            diffTestRoom,
		ApplyRoom:           applyTestRoom,
		IntoOptRoom:         intoOptTestRoom,
		FromOptRoom:         fromOptTestRoom,
		WriteRoomOpt:        writeTestRoomOpt,
		WriteGameEvent:      func(w *wire.Writer, g struct{}) {},
		ReadClientGameEvent: func(r *wire.Reader) (struct{}, error) { return struct{}{}, nil },
		PlayerAt:            func(room *testRoom, i int) *testPlayer { return room.Players[i] },
		SetPlayerAt:         func(room *testRoom, i int, p *testPlayer) { room.Players[i] = p },
		Host:                func(room *testRoom) uint8 { return room.Host },
		SetHost:             func(room *testRoom, h uint8) { room.Host = h },
		NewPlayer:           func(name protocol.Name) testPlayer { return testPlayer{Name: name} },
		PlayerName:          func(p *testPlayer) protocol.Name { return p.Name },
		PlayerDisconnected:  func(p *testPlayer) bool { return p.Disconnected },
		SetPlayerDisconnected: func(p *testPlayer, v bool) {
			p.Disconnected = v
		},
		ValidateEvent: func(room *testRoom, i int, e protocol.ClientEvent[struct{}]) bool { return true },
		OnEvent: func(ctx *RoomCtx[testRoom, testRoomOpt, testPlayer, struct{}, struct{}], i int, e protocol.ClientEvent[struct{}]) {
			ctx.SetHost(uint8(i))
			ctx.BroadcastAll(protocol.ServerEventHostChanged, struct{}{})
		},
	}
}

func equalTestRoom(t *testing.T, a, b testRoom) bool {
	t.Helper()
	if a.Host != b.Host || len(a.Players) != len(b.Players) {
		return false
	}
	for i := range a.Players {
		switch {
		case a.Players[i] == nil && b.Players[i] == nil:
		case a.Players[i] == nil || b.Players[i] == nil:
			return false
		default:
			if *a.Players[i] != *b.Players[i] {
				return false
			}
		}
	}
	return true
}

func drain(o *Outbox) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := len(o.items)
	o.items = nil
	return n
}

// TestJoinSendsRoomJoinedSnapshotOnly checks that a sole joiner gets
// exactly one frame, a RoomJoined snapshot.
func TestJoinSendsRoomJoinedSnapshotOnly(t *testing.T) {
	r := NewRoom(newTestSchema(), slogx.DiscardLogger())
	idx, outbox, err := r.Join("A", protocol.NameFrom("alice"))
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if idx != 0 {
		t.Fatalf("expected slot 0, got %d", idx)
	}
	if n := drain(outbox); n != 1 {
		t.Fatalf("expected exactly 1 frame to the sole joiner, got %d", n)
	}
	if !equalTestRoom(t, r.state, r.prevState) {
		t.Fatalf("prevState != state after broadcast")
	}
}

// TestSecondJoinNotifiesFirstWithoutResendingOwnSlot checks that an
// existing occupant gets a PlayerJoined frame, not its own snapshot again.
func TestSecondJoinNotifiesFirstWithoutResendingOwnSlot(t *testing.T) {
	r := NewRoom(newTestSchema(), slogx.DiscardLogger())
	_, outboxA, err := r.Join("A", protocol.NameFrom("alice"))
	if err != nil {
		t.Fatalf("join A: %v", err)
	}
	drain(outboxA)

	_, outboxB, err := r.Join("B", protocol.NameFrom("bob"))
	if err != nil {
		t.Fatalf("join B: %v", err)
	}

	if n := drain(outboxA); n != 1 {
		t.Fatalf("A should receive exactly one PlayerJoined frame, got %d", n)
	}
	if n := drain(outboxB); n != 1 {
		t.Fatalf("B should receive exactly one RoomJoined frame, got %d", n)
	}
	if !equalTestRoom(t, r.state, r.prevState) {
		t.Fatalf("prevState != state after broadcast")
	}
}

// TestDisconnectThenReconnectNotifiesOthers checks that a reconnecting
// client keeps its slot and never gets its own reconnect broadcast.
func TestDisconnectThenReconnectNotifiesOthers(t *testing.T) {
	r := NewRoom(newTestSchema(), slogx.DiscardLogger())
	_, outboxA, _ := r.Join("A", protocol.NameFrom("alice"))
	_, outboxB, _ := r.Join("B", protocol.NameFrom("bob"))
	drain(outboxA)
	drain(outboxB)

	if ok := r.Disconnect("A"); !ok {
		t.Fatalf("Disconnect should report true the first time")
	}
	if ok := r.Disconnect("A"); ok {
		t.Fatalf("Disconnect should be a no-op once already disconnected")
	}
	if n := drain(outboxB); n != 1 {
		t.Fatalf("B should see exactly one PlayerDisconnected frame, got %d", n)
	}

	idx, newOutboxA, err := r.Reconnect("A")
	if err != nil {
		t.Fatalf("Reconnect: %v", err)
	}
	if idx != 0 {
		t.Fatalf("expected A to keep slot 0, got %d", idx)
	}
	if n := drain(outboxB); n != 1 {
		t.Fatalf("B should see exactly one PlayerReconnected frame, got %d", n)
	}
	if n := drain(newOutboxA); n != 0 {
		t.Fatalf("reconnecting client gets no frame of its own, got %d", n)
	}
	if p := r.state.Players[0]; p == nil || p.Disconnected {
		t.Fatalf("player 0 should be reconnected, got %+v", p)
	}
}

// TestValidatorRejectionProducesNoBroadcast checks that a rejected event
// neither mutates state nor broadcasts anything.
func TestValidatorRejectionProducesNoBroadcast(t *testing.T) {
	schema := newTestSchema()
	schema.ValidateEvent = func(room *testRoom, i int, e protocol.ClientEvent[struct{}]) bool { return false }
	r := NewRoom(schema, slogx.DiscardLogger())
	_, outboxA, _ := r.Join("A", protocol.NameFrom("alice"))
	drain(outboxA)

	before := r.state
	r.HandleEvent(0, protocol.ClientEvent[struct{}]{Kind: protocol.ClientEventGame})

	if n := drain(outboxA); n != 0 {
		t.Fatalf("rejected event must not broadcast, got %d frames", n)
	}
	if !equalTestRoom(t, before, r.state) {
		t.Fatalf("rejected event must not mutate state")
	}
	if !equalTestRoom(t, r.state, r.prevState) {
		t.Fatalf("prevState must still equal state")
	}
}

// TestHostMutationBroadcastsToAll checks that a host reassignment
// broadcasts to every occupied slot, including the new host.
func TestHostMutationBroadcastsToAll(t *testing.T) {
	r := NewRoom(newTestSchema(), slogx.DiscardLogger())
	_, outboxA, _ := r.Join("A", protocol.NameFrom("alice"))
	_, outboxB, _ := r.Join("B", protocol.NameFrom("bob"))
	drain(outboxA)
	drain(outboxB)

	r.HandleEvent(1, protocol.ClientEvent[struct{}]{Kind: protocol.ClientEventGame})

	if r.state.Host != 1 {
		t.Fatalf("host = %d, want 1", r.state.Host)
	}
	if n := drain(outboxA); n != 1 {
		t.Fatalf("A should get exactly one HostChanged frame, got %d", n)
	}
	if n := drain(outboxB); n != 1 {
		t.Fatalf("B should get exactly one HostChanged frame, got %d", n)
	}
	if !equalTestRoom(t, r.state, r.prevState) {
		t.Fatalf("prevState != state after broadcast")
	}
}

// TestEmptyReflectsEvictionCondition checks Room.Empty() across the join/
// disconnect/leave sequence the registry drives eviction from.
func TestEmptyReflectsEvictionCondition(t *testing.T) {
	r := NewRoom(newTestSchema(), slogx.DiscardLogger())
	if !r.Empty() {
		t.Fatalf("a room with no joins should read as empty")
	}

	_, outboxA, _ := r.Join("A", protocol.NameFrom("alice"))
	drain(outboxA)
	if r.Empty() {
		t.Fatalf("a room with one connected player must not be empty")
	}

	r.Disconnect("A")
	if !r.Empty() {
		t.Fatalf("a room whose only player is disconnected should be empty")
	}

	_, outboxB, _ := r.Join("B", protocol.NameFrom("bob"))
	drain(outboxA)
	drain(outboxB)
	if r.Empty() {
		t.Fatalf("room has a connected player (B), must not be empty")
	}

	r.Leave(1)
	if !r.Empty() {
		t.Fatalf("slot 0 disconnected and slot 1 absent: room should now read as empty")
	}
}

// TestLeaveClearsSlotAndBroadcastsToRemaining exercises the voluntary
// leave path distinctly from disconnect.
func TestLeaveClearsSlotAndBroadcastsToRemaining(t *testing.T) {
	r := NewRoom(newTestSchema(), slogx.DiscardLogger())
	_, outboxA, _ := r.Join("A", protocol.NameFrom("alice"))
	_, outboxB, _ := r.Join("B", protocol.NameFrom("bob"))
	drain(outboxA)
	drain(outboxB)

	r.Leave(0)

	if r.state.Players[0] != nil {
		t.Fatalf("slot 0 should be cleared after Leave")
	}
	if n := drain(outboxB); n != 1 {
		t.Fatalf("B should get exactly one PlayerLeft frame, got %d", n)
	}
	if idx := r.IndexOf("A"); idx != -1 {
		t.Fatalf("A should hold no slot after leaving, got %d", idx)
	}
}

func TestJoinFailsWhenRoomFull(t *testing.T) {
	r := NewRoom(newTestSchema(), slogx.DiscardLogger())
	for i := 0; i < testMaxPlayers; i++ {
		if _, _, err := r.Join(string(rune('A'+i)), protocol.NameFrom("p")); err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
	}
	if _, _, err := r.Join("overflow", protocol.NameFrom("p")); err == nil {
		t.Fatalf("expected room-full error")
	}
}
