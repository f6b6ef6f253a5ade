package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tidegate/roomforge/internal/demo/tictactoe"
	"github.com/tidegate/roomforge/internal/protocol"
	"github.com/tidegate/roomforge/internal/util/backoff"
	"github.com/tidegate/roomforge/internal/util/human"
	"github.com/tidegate/roomforge/internal/util/sliceutil"
	"github.com/tidegate/roomforge/internal/util/slogx"
	"github.com/tidegate/roomforge/internal/wire"
)

// playerNames renders a room's player bank as display names, skipping empty
// seats.
func playerNames(players []*tictactoe.Player) []string {
	names := sliceutil.Map(players, func(p *tictactoe.Player) string {
		if p == nil {
			return ""
		}
		return p.Name.String()
	})
	out := names[:0]
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

func eventLabel(kind protocol.ServerEventKind) string {
	switch kind {
	case protocol.ServerEventRoomJoined:
		return "room joined"
	case protocol.ServerEventPlayerJoined:
		return "player joined"
	case protocol.ServerEventPlayerLeft:
		return "player left"
	case protocol.ServerEventPlayerDisconnected:
		return "player disconnected"
	case protocol.ServerEventPlayerReconnected:
		return "player reconnected"
	case protocol.ServerEventHostChanged:
		return "host changed"
	case protocol.ServerEventGame:
		return "game update"
	default:
		return "unknown event"
	}
}

// run dials the room server, joins code as name, and prints the board as
// updates arrive until ctx is cancelled or the connection is dropped for
// good: an outer retry loop around a single connection's lifetime,
// backing off between attempts.
func run(ctx context.Context, log *slog.Logger, o Options) error {
	id := uuid.NewString()
	bo, err := backoff.New(o.Backoff)
	if err != nil {
		return fmt.Errorf("create backoff: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := session(ctx, log, o, id); err != nil {
			log.Warn("session ended", slogx.Err(err))
			if rerr := bo.Retry(ctx, err); rerr != nil {
				return fmt.Errorf("give up reconnecting: %w", rerr)
			}
			continue
		}
		return nil
	}
}

// session runs exactly one websocket connection's lifetime: dial, join,
// receive until the socket closes or ctx is cancelled.
func session(ctx context.Context, log *slog.Logger, o Options, id string) error {
	u := url.URL{Scheme: "ws", Host: o.Addr, Path: "/ws", RawQuery: fmt.Sprintf("id=%s&code=%s", id, o.Room)}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	w := wire.NewWriter(32)
	protocol.EncodeClientEvent(w, protocol.ClientEvent[tictactoe.ClientGameEvent]{
		Kind: protocol.ClientEventJoinRoom,
		Name: protocol.NameFrom(o.Name),
	}, tictactoe.WriteClientGameEvent)
	if err := conn.WriteMessage(websocket.BinaryMessage, w.Bytes()); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	sessionCtx, sessionCancel := context.WithCancel(ctx)
	defer sessionCancel()
	done := make(chan struct{})
	go func() {
		<-sessionCtx.Done()
		_ = conn.Close()
		close(done)
	}()

	schema := tictactoe.NewSchema()
	var room tictactoe.Room
	lastEvent := time.Now()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
				return nil
			default:
			}
			return fmt.Errorf("read: %w", err)
		}

		r := wire.NewReader(data)
		msg, err := protocol.DecodeServerMessage(r, tictactoe.ReadServerGameEvent, tictactoe.ReadRoomOpt)
		if err != nil {
			log.Warn("malformed server message", slogx.Err(err))
			continue
		}

		if msg.Room != nil {
			if msg.Event.Kind == protocol.ServerEventRoomJoined {
				room = schema.FromOptRoom(*msg.Room)
			} else {
				schema.ApplyRoom(&room, *msg.Room)
			}
		}

		now := time.Now()
		log.Info(eventLabel(msg.Event.Kind), slog.String("since_last", human.TimeFromBase(lastEvent, now)))
		lastEvent = now
		if msg.Room != nil {
			fmt.Printf("players: %s\n", strings.Join(playerNames(room.Players), ", "))
			fmt.Print(renderBoard(room.Board))
		}
	}
}
