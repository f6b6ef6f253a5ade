package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tidegate/roomforge/internal/demo/tictactoe"
	"github.com/tidegate/roomforge/internal/gameroom"
	"github.com/tidegate/roomforge/internal/registry"
	"github.com/tidegate/roomforge/internal/roomerr"
)

// roomStatus is one entry of the GET /rooms listing: a read-only
// operational view, not part of the game protocol, so it reports the
// current state as plain JSON rather than the wire delta codec.
type roomStatus struct {
	Code     string `json:"code"`
	Players  int    `json:"players"`
	Turn     uint8  `json:"turn"`
	Finished bool   `json:"finished"`
}

func roomsHandler(reg *registry.Registry[tictactoe.Room, tictactoe.RoomOpt, tictactoe.Player, tictactoe.ClientGameEvent, tictactoe.ServerGameEvent]) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		codes := reg.Codes()
		out := make([]roomStatus, 0, len(codes))
		for _, code := range codes {
			room, ok := reg.Room(code)
			if !ok {
				continue
			}
			out = append(out, statusOf(code, room))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

// roomHandler serves GET /rooms/{code}, a single-room counterpart to
// roomsHandler for callers that already know the code they care about.
func roomHandler(reg *registry.Registry[tictactoe.Room, tictactoe.RoomOpt, tictactoe.Player, tictactoe.ClientGameEvent, tictactoe.ServerGameEvent]) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		code := strings.TrimPrefix(req.URL.Path, "/rooms/")
		room, ok := reg.Room(code)
		if !ok {
			_ = roomerr.WriteHTTPError(roomerr.NewHTTPError(http.StatusNotFound, "no such room"), w)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statusOf(code, room))
	}
}

func statusOf(code string, room *gameroom.Room[tictactoe.Room, tictactoe.RoomOpt, tictactoe.Player, tictactoe.ClientGameEvent, tictactoe.ServerGameEvent]) roomStatus {
	state := room.State()
	players := 0
	for _, p := range state.Players {
		if p != nil {
			players++
		}
	}
	return roomStatus{
		Code:     code,
		Players:  players,
		Turn:     state.Turn,
		Finished: state.Finished,
	}
}
