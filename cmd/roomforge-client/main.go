// Command roomforge-client is a terminal demo client for the tic-tac-toe
// schema: it joins a room over /ws, applies every incoming delta to a
// local copy of the room state, and prints the board as it changes. It
// exists to exercise the wire protocol end to end, not as a real UI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tidegate/roomforge/internal/util/signal"
	"github.com/tidegate/roomforge/internal/util/slogx"
	"github.com/tidegate/roomforge/internal/util/style"
)

var clientCmd = &cobra.Command{
	Use:   "roomforge-client",
	Args:  cobra.ExactArgs(0),
	Short: "Join a room server demo as a tic-tac-toe player",
}

func init() {
	p := clientCmd.Flags()
	addr := p.StringP("addr", "a", "127.0.0.1:8080", "room server address (host:port)")
	room := p.StringP("room", "r", "", "room code, 6 characters (suggested if empty)")
	name := p.StringP("name", "n", "guest", "player display name")

	clientCmd.RunE = func(cmd *cobra.Command, _args []string) error {
		code := *room
		if code == "" {
			code = suggestRoomCode()
			fmt.Fprintf(cmd.OutOrStdout(), "no --room given, suggesting %s\n", code)
		}
		if len(code) != roomCodeLen {
			return fmt.Errorf("room code must be exactly %d characters, got %q", roomCodeLen, code)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		log := style.Logger(slog.LevelInfo)
		color := colorFor(*name)
		log.Info("starting client",
			slog.String("room", code),
			slog.String("name", *name),
			slog.String("color", color.Hex()),
		)

		if err := run(ctx, log, Options{Addr: *addr, Room: code, Name: *name}); err != nil {
			select {
			case <-ctx.Done():
			default:
				log.Error("client stopped", slogx.Err(err))
			}
		}
		return nil
	}
}

func main() {
	if err := clientCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
