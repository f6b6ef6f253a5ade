package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/NYTimes/gziphandler"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tidegate/roomforge/internal/demo/tictactoe"
	"github.com/tidegate/roomforge/internal/registry"
	"github.com/tidegate/roomforge/internal/util/signal"
	"github.com/tidegate/roomforge/internal/util/slogx"
	"github.com/tidegate/roomforge/internal/util/style"
	"github.com/tidegate/roomforge/internal/util/websockutil"
	"github.com/tidegate/roomforge/internal/wsroom"
)

var serverCmd = &cobra.Command{
	Use:   "roomforge-server",
	Args:  cobra.ExactArgs(0),
	Short: "Run the room server demo (tic-tac-toe schema over /ws)",
}

func init() {
	p := serverCmd.Flags()
	optsPath := p.StringP("options", "o", "", "options file")
	if err := serverCmd.MarkFlagRequired("options"); err != nil {
		panic(err)
	}

	serverCmd.RunE = func(cmd *cobra.Command, _args []string) error {
		rawOpts, err := os.ReadFile(*optsPath)
		if err != nil {
			return fmt.Errorf("read options: %w", err)
		}
		var opts Options
		if err := toml.Unmarshal(rawOpts, &opts); err != nil {
			return fmt.Errorf("unmarshal options: %w", err)
		}
		opts.FillDefaults()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		log := style.Logger(slog.LevelInfo)

		schema := tictactoe.NewSchema()
		reg := registry.New(schema, log)
		factory := websockutil.NewSessionFactory(opts.Session)
		handler := wsroom.NewHandler(reg, schema, factory, opts.Room, log)

		mux := http.NewServeMux()
		mux.Handle("/ws", handler)
		mux.Handle("/rooms", withRequestLog(log, gziphandler.GzipHandler(roomsHandler(reg))))
		mux.Handle("/rooms/", withRequestLog(log, gziphandler.GzipHandler(roomHandler(reg))))

		server := &http.Server{
			Addr:    opts.Addr,
			Handler: mux,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			log.Info("starting http server", slog.String("addr", opts.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			ticker := time.NewTicker(opts.StatusLogFreq)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					log.Info("room status", slog.Int("rooms", reg.Len()))
				}
			}
		})
		g.Go(func() error {
			// Runs once gctx is cancelled, either by ctx (Interrupt) or by
			// the listener goroutine's own error: either way, shutting the
			// server down makes ListenAndServe return so the first
			// goroutine above can exit and g.Wait() can unblock.
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			log.Info("stopping server")
			return server.Shutdown(shutdownCtx)
		})

		if err := g.Wait(); err != nil {
			log.Error("fatal error", slogx.Err(err))
		}
		return nil
	}
}

func main() {
	if err := serverCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
