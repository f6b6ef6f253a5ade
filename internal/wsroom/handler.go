// Package wsroom implements the connection state machine: the upgrade
// handler that drives a single socket through Handshaking, Active and
// Closing. It is the one package that talks to both the transport
// (websockutil.Session) and the room runtime (gameroom.Room), and owns the
// cancellation plumbing that ties a connection's send and receive tasks
// together.
package wsroom

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/gorilla/websocket"

	"github.com/tidegate/roomforge/internal/gameroom"
	"github.com/tidegate/roomforge/internal/protocol"
	"github.com/tidegate/roomforge/internal/registry"
	"github.com/tidegate/roomforge/internal/roomerr"
	"github.com/tidegate/roomforge/internal/util/slogx"
	"github.com/tidegate/roomforge/internal/util/websockutil"
	"github.com/tidegate/roomforge/internal/wire"
)

const (
	clientIDLen = 36
	roomCodeLen = 6
)

// errTaskDone is returned by the active-phase tasks on ordinary
// termination (socket closed, outbox drained, voluntary leave) so that
// errgroup's shared context is cancelled the same way a real error would
// cancel it — cancellation here is cooperative, not error-driven.
var errTaskDone = errors.New("wsroom: task finished")

// Handler upgrades HTTP requests into room connections for one schema.
type Handler[T any, O any, P any, CGE any, SGE any] struct {
	registry *registry.Registry[T, O, P, CGE, SGE]
	schema   *gameroom.Schema[T, O, P, CGE, SGE]
	factory  *websockutil.SessionFactory
	opts     Options
	log      *slog.Logger
}

// NewHandler builds a Handler serving reg with opts. factory owns the
// transport-level websocket.Upgrader and framing options.
func NewHandler[T any, O any, P any, CGE any, SGE any](
	reg *registry.Registry[T, O, P, CGE, SGE],
	schema *gameroom.Schema[T, O, P, CGE, SGE],
	factory *websockutil.SessionFactory,
	opts Options,
	log *slog.Logger,
) *Handler[T, O, P, CGE, SGE] {
	opts.FillDefaults()
	return &Handler[T, O, P, CGE, SGE]{
		registry: reg,
		schema:   schema,
		factory:  factory,
		opts:     opts,
		log:      log,
	}
}

// ServeHTTP upgrades req, validates the id/code query parameters, runs the
// join-or-reconnect handshake, then drives the active phase until the
// socket or the room gives out.
func (h *Handler[T, O, P, CGE, SGE]) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	id := q.Get("id")
	code := q.Get("code")
	if len(id) != clientIDLen || len(code) != roomCodeLen {
		http.Error(w, "no upgrade", http.StatusBadRequest)
		return
	}

	log := h.log.With(slog.String("client_id", id), slog.String("room_code", code))

	frames := make(chan []byte)
	stopped := make(chan struct{})
	var stopOnce sync.Once
	stop := func() { stopOnce.Do(func() { close(stopped) }) }

	session, err := h.factory.NewSession(w, req, log, func(kind int, msg []byte) error {
		if kind != websocket.BinaryMessage {
			return nil
		}
		select {
		case frames <- msg:
		case <-stopped:
		}
		return nil
	})
	if err != nil {
		return
	}
	defer func() {
		stop()
		session.Close()
	}()

	idx, outbox, room, ok := h.handshake(req.Context(), log, code, id, frames, stopped)
	if !ok {
		return
	}

	h.runActive(req.Context(), log, session, room, code, id, idx, outbox, frames, stopped, stop)
}

// handshake runs steps 1-3 of the connection lifecycle: reconnect path if
// an existing slot is found for id, join path (bounded wait for the
// opening JoinRoom frame) otherwise.
func (h *Handler[T, O, P, CGE, SGE]) handshake(
	ctx context.Context,
	log *slog.Logger,
	code, id string,
	frames <-chan []byte,
	stopped <-chan struct{},
) (int, *gameroom.Outbox, *gameroom.Room[T, O, P, CGE, SGE], bool) {
	if room, ok := h.registry.Room(code); ok {
		if room.IndexOf(id) != -1 {
			idx, outbox, err := room.Reconnect(id)
			if err != nil {
				log.Info("reconnect rejected", slogx.Err(err))
				return 0, nil, nil, false
			}
			return idx, outbox, room, true
		}
	}

	name, ok := h.awaitJoinFrame(ctx, log, frames, stopped)
	if !ok {
		return 0, nil, nil, false
	}

	room := h.registry.GetOrCreate(code)
	idx, outbox, err := room.Join(id, name)
	if err != nil {
		log.Info("join rejected", slogx.Err(err))
		return 0, nil, nil, false
	}
	return idx, outbox, room, true
}

// awaitJoinFrame waits up to h.opts.JoinTimeout for a single binary frame
// decoding to ClientEvent::JoinRoom. Any other outcome — timeout, decode
// failure, wrong variant, or the socket closing first — is a handshake
// failure with no room side effects.
func (h *Handler[T, O, P, CGE, SGE]) awaitJoinFrame(
	ctx context.Context,
	log *slog.Logger,
	frames <-chan []byte,
	stopped <-chan struct{},
) (protocol.Name, bool) {
	var zeroName protocol.Name

	timer := time.NewTimer(h.opts.JoinTimeout)
	defer timer.Stop()

	select {
	case msg := <-frames:
		r := wire.NewReader(msg)
		e, ok := protocol.DecodeClientEvent(r, h.schema.ReadClientGameEvent)
		if !ok || e.Kind != protocol.ClientEventJoinRoom {
			log.Info("wrong opening frame", slogx.Err(roomerr.New(roomerr.ErrWrongOpeningFrame, "first frame was not JoinRoom")))
			return zeroName, false
		}
		return e.Name, true
	case <-timer.C:
		log.Info("handshake timed out", slogx.Err(roomerr.New(roomerr.ErrHandshakeTimeout, "no JoinRoom within %s", h.opts.JoinTimeout)))
		return zeroName, false
	case <-stopped:
		return zeroName, false
	case <-ctx.Done():
		return zeroName, false
	}
}

// runActive drives the paired send/receive tasks for the duration of the
// connection, then runs the disconnect teardown unconditionally — it is
// always safe to call even when the receive task already ran the voluntary
// leave path, since Room.Disconnect and Registry.AfterDisconnect are both
// idempotent no-ops against an already-vacated slot.
func (h *Handler[T, O, P, CGE, SGE]) runActive(
	ctx context.Context,
	log *slog.Logger,
	session *websockutil.Session,
	room *gameroom.Room[T, O, P, CGE, SGE],
	code, id string,
	idx int,
	outbox *gameroom.Outbox,
	frames <-chan []byte,
	stopped <-chan struct{},
	stop func(),
) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			b, ok := outbox.Pop()
			if !ok {
				return errTaskDone
			}
			if err := session.WriteMsg(websocket.BinaryMessage, b); err != nil {
				return err
			}
		}
	})

	g.Go(func() error {
		limiter := rate.NewLimiter(rate.Limit(h.opts.InboundRPS), h.opts.InboundBurst)
		for {
			select {
			case <-gctx.Done():
				return errTaskDone
			case <-session.Done():
				return errTaskDone
			case <-stopped:
				return errTaskDone
			case msg, ok := <-frames:
				if !ok {
					return errTaskDone
				}
				if err := limiter.Wait(gctx); err != nil {
					return errTaskDone
				}
				if done := h.handleFrame(room, idx, msg); done {
					return errTaskDone
				}
			}
		}
	})

	// Once either task above ends, gctx is cancelled. This goroutine closes
	// the outbox so the send task's blocking Pop() unblocks, and closes
	// stopped so a receive callback blocked mid-delivery (racing the same
	// cancellation) doesn't wedge the socket's read loop. It never itself
	// cancels gctx (cooperative, not error-driven).
	g.Go(func() error {
		<-gctx.Done()
		stop()
		outbox.Close()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errTaskDone) {
		log.Info("connection ended", slogx.Err(err))
	}

	room.Disconnect(id)
	h.registry.AfterDisconnect(code)
}

// handleFrame decodes one inbound binary frame and applies it. It reports
// true once the connection should terminate (a voluntary LeaveRoom).
func (h *Handler[T, O, P, CGE, SGE]) handleFrame(room *gameroom.Room[T, O, P, CGE, SGE], idx int, msg []byte) bool {
	r := wire.NewReader(msg)
	e, _ := protocol.DecodeClientEvent(r, h.schema.ReadClientGameEvent)
	switch e.Kind {
	case protocol.ClientEventLeaveRoom:
		room.Leave(idx)
		return true
	default:
		room.HandleEvent(idx, e)
		return false
	}
}
