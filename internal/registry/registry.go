// Package registry implements the process-wide room directory: a
// code-to-room map guarded by a readers-writer lock, with lazy creation
// on first join and eviction exactly when a room empties out. Eviction
// is event-driven, checked once immediately after the disconnect that
// might have caused it, rather than left to a periodic sweep.
package registry

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/tidegate/roomforge/internal/gameroom"
)

// Registry is the process-wide code -> Room directory for one schema.
type Registry[T any, O any, P any, CGE any, SGE any] struct {
	schema *gameroom.Schema[T, O, P, CGE, SGE]
	log    *slog.Logger

	mu    sync.RWMutex
	rooms map[string]*gameroom.Room[T, O, P, CGE, SGE]
}

// New constructs an empty registry for schema.
func New[T any, O any, P any, CGE any, SGE any](
	schema *gameroom.Schema[T, O, P, CGE, SGE],
	log *slog.Logger,
) *Registry[T, O, P, CGE, SGE] {
	return &Registry[T, O, P, CGE, SGE]{
		schema: schema,
		log:    log,
		rooms:  make(map[string]*gameroom.Room[T, O, P, CGE, SGE]),
	}
}

// Room looks up an existing room by code without creating one.
func (reg *Registry[T, O, P, CGE, SGE]) Room(code string) (*gameroom.Room[T, O, P, CGE, SGE], bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[code]
	return r, ok
}

// GetOrCreate returns the room at code, creating one on demand if this is
// the first connection for that code. Room codes are not rationed or
// validated beyond the length check the upgrade handler already applied.
func (reg *Registry[T, O, P, CGE, SGE]) GetOrCreate(code string) *gameroom.Room[T, O, P, CGE, SGE] {
	reg.mu.RLock()
	r, ok := reg.rooms[code]
	reg.mu.RUnlock()
	if ok {
		return r
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r, ok := reg.rooms[code]; ok {
		return r
	}
	r = gameroom.NewRoom(reg.schema, reg.log)
	reg.rooms[code] = r
	reg.log.Info("created room", slog.String("code", code))
	return r
}

// AfterDisconnect runs the eviction check for code: if the room exists
// and every one of its connection slots is now absent or belongs to a
// disconnected player, the room is removed from the registry. Safe to
// call even if code is unknown or was already evicted.
func (reg *Registry[T, O, P, CGE, SGE]) AfterDisconnect(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[code]
	if !ok {
		return
	}
	if !r.Empty() {
		return
	}
	delete(reg.rooms, code)
	reg.log.Info("evicted empty room", slog.String("code", code))
}

// Len reports how many rooms the registry currently holds.
func (reg *Registry[T, O, P, CGE, SGE]) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// Codes returns a sorted snapshot of every room code currently held, for
// the read-only status surface.
func (reg *Registry[T, O, P, CGE, SGE]) Codes() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	codes := make([]string, 0, len(reg.rooms))
	for code := range reg.rooms {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
