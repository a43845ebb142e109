package app

import (
	"context"
	"sync"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Identity domain.Identity
	Signal   core.SignalConnection
	Rooms    map[domain.RoomID]struct{}
	Cancel   context.CancelFunc
}

// Registry tracks open connections: who they are, where to write, and which
// rooms they joined.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.ConnID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.ConnID]*sessionEntry),
	}
}

func (r *Registry) Bind(
	cid domain.ConnID,
	id domain.Identity,
	signal core.SignalConnection,
	cancel context.CancelFunc,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[cid] = &sessionEntry{
		Identity: id,
		Signal:   signal,
		Rooms:    make(map[domain.RoomID]struct{}),
		Cancel:   cancel,
	}
	log.Info().Str("module", "app.registry").Str("conn", string(cid)).Str("user", string(id.SubjectID)).Bool("admin", id.IsPrivileged).Msg("bound connection")
}

// Unbind forgets the connection and returns the rooms it had joined.
// Unbinding twice returns nothing the second time.
func (r *Registry) Unbind(cid domain.ConnID) ([]domain.RoomID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[cid]
	if !ok {
		return nil, false
	}
	delete(r.sessions, cid)
	rooms := make([]domain.RoomID, 0, len(e.Rooms))
	for id := range e.Rooms {
		rooms = append(rooms, id)
	}
	log.Info().Str("module", "app.registry").Str("conn", string(cid)).Int("rooms", len(rooms)).Msg("unbind connection")
	return rooms, true
}

func (r *Registry) Identity(cid domain.ConnID) (domain.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[cid]; ok {
		return e.Identity, true
	}
	return domain.Identity{}, false
}

func (r *Registry) Signal(cid domain.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[cid]; ok && e.Signal != nil {
		return e.Signal, true
	}
	return nil, false
}

// AddRoom records a membership. False if the connection is gone.
func (r *Registry) AddRoom(cid domain.ConnID, room domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[cid]
	if !ok {
		return false
	}
	e.Rooms[room] = struct{}{}
	return true
}

func (r *Registry) RemoveRoom(cid domain.ConnID, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[cid]; ok {
		delete(e.Rooms, room)
	}
}

func (r *Registry) RoomsOf(cid domain.ConnID) []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[cid]
	if !ok {
		return nil
	}
	out := make([]domain.RoomID, 0, len(e.Rooms))
	for id := range e.Rooms {
		out = append(out, id)
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Cancel asks the transport to shut the connection down. Cleanup follows
// through the normal disconnect path.
func (r *Registry) Cancel(cid domain.ConnID) bool {
	r.mu.RLock()
	e, ok := r.sessions[cid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("conn", string(cid)).Msg("canceled connection")
	return true
}
