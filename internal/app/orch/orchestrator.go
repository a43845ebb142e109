package orch

import (
	"context"
	"errors"

	"github.com/dkeye/WatchParty/internal/app"
	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotConnected = errors.New("connection not bound")
	ErrNotJoined    = errors.New("connection has not joined the room")
)

// Limits bound relayed user content.
type Limits struct {
	MaxChatLen     int
	MaxReactionLen int
}

func DefaultLimits() Limits {
	return Limits{MaxChatLen: 500, MaxReactionLen: 32}
}

// Orchestrator coordinates connections, rooms and fanout. Every method is
// safe to call from any connection goroutine.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    *core.RoomRegistry
	Fanout   *app.Fanout
	Limits   Limits
}

func New(reg *app.Registry, rooms *core.RoomRegistry, policy app.Policy, limits Limits) *Orchestrator {
	return &Orchestrator{
		Registry: reg,
		Rooms:    rooms,
		Fanout:   app.NewFanout(reg, rooms, policy),
		Limits:   limits,
	}
}

// Connect binds an authenticated connection. The identity is fixed from here
// until disconnect; privilege changes are only seen on reconnect.
func (o *Orchestrator) Connect(cid domain.ConnID, id domain.Identity, sig core.SignalConnection, cancel context.CancelFunc) {
	o.Registry.Bind(cid, id, sig, cancel)
}

// Session describes a bound connection to itself.
func (o *Orchestrator) Session(cid domain.ConnID) (core.SessionPayload, bool) {
	id, ok := o.Registry.Identity(cid)
	if !ok {
		return core.SessionPayload{}, false
	}
	return core.SessionPayload{ConnectionID: cid, User: id}, true
}

// OnDisconnect leaves every joined room and then sweeps all rooms for entries
// still keyed by the connection. Safe to call any number of times.
func (o *Orchestrator) OnDisconnect(cid domain.ConnID) {
	joined, _ := o.Registry.Unbind(cid)
	for _, roomID := range joined {
		o.leaveRoom(cid, roomID)
	}
	swept := 0
	for _, room := range o.Rooms.All() {
		if change, ok := room.RemoveMember(cid); ok {
			swept++
			o.publishMembership(change)
		}
	}
	if swept > 0 {
		log.Warn().Str("module", "orch").Str("conn", string(cid)).Int("swept", swept).Msg("removed dangling memberships")
	}
	log.Info().Str("module", "orch").Str("conn", string(cid)).Int("rooms", len(joined)).Msg("disconnected")
}

func (o *Orchestrator) publishMembership(change core.MembershipChange) {
	o.Fanout.ToConnections(change.Recipients, core.NewEvent(core.EventPresence, core.PresencePayload{
		RoomID:  change.RoomID,
		Members: change.Presence,
	}))
	o.Fanout.ToConnections(change.Recipients, core.NewEvent(core.EventStats, core.StatsPayload{
		RoomID:  change.RoomID,
		Viewers: change.Viewers,
	}))
}

// joinedRoom resolves a connection's identity and a room it belongs to.
func (o *Orchestrator) joinedRoom(cid domain.ConnID, roomID domain.RoomID) (domain.Identity, core.RoomService, error) {
	id, ok := o.Registry.Identity(cid)
	if !ok {
		return domain.Identity{}, nil, ErrNotConnected
	}
	room, err := o.Rooms.Get(roomID)
	if err != nil {
		return domain.Identity{}, nil, err
	}
	if !room.HasMember(cid) {
		return domain.Identity{}, nil, ErrNotJoined
	}
	return id, room, nil
}
