package orch

import (
	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join registers the connection in the room and returns what the joiner
// needs to start playback in sync. Unknown rooms are never created here.
func (o *Orchestrator) Join(cid domain.ConnID, roomID domain.RoomID) (core.JoinedPayload, error) {
	id, ok := o.Registry.Identity(cid)
	if !ok {
		return core.JoinedPayload{}, ErrNotConnected
	}
	room, err := o.Rooms.Get(roomID)
	if err != nil {
		return core.JoinedPayload{}, err
	}
	change, err := room.AddMember(domain.NewMember(cid, id))
	if err != nil {
		return core.JoinedPayload{}, err
	}
	if !o.Registry.AddRoom(cid, roomID) {
		if change, ok := room.RemoveMember(cid); ok {
			o.publishMembership(change)
		}
		return core.JoinedPayload{}, ErrNotConnected
	}
	o.publishMembership(change)

	snap := room.Room()
	log.Info().Str("module", "orch").Str("conn", string(cid)).Str("room", string(roomID)).Msg("joined room")
	return core.JoinedPayload{
		RoomID:       roomID,
		Title:        snap.Title,
		Video:        room.VideoState(o.Rooms.Clock().Now()),
		StreamSource: snap.StreamSource,
		Presence:     change.Presence,
	}, nil
}

// Leave removes the connection from one room; the connection stays open.
func (o *Orchestrator) Leave(cid domain.ConnID, roomID domain.RoomID) {
	o.Registry.RemoveRoom(cid, roomID)
	o.leaveRoom(cid, roomID)
}

func (o *Orchestrator) leaveRoom(cid domain.ConnID, roomID domain.RoomID) {
	room, err := o.Rooms.Get(roomID)
	if err != nil {
		return
	}
	change, ok := room.RemoveMember(cid)
	if !ok {
		return
	}
	o.publishMembership(change)
	log.Info().Str("module", "orch").Str("conn", string(cid)).Str("room", string(roomID)).Msg("left room")
}

// ApplyControl is the authorized playback mutation shared by every caller.
// It returns typed errors; callers choose how to surface them.
func (o *Orchestrator) ApplyControl(who domain.Identity, roomID domain.RoomID, action core.ControlAction) (core.VideoState, error) {
	res, err := o.Rooms.ApplyControl(roomID, action, who)
	if err != nil {
		return core.VideoState{}, err
	}
	o.Fanout.ToConnections(res.Recipients, core.NewEvent(core.EventVideoState, core.VideoStatePayload{
		RoomID:     res.RoomID,
		VideoState: res.State,
	}))
	return res.State, nil
}

// Control is the live-connection path: every failure is dropped silently so
// unprivileged clients cannot probe which rooms exist.
func (o *Orchestrator) Control(cid domain.ConnID, roomID domain.RoomID, action core.ControlAction) {
	id, ok := o.Registry.Identity(cid)
	if !ok {
		return
	}
	if _, err := o.ApplyControl(id, roomID, action); err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("conn", string(cid)).Str("room", string(roomID)).Msg("control dropped")
	}
}

func (o *Orchestrator) UpsertRoom(who domain.Identity, roomID domain.RoomID, title, streamSource string) (domain.Room, bool, error) {
	return o.Rooms.Upsert(roomID, title, streamSource, who)
}

// DeleteRoom removes the room, force-leaves its members and tells them so.
func (o *Orchestrator) DeleteRoom(who domain.Identity, roomID domain.RoomID) (bool, error) {
	existed, members, err := o.Rooms.Delete(roomID, who)
	if err != nil || !existed {
		return existed, err
	}
	for _, cid := range members {
		o.Registry.RemoveRoom(cid, roomID)
	}
	o.Fanout.ToConnections(members, core.NewEvent(core.EventRoomClosed, core.RoomRef{RoomID: roomID}))
	return true, nil
}
