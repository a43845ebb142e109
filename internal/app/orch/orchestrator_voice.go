package orch

import (
	"encoding/json"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/rs/zerolog/log"
)

// VoiceReady announces the connection to every other member as a mesh peer.
func (o *Orchestrator) VoiceReady(cid domain.ConnID, roomID domain.RoomID) error {
	id, room, err := o.joinedRoom(cid, roomID)
	if err != nil {
		return err
	}
	o.Fanout.ToConnections(room.Recipients(cid), core.NewEvent(core.EventPeerJoin, core.PeerJoinPayload{
		RoomID:       roomID,
		ConnectionID: cid,
		Sender:       id.Sender(),
	}))
	return nil
}

// VoiceSignal forwards an opaque negotiation payload to one connection.
// A vanished target is a normal race, so the send is simply dropped.
func (o *Orchestrator) VoiceSignal(cid, target domain.ConnID, payload json.RawMessage) bool {
	if len(payload) == 0 || string(payload) == "null" || target == "" || target == cid {
		return false
	}
	if _, ok := o.Registry.Identity(cid); !ok {
		return false
	}
	delivered := o.Fanout.ToConnection(target, core.NewEvent(core.EventSignal, core.SignalPayload{
		FromConnectionID: cid,
		Payload:          payload,
	}))
	if !delivered {
		log.Debug().Str("module", "orch").Str("from", string(cid)).Str("to", string(target)).Msg("signal target gone")
	}
	return delivered
}

// VoiceMic tells the other members that the sender's microphone changed.
func (o *Orchestrator) VoiceMic(cid domain.ConnID, roomID domain.RoomID, active bool) error {
	id, room, err := o.joinedRoom(cid, roomID)
	if err != nil {
		return err
	}
	o.Fanout.ToConnections(room.Recipients(cid), core.NewEvent(core.EventMic, core.MicPayload{
		RoomID:       roomID,
		ConnectionID: cid,
		Active:       active,
		Sender:       id.Sender(),
	}))
	return nil
}
