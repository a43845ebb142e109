package signal

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/WatchParty/internal/app/orch"
	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/rs/zerolog/log"
)

type roomPayload struct {
	RoomID domain.RoomID `json:"roomId"`
}

type controlPayload struct {
	RoomID   domain.RoomID `json:"roomId"`
	Action   string        `json:"action"`
	Position *float64      `json:"position,omitempty"`
}

func (ctl *SignalWSController) handleJoin(cid domain.ConnID, conn *WsSignalConn, ref string, data []byte) {
	var p roomPayload
	if !ctl.decode(conn, ref, data, &p) {
		return
	}
	joined, err := ctl.Orch.Join(cid, p.RoomID)
	switch {
	case err == nil:
		ctl.send(conn, core.NewEvent(core.EventRoomJoined, joined).Reply(ref))
	case errors.Is(err, core.ErrNotFound):
		ctl.sendError(conn, ref, codeNotFound, "room not found")
	case errors.Is(err, orch.ErrNotConnected):
		// Connection is being torn down.
	default:
		log.Error().Err(err).Str("module", "signal").Str("conn", string(cid)).Str("room", string(p.RoomID)).Msg("join")
		ctl.sendError(conn, ref, codeInternal, "join failed")
	}
}

// handleLeave leaves one room; the connection stays open.
func (ctl *SignalWSController) handleLeave(cid domain.ConnID, conn *WsSignalConn, ref string, data []byte) {
	var p roomPayload
	if !ctl.decode(conn, ref, data, &p) {
		return
	}
	ctl.Orch.Leave(cid, p.RoomID)
	ctl.send(conn, core.NewEvent(core.EventRoomLeft, core.RoomRef{RoomID: p.RoomID}).Reply(ref))
}

// Control failures are dropped without a reply.
func (ctl *SignalWSController) handleControl(cid domain.ConnID, data []byte) {
	var p controlPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	action, err := core.ParseControl(p.Action, p.Position)
	if err != nil {
		return
	}
	ctl.Orch.Control(cid, p.RoomID, action)
}
