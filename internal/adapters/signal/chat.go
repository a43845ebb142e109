package signal

import (
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/rs/zerolog/log"
)

type chatPayload struct {
	RoomID domain.RoomID `json:"roomId"`
	Text   string        `json:"text"`
}

type reactionPayload struct {
	RoomID   domain.RoomID `json:"roomId"`
	Reaction string        `json:"reaction"`
}

// Rejected chat and reactions are dropped; the sender just sees nothing.
func (ctl *SignalWSController) handleChat(cid domain.ConnID, conn *WsSignalConn, ref string, data []byte) {
	var p chatPayload
	if !ctl.decode(conn, ref, data, &p) {
		return
	}
	if !ctl.limiter.Allow(cid) {
		log.Debug().Str("module", "signal").Str("conn", string(cid)).Msg("chat rate limited")
		return
	}
	if err := ctl.Orch.Chat(cid, p.RoomID, p.Text); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("conn", string(cid)).Msg("chat dropped")
	}
}

func (ctl *SignalWSController) handleReaction(cid domain.ConnID, conn *WsSignalConn, ref string, data []byte) {
	var p reactionPayload
	if !ctl.decode(conn, ref, data, &p) {
		return
	}
	if !ctl.limiter.Allow(cid) {
		log.Debug().Str("module", "signal").Str("conn", string(cid)).Msg("reaction rate limited")
		return
	}
	if err := ctl.Orch.React(cid, p.RoomID, p.Reaction); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("conn", string(cid)).Msg("reaction dropped")
	}
}
