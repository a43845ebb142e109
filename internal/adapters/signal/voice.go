package signal

import (
	"encoding/json"

	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/rs/zerolog/log"
)

type voiceSignalPayload struct {
	TargetID domain.ConnID   `json:"targetId"`
	Payload  json.RawMessage `json:"payload"`
}

type voiceMicPayload struct {
	RoomID domain.RoomID `json:"roomId"`
	Active bool          `json:"active"`
}

func (ctl *SignalWSController) handleVoiceReady(cid domain.ConnID, data []byte) {
	var p roomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	if err := ctl.Orch.VoiceReady(cid, p.RoomID); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("conn", string(cid)).Msg("voice ready dropped")
	}
}

// handleVoiceSignal relays the payload bytes untouched.
func (ctl *SignalWSController) handleVoiceSignal(cid domain.ConnID, data []byte) {
	var p voiceSignalPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	ctl.Orch.VoiceSignal(cid, p.TargetID, p.Payload)
}

func (ctl *SignalWSController) handleVoiceMic(cid domain.ConnID, data []byte) {
	var p voiceMicPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	if err := ctl.Orch.VoiceMic(cid, p.RoomID, p.Active); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("conn", string(cid)).Msg("voice mic dropped")
	}
}
