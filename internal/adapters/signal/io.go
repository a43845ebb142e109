package signal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	codeBadRequest = "bad_request"
	codeNotFound   = "not_found"
	codeInternal   = "internal"
)

// envelope is the part every inbound frame shares.
type envelope struct {
	Type string `json:"type"`
	Ref  string `json:"ref,omitempty"`
}

func (ctl *SignalWSController) writePump(ctx context.Context, cid domain.ConnID, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("conn", string(cid)).Msg("writePump ctx done")
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(ctl.opts.WriteWait))
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(cid)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(cid)).Msg("ping failed")
				return
			}
		}
	}
}

// readPump owns the disconnect: whatever ends the read loop, cleanup runs
// exactly here.
func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, cid domain.ConnID, c *WsSignalConn) {
	defer func() {
		cancel()
		c.Close()
		ctl.limiter.Forget(cid)
		ctl.Orch.OnDisconnect(cid)
		log.Info().Str("module", "signal").Str("conn", string(cid)).Msg("readPump closed")
	}()

	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(cid)).Msg("readPump read error")
			}
			return
		}
		ctl.handleSignal(cid, c, data)
	}
}

func (ctl *SignalWSController) handleSignal(cid domain.ConnID, c *WsSignalConn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		ctl.sendError(c, "", codeBadRequest, "malformed json")
		return
	}

	switch env.Type {
	case "room:join":
		ctl.handleJoin(cid, c, env.Ref, data)
	case "room:leave":
		ctl.handleLeave(cid, c, env.Ref, data)
	case "video:control":
		ctl.handleControl(cid, data)
	case "chat:message":
		ctl.handleChat(cid, c, env.Ref, data)
	case "reaction":
		ctl.handleReaction(cid, c, env.Ref, data)
	case "voice:ready":
		ctl.handleVoiceReady(cid, data)
	case "voice:signal":
		ctl.handleVoiceSignal(cid, data)
	case "voice:mic":
		ctl.handleVoiceMic(cid, data)
	case "whoami":
		ctl.handleWhoAmI(cid, c, env.Ref)
	case "ping":
		ctl.handlePing(c, env.Ref)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		ctl.sendError(c, env.Ref, codeBadRequest, "unknown message type")
	}
}

// decode unmarshals a typed payload, answering bad_request on failure.
func (ctl *SignalWSController) decode(c *WsSignalConn, ref string, data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Debug().Err(err).Str("module", "signal").Msg("bad payload")
		ctl.sendError(c, ref, codeBadRequest, "bad payload")
		return false
	}
	return true
}

func (ctl *SignalWSController) send(c *WsSignalConn, evt core.Event) {
	frame, err := evt.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", evt.Type).Msg("send encode")
		return
	}
	if err := c.TrySend(frame); err != nil && !errors.Is(err, core.ErrConnClosed) {
		log.Warn().Err(err).Str("module", "signal").Str("event", evt.Type).Msg("reply dropped")
	}
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, ref, code, message string) {
	ctl.send(c, core.NewEvent(core.EventError, core.ErrorPayload{Code: code, Message: message}).Reply(ref))
}
