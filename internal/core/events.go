package core

import (
	"encoding/json"

	"github.com/dkeye/WatchParty/internal/domain"
)

// Outbound event names. Inbound names share the same vocabulary.
const (
	EventSession    = "session"
	EventRoomJoined = "room:joined"
	EventRoomLeft   = "room:left"
	EventPresence   = "room:presence"
	EventStats      = "room:stats"
	EventRoomClosed = "room:closed"
	EventVideoState = "video:state"
	EventChat       = "chat:message"
	EventReaction   = "reaction"
	EventPeerJoin   = "voice:peer-join"
	EventSignal     = "voice:signal"
	EventMic        = "voice:mic"
	EventPong       = "pong"
	EventError      = "error"
)

// Event is the envelope every outbound frame is encoded from.
type Event struct {
	Type string `json:"type"`
	Ref  string `json:"ref,omitempty"`
	Data any    `json:"data,omitempty"`
}

func NewEvent(typ string, data any) Event {
	return Event{Type: typ, Data: data}
}

// Reply correlates an event with the request that caused it.
func (e Event) Reply(ref string) Event {
	e.Ref = ref
	return e
}

// Encode marshals the event once so it can be fanned out as the same frame.
func (e Event) Encode() (Frame, error) {
	return json.Marshal(e)
}

type SessionPayload struct {
	ConnectionID domain.ConnID   `json:"connectionId"`
	User         domain.Identity `json:"user"`
}

type JoinedPayload struct {
	RoomID       domain.RoomID `json:"roomId"`
	Title        string        `json:"title"`
	Video        VideoState    `json:"video"`
	StreamSource string        `json:"streamSource"`
	Presence     []MemberDTO   `json:"presence"`
}

type RoomRef struct {
	RoomID domain.RoomID `json:"roomId"`
}

type PresencePayload struct {
	RoomID  domain.RoomID `json:"roomId"`
	Members []MemberDTO   `json:"members"`
}

type StatsPayload struct {
	RoomID  domain.RoomID `json:"roomId"`
	Viewers int           `json:"viewers"`
}

type VideoStatePayload struct {
	RoomID domain.RoomID `json:"roomId"`
	VideoState
}

type ChatPayload struct {
	RoomID     domain.RoomID `json:"roomId"`
	Sender     domain.Sender `json:"sender"`
	Text       string        `json:"text"`
	ServerTime int64         `json:"serverTime"`
}

type ReactionPayload struct {
	RoomID     domain.RoomID `json:"roomId"`
	Sender     domain.Sender `json:"sender"`
	Reaction   string        `json:"type"`
	ServerTime int64         `json:"serverTime"`
}

type PeerJoinPayload struct {
	RoomID       domain.RoomID `json:"roomId"`
	ConnectionID domain.ConnID `json:"connectionId"`
	Sender       domain.Sender `json:"sender"`
}

// SignalPayload carries a peer negotiation blob. Payload is never parsed.
type SignalPayload struct {
	FromConnectionID domain.ConnID   `json:"fromConnectionId"`
	Payload          json.RawMessage `json:"payload"`
}

type MicPayload struct {
	RoomID       domain.RoomID `json:"roomId"`
	ConnectionID domain.ConnID `json:"connectionId"`
	Active       bool          `json:"active"`
	Sender       domain.Sender `json:"sender"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
