package core

import (
	"time"

	"github.com/dkeye/WatchParty/internal/domain"
)

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	ConnectionID domain.ConnID `json:"connectionId"`
	ID           domain.UserID `json:"id"`
	Name         string        `json:"name"`
}

type RoomSummary struct {
	ID           domain.RoomID `json:"id"`
	Title        string        `json:"title"`
	StreamSource string        `json:"streamSource"`
	IsPlaying    bool          `json:"isPlaying"`
	Viewers      int           `json:"viewers"`
}

// MembershipChange is taken under the room lock so presence, viewer count
// and recipients describe the same instant.
type MembershipChange struct {
	RoomID     domain.RoomID
	Presence   []MemberDTO
	Viewers    int
	Recipients []domain.ConnID
}

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	ID() domain.RoomID
	Room() domain.Room
	Summary() RoomSummary
	VideoState(now time.Time) VideoState
	MemberCount() int
	MembersSnapshot() []MemberDTO
	HasMember(cid domain.ConnID) bool
	Recipients(exclude domain.ConnID) []domain.ConnID

	AddMember(m domain.Member) (MembershipChange, error)
	RemoveMember(cid domain.ConnID) (MembershipChange, bool)
}
