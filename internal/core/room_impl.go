package core

import (
	"sort"
	"sync"
	"time"

	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room.
// The member table doubles as the viewer set, so both always hold the same keys.
// It never closes adapter-owned resources.
type roomImpl struct {
	mu      sync.RWMutex
	room    domain.Room
	members map[domain.ConnID]domain.Member
	nextSeq uint64
	closed  bool
}

func newRoom(room domain.Room) *roomImpl {
	return &roomImpl{
		room:    room,
		members: make(map[domain.ConnID]domain.Member),
	}
}

func (r *roomImpl) ID() domain.RoomID { return r.room.ID }

func (r *roomImpl) Room() domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.room
}

func (r *roomImpl) Summary() RoomSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RoomSummary{
		ID:           r.room.ID,
		Title:        r.room.Title,
		StreamSource: r.room.StreamSource,
		IsPlaying:    r.room.Playback.IsPlaying,
		Viewers:      len(r.members),
	}
}

func (r *roomImpl) VideoState(now time.Time) VideoState {
	r.mu.RLock()
	p := r.room.Playback
	r.mu.RUnlock()
	return PublicVideoState(p, now)
}

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *roomImpl) MembersSnapshot() []MemberDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.presenceLocked()
}

func (r *roomImpl) HasMember(cid domain.ConnID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[cid]
	return ok
}

func (r *roomImpl) Recipients(exclude domain.ConnID) []domain.ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.recipientsLocked(exclude)
}

// AddMember inserts or replaces the connection's entry. A replaced entry keeps
// its original join order.
func (r *roomImpl) AddMember(m domain.Member) (MembershipChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return MembershipChange{}, ErrRoomClosed
	}
	if prev, ok := r.members[m.Conn]; ok {
		m = m.WithSeq(prev.Seq())
	} else {
		r.nextSeq++
		m = m.WithSeq(r.nextSeq)
	}
	r.members[m.Conn] = m
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("conn", string(m.Conn)).Str("user", string(m.User.SubjectID)).Msg("member added")
	return r.changeLocked(), nil
}

func (r *roomImpl) RemoveMember(cid domain.ConnID) (MembershipChange, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[cid]; !ok {
		return MembershipChange{}, false
	}
	delete(r.members, cid)
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("conn", string(cid)).Msg("member removed")
	return r.changeLocked(), true
}

func (r *roomImpl) update(title, streamSource string) (domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return domain.Room{}, ErrRoomClosed
	}
	r.room.Title = title
	r.room.StreamSource = streamSource
	return r.room, nil
}

func (r *roomImpl) apply(a ControlAction, now time.Time) (VideoState, []domain.ConnID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return VideoState{}, nil, ErrRoomClosed
	}
	r.room.Playback = a.apply(r.room.Playback, now)
	return PublicVideoState(r.room.Playback, now), r.recipientsLocked(""), nil
}

// close marks the room dead, drops its presence table and returns the
// connections that were still joined.
func (r *roomImpl) close() []domain.ConnID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	out := r.recipientsLocked("")
	r.members = make(map[domain.ConnID]domain.Member)
	return out
}

func (r *roomImpl) changeLocked() MembershipChange {
	return MembershipChange{
		RoomID:     r.room.ID,
		Presence:   r.presenceLocked(),
		Viewers:    len(r.members),
		Recipients: r.recipientsLocked(""),
	}
}

func (r *roomImpl) presenceLocked() []MemberDTO {
	ms := make([]domain.Member, 0, len(r.members))
	for _, m := range r.members {
		ms = append(ms, m)
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].Seq() < ms[j].Seq() })
	out := make([]MemberDTO, 0, len(ms))
	for _, m := range ms {
		out = append(out, MemberDTO{ConnectionID: m.Conn, ID: m.User.SubjectID, Name: m.User.DisplayName})
	}
	return out
}

func (r *roomImpl) recipientsLocked(exclude domain.ConnID) []domain.ConnID {
	out := make([]domain.ConnID, 0, len(r.members))
	for cid := range r.members {
		if cid == exclude {
			continue
		}
		out = append(out, cid)
	}
	return out
}
