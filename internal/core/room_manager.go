package core

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	MaxRoomIDLen    = 64
	MaxRoomTitleLen = 200
)

// RoomRegistry owns every room. Callers only reach room state through it or
// through the RoomService it hands out.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomImpl
	clock Clock
}

func NewRoomRegistry(clock Clock) *RoomRegistry {
	if clock == nil {
		clock = SystemClock{}
	}
	return &RoomRegistry{
		rooms: make(map[domain.RoomID]*roomImpl),
		clock: clock,
	}
}

func (rr *RoomRegistry) Clock() Clock { return rr.clock }

// authorize is the one privilege rule shared by every mutating operation.
func authorize(who domain.Identity) error {
	if !who.IsPrivileged {
		return ErrForbidden
	}
	return nil
}

// Seed installs startup rooms without an identity. Existing ids are kept.
func (rr *RoomRegistry) Seed(rooms ...domain.Room) {
	now := rr.clock.Now()
	rr.mu.Lock()
	defer rr.mu.Unlock()
	for _, room := range rooms {
		if _, ok := rr.rooms[room.ID]; ok || room.ID == "" {
			continue
		}
		room.Playback = domain.Playback{UpdatedAt: now}
		rr.rooms[room.ID] = newRoom(room)
		log.Info().Str("module", "core.registry").Str("room", string(room.ID)).Msg("seeded room")
	}
}

func (rr *RoomRegistry) List() []RoomSummary {
	rr.mu.RLock()
	rooms := make([]*roomImpl, 0, len(rr.rooms))
	for _, r := range rr.rooms {
		rooms = append(rooms, r)
	}
	rr.mu.RUnlock()

	out := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (rr *RoomRegistry) Get(id domain.RoomID) (RoomService, error) {
	r, err := rr.lookup(id)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (rr *RoomRegistry) lookup(id domain.RoomID) (*roomImpl, error) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	r, ok := rr.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

// All returns every live room; used by disconnect scans.
func (rr *RoomRegistry) All() []RoomService {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	out := make([]RoomService, 0, len(rr.rooms))
	for _, r := range rr.rooms {
		out = append(out, r)
	}
	return out
}

// Upsert creates a paused room at position zero, or updates only title and
// stream source of an existing one. Reports whether the room was created.
func (rr *RoomRegistry) Upsert(id domain.RoomID, title, streamSource string, who domain.Identity) (domain.Room, bool, error) {
	if err := authorize(who); err != nil {
		return domain.Room{}, false, err
	}
	id = domain.RoomID(strings.TrimSpace(string(id)))
	title = strings.TrimSpace(title)
	streamSource = strings.TrimSpace(streamSource)
	switch {
	case id == "":
		return domain.Room{}, false, validationf("room id required")
	case len(id) > MaxRoomIDLen:
		return domain.Room{}, false, validationf("room id longer than %d bytes", MaxRoomIDLen)
	case title == "":
		return domain.Room{}, false, validationf("title required")
	case utf8.RuneCountInString(title) > MaxRoomTitleLen:
		return domain.Room{}, false, validationf("title longer than %d characters", MaxRoomTitleLen)
	}

	rr.mu.Lock()
	defer rr.mu.Unlock()
	if r, ok := rr.rooms[id]; ok {
		room, err := r.update(title, streamSource)
		if err != nil {
			return domain.Room{}, false, err
		}
		log.Info().Str("module", "core.registry").Str("room", string(id)).Str("by", string(who.SubjectID)).Msg("room updated")
		return room, false, nil
	}
	room := domain.Room{
		ID:           id,
		Title:        title,
		StreamSource: streamSource,
		Playback:     domain.Playback{UpdatedAt: rr.clock.Now()},
	}
	rr.rooms[id] = newRoom(room)
	log.Info().Str("module", "core.registry").Str("room", string(id)).Str("by", string(who.SubjectID)).Msg("room created")
	return room, true, nil
}

// Delete removes the room and purges its presence table. It returns whether
// the room existed and the connections that were still joined.
func (rr *RoomRegistry) Delete(id domain.RoomID, who domain.Identity) (bool, []domain.ConnID, error) {
	if err := authorize(who); err != nil {
		return false, nil, err
	}
	rr.mu.Lock()
	r, ok := rr.rooms[id]
	if ok {
		delete(rr.rooms, id)
	}
	rr.mu.Unlock()
	if !ok {
		return false, nil, nil
	}
	members := r.close()
	log.Info().Str("module", "core.registry").Str("room", string(id)).Str("by", string(who.SubjectID)).Int("evicted", len(members)).Msg("room deleted")
	return true, members, nil
}

// ControlResult carries the new public state and who must hear about it.
type ControlResult struct {
	RoomID     domain.RoomID
	State      VideoState
	Recipients []domain.ConnID
}

// ApplyControl mutates playback. Privilege is checked before existence so an
// unprivileged caller learns nothing about which rooms exist.
func (rr *RoomRegistry) ApplyControl(id domain.RoomID, action ControlAction, who domain.Identity) (ControlResult, error) {
	if err := authorize(who); err != nil {
		return ControlResult{}, err
	}
	r, err := rr.lookup(id)
	if err != nil {
		return ControlResult{}, err
	}
	state, recipients, err := r.apply(action, rr.clock.Now())
	if err != nil {
		return ControlResult{}, err
	}
	log.Info().Str("module", "core.registry").Str("room", string(id)).Str("action", string(action.Kind)).Float64("position", state.Position).Str("by", string(who.SubjectID)).Msg("playback changed")
	return ControlResult{RoomID: id, State: state, Recipients: recipients}, nil
}
