package app

import (
	"errors"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/rs/zerolog/log"
)

// PublishResult reports delivery stats/backpressure.
type PublishResult struct {
	SendTo  int
	Dropped []domain.ConnID
}

// Fanout delivers encoded events to connections. It never holds a room lock:
// callers pass recipient lists snapshotted under the lock.
type Fanout struct {
	Registry *Registry
	Rooms    *core.RoomRegistry
	Policy   Policy
}

func NewFanout(reg *Registry, rooms *core.RoomRegistry, policy Policy) *Fanout {
	return &Fanout{Registry: reg, Rooms: rooms, Policy: policy}
}

// ToRoom delivers to every connection in the room at call time.
func (f *Fanout) ToRoom(roomID domain.RoomID, evt core.Event, exclude domain.ConnID) PublishResult {
	room, err := f.Rooms.Get(roomID)
	if err != nil {
		return PublishResult{}
	}
	return f.ToConnections(room.Recipients(exclude), evt)
}

// ToConnection delivers to one connection if it is still open.
func (f *Fanout) ToConnection(cid domain.ConnID, evt core.Event) bool {
	return f.ToConnections([]domain.ConnID{cid}, evt).SendTo == 1
}

func (f *Fanout) ToConnections(ids []domain.ConnID, evt core.Event) PublishResult {
	res := PublishResult{}
	if len(ids) == 0 {
		return res
	}
	frame, err := evt.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "app.fanout").Str("event", evt.Type).Msg("encode event")
		return res
	}
	for _, cid := range ids {
		sig, ok := f.Registry.Signal(cid)
		if !ok {
			continue
		}
		if err := sig.TrySend(frame); err != nil {
			if errors.Is(err, core.ErrBackpressure) {
				res.Dropped = append(res.Dropped, cid)
			}
			continue
		}
		res.SendTo++
	}
	f.applyPolicy(res.Dropped)
	log.Debug().Str("module", "app.fanout").Str("event", evt.Type).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (f *Fanout) applyPolicy(dropped []domain.ConnID) {
	if f.Policy == nil {
		return
	}
	for _, cid := range dropped {
		switch f.Policy.OnBackPressure(cid) {
		case KickMember:
			log.Warn().Str("module", "app.fanout").Str("conn", string(cid)).Msg("kicking slow connection")
			f.Registry.Cancel(cid)
		case MarkSlow, DropFrame, NoAction:
		}
	}
}
