package orch

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/WatchParty/internal/app"
	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/stretchr/testify/require"
)

var (
	adminID = domain.Identity{SubjectID: "admin@gtu.edu.tr", DisplayName: "Admin", IsPrivileged: true}
	aliceID = domain.Identity{SubjectID: "alice@gtu.edu.tr", DisplayName: "Alice"}
	bobID   = domain.Identity{SubjectID: "bob@gtu.edu.tr", DisplayName: "Bob"}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recorder is an in-memory SignalConnection.
type recorder struct {
	mu       sync.Mutex
	frames   []core.Frame
	full     bool
	canceled bool
}

func (r *recorder) TrySend(f core.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return core.ErrBackpressure
	}
	r.frames = append(r.frames, f)
	return nil
}

func (r *recorder) Close() {}

func (r *recorder) cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.canceled = true
}

type wireEvent struct {
	Type string          `json:"type"`
	Ref  string          `json:"ref"`
	Data json.RawMessage `json:"data"`
}

func (r *recorder) events(t *testing.T, typ string) []wireEvent {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []wireEvent
	for _, f := range r.frames {
		var ev wireEvent
		require.NoError(t, json.Unmarshal(f, &ev))
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = nil
}

func decode[T any](t *testing.T, ev wireEvent) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(ev.Data, &v))
	return v
}

type harness struct {
	orch  *Orchestrator
	clock *fakeClock
	conns map[domain.ConnID]*recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)}
	rooms := core.NewRoomRegistry(clock)
	_, _, err := rooms.Upsert("r1", "Fenerbahçe vs Galatasaray", "https://cdn.example/r1.m3u8", adminID)
	require.NoError(t, err)
	_, _, err = rooms.Upsert("r2", "GTU Derby", "", adminID)
	require.NoError(t, err)
	return &harness{
		orch:  New(app.NewRegistry(), rooms, app.SimplePolicy{}, DefaultLimits()),
		clock: clock,
		conns: make(map[domain.ConnID]*recorder),
	}
}

func (h *harness) connect(cid domain.ConnID, id domain.Identity) *recorder {
	rec := &recorder{}
	h.conns[cid] = rec
	h.orch.Connect(cid, id, rec, rec.cancel)
	return rec
}

func (h *harness) join(t *testing.T, cid domain.ConnID, roomID domain.RoomID) core.JoinedPayload {
	t.Helper()
	joined, err := h.orch.Join(cid, roomID)
	require.NoError(t, err)
	return joined
}

func (h *harness) room(t *testing.T, id domain.RoomID) core.RoomService {
	t.Helper()
	room, err := h.orch.Rooms.Get(id)
	require.NoError(t, err)
	return room
}
