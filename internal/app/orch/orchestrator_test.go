package orch

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinUnknownRoom(t *testing.T) {
	h := newHarness(t)
	a := h.connect("a", aliceID)

	_, err := h.orch.Join("a", "ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, a.events(t, core.EventPresence))
	assert.Empty(t, h.orch.Registry.RoomsOf("a"))
	_, err = h.orch.Rooms.Get("ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestJoinUnboundConnection(t *testing.T) {
	h := newHarness(t)
	_, err := h.orch.Join("nobody", "r1")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, 0, h.room(t, "r1").MemberCount())
}

func TestJoinRepliesWithStateAndPublishesPresence(t *testing.T) {
	h := newHarness(t)
	a := h.connect("a", aliceID)
	h.connect("b", bobID)
	h.connect("admin", adminID)

	h.join(t, "admin", "r1")
	_, err := h.orch.ApplyControl(adminID, "r1", core.SeekTo(30))
	require.NoError(t, err)
	_, err = h.orch.ApplyControl(adminID, "r1", core.Play())
	require.NoError(t, err)
	h.clock.Advance(2 * time.Second)

	h.join(t, "a", "r1")
	a.reset()
	joined := h.join(t, "b", "r1")

	assert.Equal(t, domain.RoomID("r1"), joined.RoomID)
	assert.Equal(t, "https://cdn.example/r1.m3u8", joined.StreamSource)
	assert.True(t, joined.Video.IsPlaying)
	assert.InDelta(t, 32.0, joined.Video.Position, 1e-9)
	require.Len(t, joined.Presence, 3)
	assert.Equal(t, domain.ConnID("b"), joined.Presence[2].ConnectionID)
	assert.Equal(t, "Bob", joined.Presence[2].Name)

	presence := a.events(t, core.EventPresence)
	require.Len(t, presence, 1)
	assert.Len(t, decode[core.PresencePayload](t, presence[0]).Members, 3)
	stats := a.events(t, core.EventStats)
	require.Len(t, stats, 1)
	assert.Equal(t, 3, decode[core.StatsPayload](t, stats[0]).Viewers)
}

func TestChatReachesEveryMemberOnce(t *testing.T) {
	h := newHarness(t)
	a := h.connect("a", aliceID)
	b := h.connect("b", bobID)
	outsider := h.connect("c", adminID)
	h.join(t, "a", "r1")
	h.join(t, "b", "r1")
	h.join(t, "c", "r2")

	require.NoError(t, h.orch.Chat("a", "r1", "  goool!  "))

	for _, rec := range []*recorder{a, b} {
		msgs := rec.events(t, core.EventChat)
		require.Len(t, msgs, 1)
		msg := decode[core.ChatPayload](t, msgs[0])
		assert.Equal(t, "goool!", msg.Text)
		assert.Equal(t, aliceID.Sender(), msg.Sender)
		assert.Equal(t, domain.RoomID("r1"), msg.RoomID)
		assert.Equal(t, h.clock.Now().UnixMilli(), msg.ServerTime)
	}
	assert.Empty(t, outsider.events(t, core.EventChat))
}

func TestChatRejected(t *testing.T) {
	h := newHarness(t)
	a := h.connect("a", aliceID)
	h.connect("b", bobID)
	h.join(t, "a", "r1")

	cases := []struct {
		name string
		cid  domain.ConnID
		room domain.RoomID
		text string
		err  error
	}{
		{"empty", "a", "r1", "   ", core.ErrValidation},
		{"too long", "a", "r1", strings.Repeat("x", 501), core.ErrValidation},
		{"unknown room", "a", "ghost", "hi", core.ErrNotFound},
		{"not joined", "b", "r1", "hi", ErrNotJoined},
		{"unbound", "zzz", "r1", "hi", ErrNotConnected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, h.orch.Chat(tc.cid, tc.room, tc.text), tc.err)
		})
	}
	assert.Empty(t, a.events(t, core.EventChat))
}

func TestReaction(t *testing.T) {
	h := newHarness(t)
	a := h.connect("a", aliceID)
	b := h.connect("b", bobID)
	h.join(t, "a", "r1")
	h.join(t, "b", "r1")

	require.NoError(t, h.orch.React("b", "r1", "clap"))
	assert.ErrorIs(t, h.orch.React("b", "r1", ""), core.ErrValidation)
	assert.ErrorIs(t, h.orch.React("b", "r1", strings.Repeat("🔥", 33)), core.ErrValidation)

	for _, rec := range []*recorder{a, b} {
		evs := rec.events(t, core.EventReaction)
		require.Len(t, evs, 1)
		r := decode[core.ReactionPayload](t, evs[0])
		assert.Equal(t, "clap", r.Reaction)
		assert.Equal(t, bobID.Sender(), r.Sender)
	}
}

func TestDisconnectWithoutLeaveCleansPresence(t *testing.T) {
	h := newHarness(t)
	h.connect("a", aliceID)
	b := h.connect("b", bobID)
	h.join(t, "a", "r1")
	h.join(t, "a", "r2")
	h.join(t, "b", "r1")
	b.reset()

	h.orch.OnDisconnect("a")

	r1 := h.room(t, "r1")
	assert.Equal(t, 1, r1.MemberCount())
	assert.Equal(t, []core.MemberDTO{{ConnectionID: "b", ID: bobID.SubjectID, Name: "Bob"}}, r1.MembersSnapshot())
	assert.Equal(t, 0, h.room(t, "r2").MemberCount())

	stats := b.events(t, core.EventStats)
	require.Len(t, stats, 1)
	assert.Equal(t, 1, decode[core.StatsPayload](t, stats[0]).Viewers)
	presence := b.events(t, core.EventPresence)
	require.Len(t, presence, 1)
	assert.Len(t, decode[core.PresencePayload](t, presence[0]).Members, 1)

	_, bound := h.orch.Registry.Identity("a")
	assert.False(t, bound)
}

func TestLeaveAndDisconnectAreIdempotent(t *testing.T) {
	h := newHarness(t)
	h.connect("a", aliceID)
	b := h.connect("b", bobID)
	h.join(t, "a", "r1")
	h.join(t, "b", "r1")

	h.orch.Leave("a", "r1")
	once := h.room(t, "r1").MembersSnapshot()
	b.reset()
	h.orch.Leave("a", "r1")
	assert.Equal(t, once, h.room(t, "r1").MembersSnapshot())
	assert.Empty(t, b.events(t, core.EventPresence))

	h.orch.OnDisconnect("b")
	h.orch.OnDisconnect("b")
	h.orch.OnDisconnect("never-connected")
	assert.Equal(t, 0, h.room(t, "r1").MemberCount())
	assert.Equal(t, 1, h.orch.Registry.Count())
}

func TestLeaveKeepsOtherRooms(t *testing.T) {
	h := newHarness(t)
	h.connect("a", aliceID)
	h.join(t, "a", "r1")
	h.join(t, "a", "r2")

	h.orch.Leave("a", "r1")
	assert.False(t, h.room(t, "r1").HasMember("a"))
	assert.True(t, h.room(t, "r2").HasMember("a"))
	assert.Equal(t, []domain.RoomID{"r2"}, h.orch.Registry.RoomsOf("a"))
	require.NoError(t, h.orch.Chat("a", "r2", "still here"))
}

func TestDisconnectSweepsDanglingEntries(t *testing.T) {
	h := newHarness(t)
	h.connect("a", aliceID)
	// An entry the connection registry does not know about.
	_, err := h.room(t, "r2").AddMember(domain.NewMember("a", aliceID))
	require.NoError(t, err)

	h.orch.OnDisconnect("a")
	assert.Equal(t, 0, h.room(t, "r2").MemberCount())
}

func TestSignalToDisconnectedTargetIsDropped(t *testing.T) {
	h := newHarness(t)
	a := h.connect("a", aliceID)
	b := h.connect("b", bobID)
	h.join(t, "a", "r1")
	h.join(t, "b", "r1")

	payload := json.RawMessage(`{"sdp":{"type":"offer","sdp":"v=0"}}`)
	require.True(t, h.orch.VoiceSignal("a", "b", payload))
	sig := b.events(t, core.EventSignal)
	require.Len(t, sig, 1)
	got := decode[core.SignalPayload](t, sig[0])
	assert.Equal(t, domain.ConnID("a"), got.FromConnectionID)
	assert.JSONEq(t, string(payload), string(got.Payload))

	h.orch.OnDisconnect("b")
	b.reset()
	assert.False(t, h.orch.VoiceSignal("a", "b", payload))
	assert.Empty(t, b.events(t, core.EventSignal))
	assert.Empty(t, a.events(t, core.EventError))
}

func TestSignalRejectsEmptyAndSelf(t *testing.T) {
	h := newHarness(t)
	a := h.connect("a", aliceID)
	h.connect("b", bobID)
	assert.False(t, h.orch.VoiceSignal("a", "b", nil))
	assert.False(t, h.orch.VoiceSignal("a", "b", json.RawMessage(`null`)))
	assert.False(t, h.orch.VoiceSignal("a", "a", json.RawMessage(`{}`)))
	assert.Empty(t, a.events(t, core.EventSignal))
}

func TestVoiceReadyAndMicSkipSender(t *testing.T) {
	h := newHarness(t)
	a := h.connect("a", aliceID)
	b := h.connect("b", bobID)
	h.join(t, "a", "r1")
	h.join(t, "b", "r1")

	require.NoError(t, h.orch.VoiceReady("a", "r1"))
	require.NoError(t, h.orch.VoiceMic("a", "r1", true))
	assert.ErrorIs(t, h.orch.VoiceReady("a", "r2"), ErrNotJoined)

	assert.Empty(t, a.events(t, core.EventPeerJoin))
	assert.Empty(t, a.events(t, core.EventMic))

	peers := b.events(t, core.EventPeerJoin)
	require.Len(t, peers, 1)
	peer := decode[core.PeerJoinPayload](t, peers[0])
	assert.Equal(t, domain.ConnID("a"), peer.ConnectionID)
	assert.Equal(t, aliceID.Sender(), peer.Sender)

	mics := b.events(t, core.EventMic)
	require.Len(t, mics, 1)
	assert.True(t, decode[core.MicPayload](t, mics[0]).Active)
}

func TestUnprivilegedControlIsSilent(t *testing.T) {
	h := newHarness(t)
	a := h.connect("a", aliceID)
	h.join(t, "a", "r1")
	before := h.room(t, "r1").Room().Playback

	h.clock.Advance(time.Second)
	h.orch.Control("a", "r1", core.Play())
	h.orch.Control("a", "r1", core.SeekTo(50))
	h.orch.Control("a", "ghost", core.Pause())

	assert.Equal(t, before, h.room(t, "r1").Room().Playback)
	assert.Empty(t, a.events(t, core.EventVideoState))
	assert.Empty(t, a.events(t, core.EventError))
}

func TestPrivilegedControlBroadcastsState(t *testing.T) {
	h := newHarness(t)
	a := h.connect("a", aliceID)
	adm := h.connect("admin", adminID)
	outsider := h.connect("c", bobID)
	h.join(t, "a", "r1")
	h.join(t, "admin", "r1")
	h.join(t, "c", "r2")

	h.orch.Control("admin", "r1", core.Play())
	h.clock.Advance(3 * time.Second)
	h.orch.Control("admin", "r1", core.Pause())

	for _, rec := range []*recorder{a, adm} {
		states := rec.events(t, core.EventVideoState)
		require.Len(t, states, 2)
		last := decode[core.VideoStatePayload](t, states[1])
		assert.False(t, last.IsPlaying)
		assert.InDelta(t, 3.0, last.Position, 1e-9)
		assert.Equal(t, domain.RoomID("r1"), last.RoomID)
	}
	assert.Empty(t, outsider.events(t, core.EventVideoState))
}

func TestApplyControlSurfacesTypedErrors(t *testing.T) {
	h := newHarness(t)
	_, err := h.orch.ApplyControl(aliceID, "r1", core.Play())
	assert.ErrorIs(t, err, core.ErrForbidden)
	_, err = h.orch.ApplyControl(adminID, "ghost", core.Play())
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeleteRoomEvictsMembers(t *testing.T) {
	h := newHarness(t)
	a := h.connect("a", aliceID)
	b := h.connect("b", bobID)
	h.join(t, "a", "r1")
	h.join(t, "b", "r1")
	h.join(t, "b", "r2")

	_, err := h.orch.DeleteRoom(aliceID, "r1")
	assert.ErrorIs(t, err, core.ErrForbidden)

	existed, err := h.orch.DeleteRoom(adminID, "r1")
	require.NoError(t, err)
	assert.True(t, existed)

	for _, rec := range []*recorder{a, b} {
		closed := rec.events(t, core.EventRoomClosed)
		require.Len(t, closed, 1)
		assert.Equal(t, domain.RoomID("r1"), decode[core.RoomRef](t, closed[0]).RoomID)
	}
	assert.Empty(t, h.orch.Registry.RoomsOf("a"))
	assert.Equal(t, []domain.RoomID{"r2"}, h.orch.Registry.RoomsOf("b"))
	assert.ErrorIs(t, h.orch.Chat("a", "r1", "hello?"), core.ErrNotFound)

	existed, err = h.orch.DeleteRoom(adminID, "r1")
	require.NoError(t, err)
	assert.False(t, existed)

	h.orch.OnDisconnect("a")
	h.orch.OnDisconnect("b")
}

func TestSlowConnectionIsKicked(t *testing.T) {
	h := newHarness(t)
	h.connect("a", aliceID)
	b := h.connect("b", bobID)
	h.join(t, "a", "r1")
	h.join(t, "b", "r1")

	b.mu.Lock()
	b.full = true
	b.mu.Unlock()
	require.NoError(t, h.orch.Chat("a", "r1", "hi"))

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.True(t, b.canceled)
}

// Property: after any interleaving of join, leave and disconnect, each room's
// viewer set equals its presence keys and the connection registry agrees.
func TestMembershipConsistencyUnderRandomOps(t *testing.T) {
	h := newHarness(t)
	rng := rand.New(rand.NewSource(7))
	conns := []domain.ConnID{"c0", "c1", "c2", "c3", "c4"}
	rooms := []domain.RoomID{"r1", "r2"}
	live := map[domain.ConnID]bool{}

	for step := 0; step < 500; step++ {
		cid := conns[rng.Intn(len(conns))]
		roomID := rooms[rng.Intn(len(rooms))]
		switch op := rng.Intn(4); {
		case !live[cid]:
			h.connect(cid, domain.Identity{SubjectID: domain.UserID(cid), DisplayName: string(cid)})
			live[cid] = true
		case op == 0 || op == 1:
			_, err := h.orch.Join(cid, roomID)
			require.NoError(t, err)
		case op == 2:
			h.orch.Leave(cid, roomID)
		default:
			h.orch.OnDisconnect(cid)
			live[cid] = false
		}

		for _, roomID := range rooms {
			room := h.room(t, roomID)
			var presence []string
			for _, m := range room.MembersSnapshot() {
				presence = append(presence, string(m.ConnectionID))
			}
			var viewers []string
			for _, c := range room.Recipients("") {
				viewers = append(viewers, string(c))
			}
			var registered []string
			for _, c := range conns {
				for _, r := range h.orch.Registry.RoomsOf(c) {
					if r == roomID {
						registered = append(registered, string(c))
					}
				}
			}
			sort.Strings(presence)
			sort.Strings(viewers)
			sort.Strings(registered)
			require.Equal(t, viewers, presence, fmt.Sprintf("step %d room %s", step, roomID))
			require.Equal(t, registered, presence, fmt.Sprintf("step %d room %s", step, roomID))
			require.Equal(t, len(presence), room.Summary().Viewers)
		}
	}
}
