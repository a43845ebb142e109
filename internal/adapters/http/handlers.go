package http

import (
	nethttp "net/http"
	"strings"

	"github.com/dkeye/WatchParty/internal/app/orch"
	"github.com/dkeye/WatchParty/internal/auth"
	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

type handlers struct {
	orch     *orch.Orchestrator
	verifier auth.Verifier
	ice      []webrtc.ICEServer
}

type roomDetail struct {
	ID           domain.RoomID   `json:"id"`
	Title        string          `json:"title"`
	StreamSource string          `json:"streamSource"`
	Viewers      int             `json:"viewers"`
	Video        core.VideoState `json:"video"`
}

type upsertRoomRequest struct {
	ID           string `json:"id" binding:"required"`
	Title        string `json:"title" binding:"required"`
	StreamSource string `json:"streamSource"`
}

type controlRequest struct {
	Action   string   `json:"action" binding:"required"`
	Position *float64 `json:"position"`
}

func (h *handlers) health(c *gin.Context) {
	success(c, gin.H{
		"status":      "ok",
		"rooms":       len(h.orch.Rooms.List()),
		"connections": h.orch.Registry.Count(),
	})
}

func (h *handlers) listRooms(c *gin.Context) {
	success(c, h.orch.Rooms.List())
}

func (h *handlers) detail(room core.RoomService) roomDetail {
	r := room.Room()
	return roomDetail{
		ID:           r.ID,
		Title:        r.Title,
		StreamSource: r.StreamSource,
		Viewers:      room.MemberCount(),
		Video:        room.VideoState(h.orch.Rooms.Clock().Now()),
	}
}

func (h *handlers) getRoom(c *gin.Context) {
	room, err := h.orch.Rooms.Get(domain.RoomID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, h.detail(room))
}

// presence of an unknown room is an empty list, not an error.
func (h *handlers) presence(c *gin.Context) {
	id := domain.RoomID(c.Param("id"))
	members := []core.MemberDTO{}
	if room, err := h.orch.Rooms.Get(id); err == nil {
		members = room.MembersSnapshot()
	}
	success(c, core.PresencePayload{RoomID: id, Members: members})
}

func (h *handlers) upsertRoom(c *gin.Context) {
	var req upsertRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, nethttp.StatusBadRequest, CodeBadRequest, "id and title are required")
		return
	}
	room, isNew, err := h.orch.UpsertRoom(identity(c), domain.RoomID(req.ID), req.Title, req.StreamSource)
	if err != nil {
		writeError(c, err)
		return
	}
	svc, err := h.orch.Rooms.Get(room.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	if isNew {
		created(c, h.detail(svc))
		return
	}
	success(c, h.detail(svc))
}

func (h *handlers) deleteRoom(c *gin.Context) {
	deleted, err := h.orch.DeleteRoom(identity(c), domain.RoomID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, gin.H{"deleted": deleted})
}

func (h *handlers) control(c *gin.Context) {
	var req controlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, nethttp.StatusBadRequest, CodeBadRequest, "action is required")
		return
	}
	action, err := core.ParseControl(req.Action, req.Position)
	if err != nil {
		writeError(c, err)
		return
	}
	state, err := h.orch.ApplyControl(identity(c), domain.RoomID(c.Param("id")), action)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, state)
}

func (h *handlers) me(c *gin.Context) {
	success(c, identity(c))
}

// login stores a bearer token in the cookie session so browsers can open
// the WebSocket without setting headers.
func (h *handlers) login(c *gin.Context) {
	raw := c.GetHeader(authHeader)
	if !strings.HasPrefix(raw, bearerPrefix) {
		writeError(c, auth.ErrMissingCredential)
		return
	}
	token := strings.TrimPrefix(raw, bearerPrefix)
	id, err := h.verifier.Verify(token)
	if err != nil {
		writeError(c, err)
		return
	}
	sess := sessions.Default(c)
	sess.Set(sessionTokenKey, token)
	if err := sess.Save(); err != nil {
		writeError(c, err)
		return
	}
	log.Info().Str("module", "adapters.http").Str("user", string(id.SubjectID)).Msg("session stored")
	success(c, id)
}

func (h *handlers) logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := sess.Save(); err != nil {
		writeError(c, err)
		return
	}
	success(c, gin.H{"loggedOut": true})
}

func (h *handlers) iceServers(c *gin.Context) {
	success(c, gin.H{"iceServers": h.ice})
}
