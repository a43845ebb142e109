package http

import (
	"context"
	nethttp "net/http"

	"github.com/dkeye/WatchParty/internal/adapters/signal"
	"github.com/dkeye/WatchParty/internal/app/orch"
	"github.com/dkeye/WatchParty/internal/auth"
	"github.com/dkeye/WatchParty/internal/config"
	"github.com/dkeye/WatchParty/internal/logger"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

type Deps struct {
	Orch     *orch.Orchestrator
	Verifier auth.Verifier
	Signal   *signal.SignalWSController
	ICE      []webrtc.ICEServer
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(log.Logger))

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Auth.TokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: nethttp.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(SessionName, store))

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	h := &handlers{orch: deps.Orch, verifier: deps.Verifier, ice: deps.ICE}
	requireID := RequireIdentity(deps.Verifier)

	r.GET("/healthz", h.health)

	api := r.Group("/api")
	api.GET("/rooms", h.listRooms)
	api.GET("/rooms/:id", h.getRoom)
	api.GET("/rooms/:id/presence", h.presence)
	api.POST("/session", h.login)
	api.DELETE("/session", h.logout)

	authed := api.Group("", requireID)
	authed.POST("/rooms", h.upsertRoom)
	authed.DELETE("/rooms/:id", h.deleteRoom)
	authed.POST("/rooms/:id/control", h.control)
	authed.GET("/me", h.me)
	authed.GET("/voice/ice", h.iceServers)
	authed.GET("/ws", func(c *gin.Context) {
		deps.Signal.HandleSignal(ctx, c, identity(c))
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}
