package signal

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/dkeye/WatchParty/internal/app/orch"
	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Options tune the transport side of a connection.
type Options struct {
	ReadLimit      int64
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	SendBuffer     int
	AllowedOrigins []string
	ChatRate       float64
	ChatBurst      int
}

func DefaultOptions() Options {
	return Options{
		ReadLimit:  32768,
		PingPeriod: 54 * time.Second,
		PongWait:   60 * time.Second,
		WriteWait:  10 * time.Second,
		SendBuffer: 64,
		ChatRate:   5,
		ChatBurst:  10,
	}
}

type SignalWSController struct {
	Orch     *orch.Orchestrator
	opts     Options
	limiter  *ConnRateLimiter
	upgrader websocket.Upgrader
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	ctl := &SignalWSController{
		Orch:    o,
		opts:    opts,
		limiter: NewConnRateLimiter(rate.Limit(opts.ChatRate), opts.ChatBurst),
	}
	ctl.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     ctl.checkOrigin,
	}
	return ctl
}

// An empty allow list accepts any origin.
func (ctl *SignalWSController) checkOrigin(r *http.Request) bool {
	if len(ctl.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(ctl.opts.AllowedOrigins, origin)
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// HandleSignal upgrades an already authenticated request. The connection
// lives until ctx ends, the peer goes away, or the backpressure policy
// cancels it.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context, id domain.Identity) {
	cid := domain.ConnID(uuid.NewString())
	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(cid)).Str("user", string(id.SubjectID)).Msg("new WS connection")

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.opts.SendBuffer),
	}
	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Connect(cid, id, conn, cancel)
	ctl.handleWhoAmI(cid, conn, "")

	go ctl.writePump(ctx, cid, conn)
	go ctl.readPump(ctx, cancel, cid, conn)
}
