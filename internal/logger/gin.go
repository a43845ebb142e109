package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	HeaderRequestID = "X-Request-ID"
	// KeyRequestID is the gin context key holding the request id.
	KeyRequestID = "request_id"
	// KeyUserID is set by the auth middleware for access logs.
	KeyUserID = "user_id"
)

// GinMiddleware stamps every request with an id and logs it on completion.
func GinMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(KeyRequestID, reqID)
		c.Header(HeaderRequestID, reqID)

		c.Next()

		evt := logger.Info()
		if c.Writer.Status() >= 500 {
			evt = logger.Error()
		}
		evt = evt.Str("module", "adapters.http").
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("client_ip", c.ClientIP()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start))
		if uid, ok := c.Get(KeyUserID); ok {
			if s, ok := uid.(string); ok {
				evt = evt.Str("user", s)
			}
		}
		evt.Msg("request completed")
	}
}
