package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dkeye/WatchParty/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.Disabled, ParseLevel("off"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("nonsense"))
}

func TestGinMiddlewareRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(GinMiddleware(New(&buf, config.LogConfig{})))
	r.GET("/x", func(c *gin.Context) {
		c.Set(KeyUserID, "alice")
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	generated := w.Header().Get(HeaderRequestID)
	assert.NotEmpty(t, generated)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, generated, line["request_id"])
	assert.Equal(t, "alice", line["user"])
	assert.EqualValues(t, http.StatusNoContent, line["status"])

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "fixed-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "fixed-id", w.Header().Get(HeaderRequestID))
}
