package http

import (
	"errors"
	nethttp "net/http"

	"github.com/dkeye/WatchParty/internal/auth"
	"github.com/dkeye/WatchParty/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Response is the envelope of every REST reply.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeInternal     = "INTERNAL_ERROR"
)

func success(c *gin.Context, data any) {
	c.JSON(nethttp.StatusOK, Response{Success: true, Data: data})
}

func created(c *gin.Context, data any) {
	c.JSON(nethttp.StatusCreated, Response{Success: true, Data: data})
}

func fail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Error:   &ErrorInfo{Code: code, Message: message},
	})
}

// writeError is the only place errors become status codes.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingCredential):
		fail(c, nethttp.StatusUnauthorized, CodeUnauthorized, "missing credential")
	case errors.Is(err, auth.ErrExpiredCredential):
		fail(c, nethttp.StatusUnauthorized, CodeUnauthorized, "credential expired")
	case errors.Is(err, auth.ErrInvalidCredential):
		fail(c, nethttp.StatusUnauthorized, CodeUnauthorized, "invalid credential")
	case errors.Is(err, core.ErrForbidden):
		fail(c, nethttp.StatusForbidden, CodeForbidden, "privileged identity required")
	case errors.Is(err, core.ErrNotFound):
		fail(c, nethttp.StatusNotFound, CodeNotFound, "room not found")
	case errors.Is(err, core.ErrValidation):
		fail(c, nethttp.StatusBadRequest, CodeBadRequest, err.Error())
	default:
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("unhandled error")
		fail(c, nethttp.StatusInternalServerError, CodeInternal, "internal error")
	}
}
