package http

import (
	"fmt"
	"strings"

	"github.com/dkeye/WatchParty/internal/auth"
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/dkeye/WatchParty/internal/logger"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	SessionName     = "WatchPartySession"
	sessionTokenKey = "token"
	identityKey     = "identity"
	authHeader      = "Authorization"
	bearerPrefix    = "Bearer "
)

// credential picks the first present source: bearer header, ?token= query,
// then the cookie session.
func credential(c *gin.Context) (string, error) {
	if h := c.GetHeader(authHeader); h != "" {
		if !strings.HasPrefix(h, bearerPrefix) {
			return "", fmt.Errorf("%w: authorization is not a bearer token", auth.ErrInvalidCredential)
		}
		return strings.TrimPrefix(h, bearerPrefix), nil
	}
	if tok := c.Query("token"); tok != "" {
		return tok, nil
	}
	if tok, ok := sessions.Default(c).Get(sessionTokenKey).(string); ok && tok != "" {
		return tok, nil
	}
	return "", auth.ErrMissingCredential
}

// RequireIdentity verifies the credential and aborts with 401 when it is
// missing or bad. Privilege is not checked here.
func RequireIdentity(v auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := credential(c)
		if err != nil {
			writeError(c, err)
			return
		}
		id, err := v.Verify(raw)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Set(identityKey, id)
		c.Set(logger.KeyUserID, string(id.SubjectID))
		c.Next()
	}
}

func identity(c *gin.Context) domain.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(domain.Identity); ok {
			return id
		}
	}
	return domain.Identity{}
}
