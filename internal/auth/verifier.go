// Package auth verifies the opaque bearer credential a client presents and
// turns it into a domain.Identity. It never stores anything.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrExpiredCredential = fmt.Errorf("credential expired: %w", ErrInvalidCredential)
	ErrNoSecret          = errors.New("auth secret is empty")
)

// Claims mirrors the token layout issued by the login service.
type Claims struct {
	jwt.RegisteredClaims
	Name    string `json:"name,omitempty"`
	IsAdmin bool   `json:"isAdmin,omitempty"`
}

// Verifier validates a credential once per connection.
type Verifier interface {
	Verify(credential string) (domain.Identity, error)
}

// HMACVerifier checks HS256 tokens against a shared secret.
type HMACVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(secret string) (*HMACVerifier, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &HMACVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(5*time.Second),
		),
	}, nil
}

func (v *HMACVerifier) Verify(credential string) (domain.Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return domain.Identity{}, ErrMissingCredential
	}

	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(credential, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, ErrExpiredCredential
		}
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	id, err := domain.NewIdentity(claims.Subject, claims.Name, claims.IsAdmin)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	return id, nil
}
