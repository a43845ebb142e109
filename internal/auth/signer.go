package auth

import (
	"time"

	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Signer mints development credentials in the same layout Verify accepts.
// Production credentials come from the login service.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (s *Signer) Sign(id domain.Identity) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(id.SubjectID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Name:    id.DisplayName,
		IsAdmin: id.IsPrivileged,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
