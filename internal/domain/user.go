// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

const (
	MaxSubjectLen     = 128
	MaxDisplayNameLen = 64
)

var (
	ErrSubjectEmpty       = errors.New("subject empty")
	ErrSubjectTooLong     = errors.New("subject too long")
	ErrDisplayNameTooLong = errors.New("display name too long")
)

type UserID string

// Identity is what a verified credential says about its holder.
// It is fixed at handshake and never re-derived for the connection's lifetime.
type Identity struct {
	SubjectID    UserID `json:"id"`
	DisplayName  string `json:"name"`
	IsPrivileged bool   `json:"isAdmin"`
}

// NewIdentity is a tiny helper to avoid ad-hoc struct literals in adapters.
// An empty display name falls back to the subject.
func NewIdentity(subject, displayName string, privileged bool) (Identity, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return Identity{}, ErrSubjectEmpty
	}
	if len(subject) > MaxSubjectLen {
		return Identity{}, ErrSubjectTooLong
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = subject
	}
	if len([]rune(displayName)) > MaxDisplayNameLen {
		return Identity{}, ErrDisplayNameTooLong
	}
	return Identity{SubjectID: UserID(subject), DisplayName: displayName, IsPrivileged: privileged}, nil
}

// Sender is the public part of an identity attached to relayed events.
type Sender struct {
	ID   UserID `json:"id"`
	Name string `json:"name"`
}

func (i Identity) Sender() Sender {
	return Sender{ID: i.SubjectID, Name: i.DisplayName}
}
