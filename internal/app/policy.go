package app

import "github.com/dkeye/WatchParty/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

// Policy decides what happens to a connection whose outbound queue is full.
type Policy interface {
	OnBackPressure(cid domain.ConnID) BackpressureAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.ConnID) BackpressureAction {
	return KickMember
}
