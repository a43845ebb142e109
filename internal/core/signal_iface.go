package core

import "errors"

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// Frame is one encoded outbound event.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
// TrySend never blocks: a full queue reports ErrBackpressure.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
