package domain

import "time"

type RoomID string

// Playback is the last recorded state-change of a room's stream.
// The live position is never stored; it is reconstructed from these fields.
type Playback struct {
	IsPlaying    bool
	BasePosition float64 // seconds, never negative
	UpdatedAt    time.Time
}

type Room struct {
	ID           RoomID
	Title        string
	StreamSource string
	Playback     Playback
}
