package core

import (
	"math"
	"time"

	"github.com/dkeye/WatchParty/internal/domain"
)

// CurrentPosition reconstructs the stream position in seconds at now.
// A paused room reports its frozen base position; a playing room adds the
// wall-clock time elapsed since the last state change.
func CurrentPosition(p domain.Playback, now time.Time) float64 {
	if !p.IsPlaying {
		return p.BasePosition
	}
	elapsed := now.Sub(p.UpdatedAt).Seconds()
	return math.Max(0, p.BasePosition+elapsed)
}

// VideoState is the public view of a room's playback.
type VideoState struct {
	IsPlaying  bool    `json:"isPlaying"`
	Position   float64 `json:"position"`
	ServerTime int64   `json:"serverTime"`
}

func PublicVideoState(p domain.Playback, now time.Time) VideoState {
	return VideoState{
		IsPlaying:  p.IsPlaying,
		Position:   CurrentPosition(p, now),
		ServerTime: UnixMilli(now),
	}
}

type ActionKind string

const (
	ActionPlay  ActionKind = "play"
	ActionPause ActionKind = "pause"
	ActionSeek  ActionKind = "seek"
)

type ControlAction struct {
	Kind     ActionKind
	Position float64
}

func Play() ControlAction              { return ControlAction{Kind: ActionPlay} }
func Pause() ControlAction             { return ControlAction{Kind: ActionPause} }
func SeekTo(pos float64) ControlAction { return ControlAction{Kind: ActionSeek, Position: pos} }

// ParseControl turns wire fields into an action. Seek requires a finite position.
func ParseControl(action string, position *float64) (ControlAction, error) {
	switch ActionKind(action) {
	case ActionPlay:
		return Play(), nil
	case ActionPause:
		return Pause(), nil
	case ActionSeek:
		if position == nil {
			return ControlAction{}, validationf("seek requires a position")
		}
		if math.IsNaN(*position) || math.IsInf(*position, 0) {
			return ControlAction{}, validationf("seek position must be finite")
		}
		return SeekTo(*position), nil
	default:
		return ControlAction{}, validationf("unknown action %q", action)
	}
}

// apply returns the playback after the action at now.
func (a ControlAction) apply(p domain.Playback, now time.Time) domain.Playback {
	switch a.Kind {
	case ActionPlay:
		if p.IsPlaying {
			// Refresh the timestamp without moving the reported position.
			p.BasePosition = CurrentPosition(p, now)
		}
		p.IsPlaying = true
	case ActionPause:
		p.BasePosition = CurrentPosition(p, now)
		p.IsPlaying = false
	case ActionSeek:
		p.BasePosition = math.Max(0, a.Position)
	}
	p.UpdatedAt = now
	return p
}
