package core

import "time"

// Clock is the single source of "now" for playback math.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// UnixMilli is the wire representation of server time.
func UnixMilli(t time.Time) int64 { return t.UnixMilli() }
