package signal

import (
	"sync"

	"github.com/dkeye/WatchParty/internal/domain"
	"golang.org/x/time/rate"
)

// ConnRateLimiter keeps one token bucket per connection for chat and
// reactions. A non-positive limit disables it.
type ConnRateLimiter struct {
	mu      sync.Mutex
	buckets map[domain.ConnID]*rate.Limiter
	limit   rate.Limit
	burst   int
}

func NewConnRateLimiter(limit rate.Limit, burst int) *ConnRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &ConnRateLimiter{
		buckets: make(map[domain.ConnID]*rate.Limiter),
		limit:   limit,
		burst:   burst,
	}
}

func (rl *ConnRateLimiter) Allow(cid domain.ConnID) bool {
	if rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	l, ok := rl.buckets[cid]
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.buckets[cid] = l
	}
	rl.mu.Unlock()
	return l.Allow()
}

func (rl *ConnRateLimiter) Forget(cid domain.ConnID) {
	rl.mu.Lock()
	delete(rl.buckets, cid)
	rl.mu.Unlock()
}

func (rl *ConnRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}
