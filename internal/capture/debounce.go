package capture

import (
	"sync"
	"time"
)

// Gate suppresses rapid repeated triggers of the same action, such as a
// double-tapped save button or mic toggle. Allow reports whether the trigger
// should fire, and records it when it does.
type Gate struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

// NewGate creates a gate requiring at least interval between allowed
// triggers. A non-positive interval allows everything.
func NewGate(interval time.Duration) *Gate {
	return &Gate{interval: interval, now: time.Now}
}

// Allow reports whether enough time has passed since the last allowed
// trigger.
func (g *Gate) Allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.interval <= 0 {
		return true
	}
	now := g.now()
	if !g.last.IsZero() && now.Sub(g.last) < g.interval {
		return false
	}
	g.last = now
	return true
}
