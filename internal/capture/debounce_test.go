package capture

import (
	"testing"
	"time"
)

// fakeClock steps time manually for gate tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func TestGate_SuppressesRapidTriggers(t *testing.T) {
	clock := newFakeClock()
	g := NewGate(time.Second)
	g.now = clock.now

	if !g.Allow() {
		t.Fatal("first trigger should be allowed")
	}
	if g.Allow() {
		t.Error("immediate second trigger should be suppressed")
	}

	clock.advance(500 * time.Millisecond)
	if g.Allow() {
		t.Error("trigger within interval should be suppressed")
	}

	clock.advance(600 * time.Millisecond)
	if !g.Allow() {
		t.Error("trigger after interval should be allowed")
	}
}

func TestGate_ZeroIntervalAllowsEverything(t *testing.T) {
	g := NewGate(0)
	for i := 0; i < 5; i++ {
		if !g.Allow() {
			t.Fatalf("trigger %d should be allowed with zero interval", i)
		}
	}
}
