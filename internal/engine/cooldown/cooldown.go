// Package cooldown throttles positive verdicts so that a card held in front
// of the camera fires once per window instead of once per frame.
package cooldown

import (
	"sync"
	"time"

	"github.com/hejijunhao/khmerid/internal/model"
)

// DefaultDuration is the minimum interval between two forwarded positive verdicts.
const DefaultDuration = time.Second

// State is the gate's position in its two-state machine.
type State int

const (
	// Idle means no positive verdict was accepted within the window.
	Idle State = iota
	// Cooling means a positive verdict was accepted less than one window ago.
	Cooling
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Cooling:
		return "cooling"
	default:
		return "unknown"
	}
}

// Gate decides whether a verdict reaches the caller. Negative verdicts always
// pass and never touch the state; a positive verdict passes only when the
// previous accepted one is at least Duration older. Safe for concurrent use.
type Gate struct {
	duration time.Duration

	mu           sync.Mutex
	lastAccepted time.Time
	accepted     bool
}

// New creates a Gate in the Idle state. A non-positive d falls back to
// DefaultDuration.
func New(d time.Duration) *Gate {
	if d <= 0 {
		d = DefaultDuration
	}
	return &Gate{duration: d}
}

// Duration returns the cooldown window.
func (g *Gate) Duration() time.Duration {
	return g.duration
}

// Admit reports whether v should be forwarded. When a positive verdict is
// admitted its timestamp becomes the start of a new cooldown window. The
// check and the update happen under one lock.
func (g *Gate) Admit(v model.Verdict) bool {
	if !v.Valid {
		return true
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// An out-of-order completion older than the last accepted frame yields a
	// negative elapsed time and stays suppressed.
	if g.accepted && v.ObservedAt.Sub(g.lastAccepted) < g.duration {
		return false
	}
	g.lastAccepted = v.ObservedAt
	g.accepted = true
	return true
}

// State reports the gate state as seen at now.
func (g *Gate) State(now time.Time) State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.accepted && now.Sub(g.lastAccepted) < g.duration {
		return Cooling
	}
	return Idle
}

// LastAccepted returns the timestamp of the last admitted positive verdict.
// ok is false when none has been admitted since creation or the last Reset.
func (g *Gate) LastAccepted() (at time.Time, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastAccepted, g.accepted
}

// Reset returns the gate to Idle, forgetting the last accepted verdict.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastAccepted = time.Time{}
	g.accepted = false
}
