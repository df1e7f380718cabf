package scan

import (
	"sync"
	"time"
)

// CooldownGuard keeps short-lived per-asset timers that stop a clerk's
// immediate re-scan of a just-handed-off item from being misread as a
// return request. Purely in-memory; never persisted or shared across
// sessions.
type CooldownGuard struct {
	mu       sync.Mutex
	expiries map[string]time.Time
	now      func() time.Time
}

// NewCooldownGuard builds an empty guard.
func NewCooldownGuard() *CooldownGuard {
	return &CooldownGuard{
		expiries: make(map[string]time.Time),
		now:      time.Now,
	}
}

// WithClock overrides the wall clock, for tests.
func (g *CooldownGuard) WithClock(now func() time.Time) *CooldownGuard {
	g.now = now
	return g
}

// Arm starts a cooldown window for the asset.
func (g *CooldownGuard) Arm(assetID string, d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.expiries[assetID] = g.now().Add(d)
}

// Active reports whether the asset is still cooling down, self-clearing
// expired entries.
func (g *CooldownGuard) Active(assetID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	deadline, ok := g.expiries[assetID]
	if !ok {
		return false
	}
	if g.now().After(deadline) {
		delete(g.expiries, assetID)
		return false
	}
	return true
}

// Remaining returns how long the asset's cooldown has left, zero when none.
func (g *CooldownGuard) Remaining(assetID string) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	deadline, ok := g.expiries[assetID]
	if !ok {
		return 0
	}
	remaining := deadline.Sub(g.now())
	if remaining < 0 {
		delete(g.expiries, assetID)
		return 0
	}
	return remaining
}
