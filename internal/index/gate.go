package index

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// gateCacheSize bounds how many collections the gate remembers. One
// server rarely touches more than a handful of workspaces; evicting an
// old entry only costs one extra sync pass.
const gateCacheSize = 128

// ModificationGate rate-limits sync passes per collection. A pass is
// allowed when the collection has never been checked or the configured
// interval has elapsed since the last allowed pass.
type ModificationGate struct {
	mu       sync.Mutex
	interval time.Duration
	last     *lru.Cache[string, time.Time]
	now      func() time.Time
}

// NewModificationGate creates a gate with the given minimum interval
// between passes for any one collection.
func NewModificationGate(interval time.Duration) *ModificationGate {
	cache, _ := lru.New[string, time.Time](gateCacheSize)
	return &ModificationGate{
		interval: interval,
		last:     cache,
		now:      time.Now,
	}
}

// Allow reports whether a sync pass may run for collection now, and
// records the pass when it may. The check and the record are one
// atomic step so concurrent callers cannot both pass the gate.
func (g *ModificationGate) Allow(collection string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if last, ok := g.last.Get(collection); ok && now.Sub(last) < g.interval {
		return false
	}
	g.last.Add(collection, now)
	return true
}

// Reset forgets a collection's last pass so the next Allow succeeds.
// Used when a collection is deleted or a caller forces a sync.
func (g *ModificationGate) Reset(collection string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last.Remove(collection)
}

// NextAllowed returns when the gate will next allow a pass for
// collection. The zero time means a pass is allowed immediately.
func (g *ModificationGate) NextAllowed(collection string) time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()

	last, ok := g.last.Get(collection)
	if !ok {
		return time.Time{}
	}
	next := last.Add(g.interval)
	if !g.now().Before(next) {
		return time.Time{}
	}
	return next
}
