package index

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock lets gate tests advance time manually.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestGate(interval time.Duration) (*ModificationGate, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	gate := NewModificationGate(interval)
	gate.now = func() time.Time { return clock.now }
	return gate, clock
}

func TestGate_FirstCheckAllowed(t *testing.T) {
	gate, _ := newTestGate(5 * time.Minute)
	assert.True(t, gate.Allow("col_a"))
}

func TestGate_SuppressedWithinInterval(t *testing.T) {
	gate, clock := newTestGate(5 * time.Minute)

	assert.True(t, gate.Allow("col_a"))
	assert.False(t, gate.Allow("col_a"))

	clock.advance(4 * time.Minute)
	assert.False(t, gate.Allow("col_a"))
}

func TestGate_AllowedAfterInterval(t *testing.T) {
	gate, clock := newTestGate(5 * time.Minute)

	assert.True(t, gate.Allow("col_a"))
	clock.advance(5 * time.Minute)
	assert.True(t, gate.Allow("col_a"))
	assert.False(t, gate.Allow("col_a"))
}

func TestGate_CollectionsAreIndependent(t *testing.T) {
	gate, _ := newTestGate(5 * time.Minute)

	assert.True(t, gate.Allow("col_a"))
	assert.True(t, gate.Allow("col_b"))
	assert.False(t, gate.Allow("col_a"))
	assert.False(t, gate.Allow("col_b"))
}

func TestGate_ResetReopensImmediately(t *testing.T) {
	gate, _ := newTestGate(5 * time.Minute)

	assert.True(t, gate.Allow("col_a"))
	assert.False(t, gate.Allow("col_a"))

	gate.Reset("col_a")
	assert.True(t, gate.Allow("col_a"))
}

func TestGate_NextAllowed(t *testing.T) {
	gate, clock := newTestGate(5 * time.Minute)

	assert.True(t, gate.NextAllowed("col_a").IsZero())

	assert.True(t, gate.Allow("col_a"))
	next := gate.NextAllowed("col_a")
	assert.Equal(t, clock.now.Add(5*time.Minute), next)

	clock.advance(5 * time.Minute)
	assert.True(t, gate.NextAllowed("col_a").IsZero())
}

func TestGate_EvictionBoundsMemory(t *testing.T) {
	gate, _ := newTestGate(5 * time.Minute)

	for i := 0; i < gateCacheSize*2; i++ {
		assert.True(t, gate.Allow(fmt.Sprintf("col_%d", i)))
	}
	// Early entries were evicted and are allowed again right away.
	assert.True(t, gate.Allow("col_0"))
}
