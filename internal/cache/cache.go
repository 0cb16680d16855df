// Package cache holds the last snapshot of each resource kind with a fixed
// freshness window. Every kind has its own slot and lock, so reads and
// writes of one kind never contend with another.
package cache

import (
	"sync"
	"time"

	"github.com/dockman-dev/dockman/internal/resource"
)

// TTL is how long a snapshot stays fresh after it was written.
const TTL = 5 * time.Second

// Clock returns the current time. Tests replace it to control freshness.
type Clock func() time.Time

type slot struct {
	mu         sync.Mutex
	data       []resource.Record
	lastUpdate time.Time // zero means stale
	written    time.Time
	epoch      uint64
}

// Cache is a fixed set of per-kind slots. The zero value is not usable;
// create one with New.
type Cache struct {
	slots [resource.NumKinds]slot
	now   Clock
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now Clock) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a cache with every slot empty and stale.
func New(opts ...Option) *Cache {
	c := &Cache{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) slot(kind resource.Kind) *slot {
	if !kind.Valid() {
		panic("cache: invalid resource kind " + kind.String())
	}
	return &c.slots[kind]
}

func (c *Cache) fresh(s *slot) bool {
	if s.lastUpdate.IsZero() {
		return false
	}
	return c.now().Sub(s.lastUpdate) < TTL
}

// Get returns the slot's data and whether it is still fresh.
func (c *Cache) Get(kind resource.Kind) ([]resource.Record, bool) {
	s := c.slot(kind)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data, c.fresh(s)
}

// Set replaces the slot's data and stamps it with the current time.
func (c *Cache) Set(kind resource.Kind, data []resource.Record) {
	s := c.slot(kind)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	s.lastUpdate = c.now()
	s.written = s.lastUpdate
}

// SetIfEpoch writes data only if no invalidation happened since epoch was
// observed. It reports whether the write took place.
func (c *Cache) SetIfEpoch(kind resource.Kind, data []resource.Record, epoch uint64) bool {
	s := c.slot(kind)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return false
	}
	s.data = data
	s.lastUpdate = c.now()
	s.written = s.lastUpdate
	return true
}

// Invalidate marks the slot stale and advances its epoch. The data is kept
// so Snapshot can still show it.
func (c *Cache) Invalidate(kind resource.Kind) {
	s := c.slot(kind)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUpdate = time.Time{}
	s.epoch++
}

// InvalidateAll invalidates every slot.
func (c *Cache) InvalidateAll() {
	for _, k := range resource.Kinds() {
		c.Invalidate(k)
	}
}

// Epoch returns the slot's current invalidation counter.
func (c *Cache) Epoch(kind resource.Kind) uint64 {
	s := c.slot(kind)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Lookup returns the slot's data, freshness and epoch under one lock.
func (c *Cache) Lookup(kind resource.Kind) (data []resource.Record, fresh bool, epoch uint64) {
	s := c.slot(kind)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data, c.fresh(s), s.epoch
}

// Snapshot returns the last written data and when it was written,
// regardless of freshness. The time is zero if the slot was never written.
func (c *Cache) Snapshot(kind resource.Kind) ([]resource.Record, time.Time) {
	s := c.slot(kind)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data, s.written
}

// Age returns how long ago the slot was last written, or -1 if never.
func (c *Cache) Age(kind resource.Kind) time.Duration {
	s := c.slot(kind)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.written.IsZero() {
		return -1
	}
	return c.now().Sub(s.written)
}
