package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockman-dev/dockman/internal/resource"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func records(names ...string) []resource.Record {
	out := make([]resource.Record, 0, len(names))
	for _, n := range names {
		out = append(out, resource.VolumeRecord{Name: n})
	}
	return out
}

func TestCache_InitiallyStale(t *testing.T) {
	c := New()
	for _, k := range resource.Kinds() {
		data, fresh := c.Get(k)
		assert.Nil(t, data)
		assert.False(t, fresh)
		assert.Equal(t, time.Duration(-1), c.Age(k))
	}
}

func TestCache_FreshWithinTTL(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now))

	c.Set(resource.Volume, records("a"))

	clock.Advance(3 * time.Second)
	data, fresh := c.Get(resource.Volume)
	assert.True(t, fresh)
	assert.Len(t, data, 1)
	assert.Equal(t, 3*time.Second, c.Age(resource.Volume))

	clock.Advance(2 * time.Second)
	data, fresh = c.Get(resource.Volume)
	assert.False(t, fresh, "exactly TTL old is stale")
	assert.Len(t, data, 1, "stale data is still returned")
}

func TestCache_Invalidate(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now))
	c.Set(resource.Image, records("x"))

	before := c.Epoch(resource.Image)
	c.Invalidate(resource.Image)

	_, fresh := c.Get(resource.Image)
	assert.False(t, fresh)
	assert.Equal(t, before+1, c.Epoch(resource.Image))

	snap, at := c.Snapshot(resource.Image)
	assert.Len(t, snap, 1, "invalidation keeps the last snapshot")
	assert.Equal(t, clock.Now(), at)
}

func TestCache_SlotsAreIndependent(t *testing.T) {
	c := New()
	c.Set(resource.Container, records("c"))
	c.Invalidate(resource.Network)

	_, fresh := c.Get(resource.Container)
	assert.True(t, fresh)
	assert.Equal(t, uint64(0), c.Epoch(resource.Container))
	assert.Equal(t, uint64(1), c.Epoch(resource.Network))
}

func TestCache_SetIfEpoch(t *testing.T) {
	c := New()

	epoch := c.Epoch(resource.Container)
	require.True(t, c.SetIfEpoch(resource.Container, records("first"), epoch))

	// A mutation lands while the next fetch is in flight.
	epoch = c.Epoch(resource.Container)
	c.Invalidate(resource.Container)
	assert.False(t, c.SetIfEpoch(resource.Container, records("stale"), epoch))

	data, fresh := c.Get(resource.Container)
	assert.False(t, fresh)
	assert.Equal(t, "first", data[0].Key())

	_, _, current := c.Lookup(resource.Container)
	assert.True(t, c.SetIfEpoch(resource.Container, records("second"), current))
	data, fresh = c.Get(resource.Container)
	assert.True(t, fresh)
	assert.Equal(t, "second", data[0].Key())
}

func TestCache_InvalidateAll(t *testing.T) {
	c := New()
	for _, k := range resource.Kinds() {
		c.Set(k, records("v"))
	}
	c.InvalidateAll()
	for _, k := range resource.Kinds() {
		_, fresh := c.Get(k)
		assert.False(t, fresh, k.String())
	}
}

func TestCache_InvalidKindPanics(t *testing.T) {
	c := New()
	assert.Panics(t, func() { c.Get(resource.Kind(9)) })
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			c.Set(resource.Container, records("a"))
		}()
		go func() {
			defer wg.Done()
			c.Invalidate(resource.Container)
		}()
		go func() {
			defer wg.Done()
			_, _ = c.Get(resource.Container)
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(20), c.Epoch(resource.Container))
}
