package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func pngArtifact(data string) Artifact {
	return Artifact{Name: "qris.png", ContentType: "image/png", Data: []byte(data)}
}

func TestPutGet(t *testing.T) {
	clock := newFakeClock()
	c := New(Options{Clock: clock})

	id := c.Put(pngArtifact("png-bytes"), 0)
	require.NotEmpty(t, id)

	got, ok := c.Get(id)
	require.True(t, ok)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "image/png", got.ContentType)
	assert.Equal(t, []byte("png-bytes"), got.Data)
	assert.Equal(t, clock.Now(), got.CreatedAt)
	assert.Equal(t, clock.Now().Add(DefaultTTL), got.ExpiresAt)
}

func TestGetUnknown(t *testing.T) {
	c := New(Options{Clock: newFakeClock()})
	_, ok := c.Get("does-not-exist")
	assert.False(t, ok)
}

func TestExpiryBoundary(t *testing.T) {
	clock := newFakeClock()
	c := New(Options{Clock: clock})
	ttl := 2 * time.Minute
	id := c.Put(pngArtifact("x"), ttl)

	clock.Advance(ttl - time.Nanosecond)
	_, ok := c.Get(id)
	assert.True(t, ok, "entry must be live one nanosecond before expiry")

	clock.Advance(time.Nanosecond)
	_, ok = c.Get(id)
	assert.False(t, ok, "entry must be gone at expiry even without a sweep")
	assert.Equal(t, 1, c.Len(), "a stale read must not remove the entry")
}

func TestSweep(t *testing.T) {
	clock := newFakeClock()
	c := New(Options{Clock: clock})
	short := c.Put(pngArtifact("short"), time.Minute)
	long := c.Put(pngArtifact("long"), 10*time.Minute)

	assert.Equal(t, 0, c.Sweep())

	clock.Advance(time.Minute)
	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get(short)
	assert.False(t, ok)
	_, ok = c.Get(long)
	assert.True(t, ok)
}

func TestStartSweeper(t *testing.T) {
	clock := newFakeClock()
	c := New(Options{Clock: clock, SweepInterval: 5 * time.Millisecond})
	c.Put(pngArtifact("a"), time.Minute)
	c.Put(pngArtifact("b"), time.Minute)
	clock.Advance(time.Hour)

	var mu sync.Mutex
	total := 0
	stop := c.StartSweeper(func(removed int) {
		mu.Lock()
		total += removed
		mu.Unlock()
	})
	defer stop()

	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
	stop()
	stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, total)
}

func TestUniqueIDs(t *testing.T) {
	c := New(Options{Clock: newFakeClock()})
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id := c.Put(pngArtifact("x"), 0)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
	assert.Equal(t, 10000, c.Len())
}

func TestPutRedrawsCollidingID(t *testing.T) {
	ids := []string{"fixed", "fixed", "fresh"}
	next := 0
	c := New(Options{
		Clock: newFakeClock(),
		NewID: func() string {
			id := ids[next]
			next++
			return id
		},
	})
	assert.Equal(t, "fixed", c.Put(pngArtifact("1"), 0))
	assert.Equal(t, "fresh", c.Put(pngArtifact("2"), 0))

	first, ok := c.Get("fixed")
	require.True(t, ok)
	assert.Equal(t, []byte("1"), first.Data)
}

func TestDataIsCopied(t *testing.T) {
	c := New(Options{Clock: newFakeClock()})
	src := []byte("abc")
	id := c.Put(Artifact{Data: src}, 0)
	src[0] = 'z'

	got, ok := c.Get(id)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), got.Data)

	got.Data[1] = 'z'
	again, _ := c.Get(id)
	assert.Equal(t, []byte("abc"), again.Data)
}

func TestCapacityDropsOldestUnread(t *testing.T) {
	c := New(Options{Clock: newFakeClock(), Capacity: 2})
	first := c.Put(pngArtifact("1"), 0)
	second := c.Put(pngArtifact("2"), 0)
	third := c.Put(pngArtifact("3"), 0)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(first)
	assert.False(t, ok)
	for _, id := range []string{second, third} {
		_, ok := c.Get(id)
		assert.True(t, ok, id)
	}
}

func TestCapacityKeepsRecentlyRead(t *testing.T) {
	c := New(Options{Clock: newFakeClock(), Capacity: 2})
	first := c.Put(pngArtifact("1"), 0)
	second := c.Put(pngArtifact("2"), 0)
	_, ok := c.Get(first)
	require.True(t, ok)

	third := c.Put(pngArtifact("3"), 0)

	assert.Equal(t, 2, c.Len())
	_, ok = c.Get(second)
	assert.False(t, ok, "unread entry should be evicted")
	for _, id := range []string{first, third} {
		_, ok := c.Get(id)
		assert.True(t, ok, id)
	}
}

func TestConcurrentAccess(t *testing.T) {
	clock := newFakeClock()
	c := New(Options{Clock: clock})
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := c.Put(pngArtifact(fmt.Sprintf("%d-%d", w, i)), time.Minute)
				if _, ok := c.Get(id); !ok {
					t.Errorf("Get(%s) missed right after Put", id)
					return
				}
				if i%50 == 0 {
					c.Sweep()
				}
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, 1600, c.Len())
}
