package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

const (
	// DefaultTTL is applied when Put is called with a non-positive ttl.
	DefaultTTL = 5 * time.Minute
	// DefaultSweepInterval is how often StartSweeper purges expired entries.
	DefaultSweepInterval = time.Minute
)

// Eviction reasons passed to Options.OnEvict.
const (
	ReasonExpired  = "expired"
	ReasonCapacity = "capacity"
)

// Clock supplies the current time for expiry decisions.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// Artifact is a generated file held for later download.
type Artifact struct {
	ID          string
	Name        string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Options configures a Cache. Zero values select defaults.
type Options struct {
	TTL           time.Duration
	SweepInterval time.Duration
	// Capacity bounds the number of entries; the least recently used entry
	// is dropped when a Put would exceed it. A successful Get counts as a
	// use. Zero means unbounded.
	Capacity uint64
	Clock    Clock
	NewID    func() string
	// OnEvict is called with one of the Reason constants whenever an entry
	// leaves the cache. It must not call back into the Cache.
	OnEvict func(reason string)
}

// Cache stores artifacts under unguessable ids until they expire.
type Cache struct {
	items    *ttlcache.Cache[string, Artifact]
	clock    Clock
	newID    func() string
	ttl      time.Duration
	interval time.Duration
}

// New builds a Cache from opts.
func New(opts Options) *Cache {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	interval := opts.SweepInterval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	newID := opts.NewID
	if newID == nil {
		newID = newArtifactID
	}

	cacheOpts := []ttlcache.Option[string, Artifact]{
		ttlcache.WithTTL[string, Artifact](ttl),
		ttlcache.WithDisableTouchOnHit[string, Artifact](), // expiry is fixed at Put time
	}
	if opts.Capacity > 0 {
		cacheOpts = append(cacheOpts, ttlcache.WithCapacity[string, Artifact](opts.Capacity))
	}
	items := ttlcache.New[string, Artifact](cacheOpts...)

	if opts.OnEvict != nil {
		onEvict := opts.OnEvict
		items.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, _ *ttlcache.Item[string, Artifact]) {
			onEvict(evictionReason(reason))
		})
	}

	return &Cache{
		items:    items,
		clock:    clock,
		newID:    newID,
		ttl:      ttl,
		interval: interval,
	}
}

func evictionReason(r ttlcache.EvictionReason) string {
	switch r {
	case ttlcache.EvictionReasonCapacityReached:
		return ReasonCapacity
	case ttlcache.EvictionReasonExpired:
		return ReasonExpired
	default:
		// Sweep removes entries with Delete once our clock says they expired.
		return ReasonExpired
	}
}

// Put stores a copy of art and returns its new id. A non-positive ttl means
// the cache default.
func (c *Cache) Put(art Artifact, ttl time.Duration) string {
	if ttl <= 0 {
		ttl = c.ttl
	}
	id := c.newID()
	for c.items.Has(id) {
		id = c.newID()
	}
	now := c.clock.Now()
	art.ID = id
	art.Data = append([]byte(nil), art.Data...)
	art.CreatedAt = now
	art.ExpiresAt = now.Add(ttl)
	c.items.Set(id, art, ttl)
	return id
}

// Get returns the artifact for id while it is live. Unknown and expired ids
// are indistinguishable to the caller.
func (c *Cache) Get(id string) (Artifact, bool) {
	item := c.items.Get(id)
	if item == nil {
		return Artifact{}, false
	}
	art := item.Value()
	if !c.clock.Now().Before(art.ExpiresAt) {
		return Artifact{}, false
	}
	art.Data = append([]byte(nil), art.Data...)
	return art, true
}

// Sweep deletes every expired entry and returns how many were removed.
func (c *Cache) Sweep() int {
	now := c.clock.Now()
	removed := 0
	for id, item := range c.items.Items() {
		if !now.Before(item.Value().ExpiresAt) {
			c.items.Delete(id)
			removed++
		}
	}
	// Items skips entries ttlcache already considers expired by wall time.
	c.items.DeleteExpired()
	return removed
}

// Now reads the clock that expiry decisions are made against.
func (c *Cache) Now() time.Time {
	return c.clock.Now()
}

// Len reports the number of stored entries, expired ones included until
// the next sweep.
func (c *Cache) Len() int {
	return c.items.Len()
}

// StartSweeper runs Sweep on the configured interval until the returned
// stop function is called. onSweep, when non-nil, receives each result.
func (c *Cache) StartSweeper(onSweep func(removed int)) func() {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				removed := c.Sweep()
				if onSweep != nil {
					onSweep(removed)
				}
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}

func newArtifactID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
