package schedule

import (
	"sync"
	"time"

	"github.com/trezcool/ratiba/core/timegrid"
)

// snapshot is the normalized data set behind every view of one filter.
// Callers must treat it as read-only.
type snapshot struct {
	normalized []timegrid.Normalized
	rejected   []timegrid.Rejected
}

type cacheEntry struct {
	snap    snapshot
	expires time.Time
}

// gridCache keeps snapshots per filter until the TTL elapses or a schedule event invalidates them.
// A zero or negative TTL disables caching.
type gridCache struct {
	ttl time.Duration
	now func() time.Time // mockable

	mu      sync.Mutex
	gen     uint64 // bumped on every invalidation
	entries map[QueryFilter]cacheEntry
}

func newGridCache(ttl time.Duration) *gridCache {
	return &gridCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[QueryFilter]cacheEntry),
	}
}

// get returns the cached snapshot for key and the generation to pass back to put.
func (c *gridCache) get(key QueryFilter) (snapshot, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ttl <= 0 {
		return snapshot{}, c.gen, false
	}
	entry, ok := c.entries[key]
	if !ok {
		return snapshot{}, c.gen, false
	}
	if !c.now().Before(entry.expires) {
		delete(c.entries, key)
		return snapshot{}, c.gen, false
	}
	return entry.snap, c.gen, true
}

// put stores snap unless the cache was invalidated since gen was read,
// in which case snap may predate the change and is dropped.
func (c *gridCache) put(key QueryFilter, snap snapshot, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ttl <= 0 || gen != c.gen {
		return
	}
	c.entries[key] = cacheEntry{snap: snap, expires: c.now().Add(c.ttl)}
}

func (c *gridCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.entries = make(map[QueryFilter]cacheEntry)
}

func (c *gridCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
