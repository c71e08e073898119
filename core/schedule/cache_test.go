package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ratiba/core/timegrid"
)

func TestGridCache(t *testing.T) {
	now := time.Date(2021, time.March, 1, 8, 0, 0, 0, time.UTC)
	cache := newGridCache(time.Minute)
	cache.now = func() time.Time { return now }

	key := QueryFilter{Room: "B12"}
	snap := snapshot{normalized: []timegrid.Normalized{{Start: 420, End: 480}}}

	_, gen, ok := cache.get(key)
	assert.False(t, ok, "empty cache hit")

	cache.put(key, snap, gen)
	got, _, ok := cache.get(key)
	assert.True(t, ok)
	assert.Equal(t, snap, got)

	_, _, ok = cache.get(QueryFilter{Room: "B13"})
	assert.False(t, ok, "hit for another filter")

	// expiry
	now = now.Add(time.Minute)
	_, _, ok = cache.get(key)
	assert.False(t, ok, "hit after ttl")
	assert.Equal(t, 0, cache.len())
}

func TestGridCache_invalidate(t *testing.T) {
	cache := newGridCache(time.Hour)
	key := QueryFilter{}

	_, gen, _ := cache.get(key)
	cache.put(key, snapshot{}, gen)
	cache.invalidate()
	_, _, ok := cache.get(key)
	assert.False(t, ok, "hit after invalidate")

	// a fetch that started before the invalidation must not be stored
	_, staleGen, _ := cache.get(key)
	cache.invalidate()
	cache.put(key, snapshot{}, staleGen)
	assert.Equal(t, 0, cache.len())
}

func TestGridCache_disabled(t *testing.T) {
	cache := newGridCache(0)
	_, gen, _ := cache.get(QueryFilter{})
	cache.put(QueryFilter{}, snapshot{}, gen)
	_, _, ok := cache.get(QueryFilter{})
	assert.False(t, ok)
}
