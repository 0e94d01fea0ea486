package invsdk

import (
	"sync"
	"time"
)

// Cache keys for list reads.
const (
	cacheItems      = "items"
	cacheCategories = "categories"
	cacheUsers      = "users"
)

// DefaultCacheTTL bounds how long a cached list is served.
const DefaultCacheTTL = 30 * time.Second

type cacheEntry struct {
	value   any
	expires time.Time
}

// queryCache holds decoded list responses keyed by resource. Mutations
// invalidate the affected key so the next read goes to the API.
//
// Every invalidation bumps the key's generation. A load only stores its
// result if the generation it started under is still current, so a read that
// raced a mutation never writes pre-mutation data back.
type queryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry

	epoch         uint64
	generations   map[string]uint64
	invalidations map[string]int
}

// generation identifies the cache state a load started under.
type generation struct {
	epoch uint64
	key   uint64
}

func newQueryCache(ttl time.Duration) *queryCache {
	return &queryCache{
		ttl:           ttl,
		now:           time.Now,
		entries:       make(map[string]cacheEntry),
		generations:   make(map[string]uint64),
		invalidations: make(map[string]int),
	}
}

func (c *queryCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *queryCache) generation(key string) generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return generation{epoch: c.epoch, key: c.generations[key]}
}

// put stores value unless key was invalidated or the cache reset since gen.
func (c *queryCache) put(key string, gen generation, value any) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != (generation{epoch: c.epoch, key: c.generations[key]}) {
		return
	}
	c.entries[key] = cacheEntry{value: value, expires: c.now().Add(c.ttl)}
}

func (c *queryCache) invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.generations[key]++
	c.invalidations[key]++
	c.mu.Unlock()
}

func (c *queryCache) reset() {
	c.mu.Lock()
	clear(c.entries)
	c.epoch++
	c.mu.Unlock()
}

func (c *queryCache) invalidationCount(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidations[key]
}

// cachedList serves key from the cache or loads it with fetch.
func cachedList[T any](c *queryCache, key string, fetch func() ([]T, error)) ([]T, error) {
	if v, ok := c.get(key); ok {
		if list, ok := v.([]T); ok {
			return append([]T(nil), list...), nil
		}
	}
	gen := c.generation(key)
	list, err := fetch()
	if err != nil {
		return nil, err
	}
	c.put(key, gen, append([]T(nil), list...))
	return list, nil
}
