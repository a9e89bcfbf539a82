package password

import (
	"maps"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// DefaultCacheTTL is how long range responses are reused.
const DefaultCacheTTL = time.Hour

// PrefixCache is a read-through cache of range responses keyed by hash prefix.
//
// Entries expire after the TTL. The cache runs no janitor goroutine: a lookup
// that misses sweeps expired entries instead. It is safe for concurrent use.
type PrefixCache struct {
	ttl   time.Duration
	items *ttlcache.Cache[string, map[string]int]
}

// NewPrefixCache creates a cache with the given TTL.
// A non-positive TTL disables caching.
func NewPrefixCache(ttl time.Duration) *PrefixCache {
	return &PrefixCache{
		ttl: ttl,
		items: ttlcache.New(
			ttlcache.WithTTL[string, map[string]int](ttl),
			ttlcache.WithDisableTouchOnHit[string, map[string]int](),
		),
	}
}

// Get returns the cached suffix counts for prefix.
func (c *PrefixCache) Get(prefix string) (map[string]int, bool) {
	item := c.items.Get(prefix)
	if item == nil {
		c.items.DeleteExpired()
		return nil, false
	}
	return item.Value(), true
}

// Put stores suffix counts for prefix. The map is copied.
func (c *PrefixCache) Put(prefix string, suffixes map[string]int) {
	if c.ttl <= 0 {
		return
	}
	c.items.Set(prefix, maps.Clone(suffixes), ttlcache.DefaultTTL)
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (c *PrefixCache) Len() int {
	return c.items.Len()
}
