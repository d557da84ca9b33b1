// Package cache is the read-through cache for public catalog queries. Writes
// that touch catalog-visible fields invalidate keys synchronously; the TTL is
// only a safety net for anything missed.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"curio/internal/metrics"
)

const (
	KeyFeatured       = "featured"
	categoryKeyPrefix = "category:"
)

func CategoryKey(categoryID string) string { return categoryKeyPrefix + categoryID }

type Cache struct {
	lru   *expirable.LRU[string, any]
	group singleflight.Group
}

func New(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = 256
	}
	return &Cache{lru: expirable.NewLRU[string, any](size, nil, ttl)}
}

// GetOrLoad returns the cached value for key, loading it at most once across
// concurrent callers on a miss.
func (c *Cache) GetOrLoad(key string, loader func() (any, error)) (any, error) {
	if v, ok := c.lru.Get(key); ok {
		metrics.CacheHits.Inc()
		return v, nil
	}
	metrics.CacheMisses.Inc()
	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.lru.Get(key); ok {
			return v, nil
		}
		v, err := loader()
		if err != nil {
			return nil, err
		}
		c.lru.Add(key, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Invalidate drops the given keys. Loaders in flight for a dropped key may
// still store a value they read before the invalidating write committed, which
// the TTL bounds.
func (c *Cache) Invalidate(keys ...string) {
	for _, k := range keys {
		c.lru.Remove(k)
	}
}
