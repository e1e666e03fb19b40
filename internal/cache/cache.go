package cache

import (
	"context"
	"crypto/md5"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"ghasreport/internal/report"
	"ghasreport/internal/types"
)

type item struct {
	alerts    []types.RawAlert
	expiresAt time.Time
}

func (i *item) expired() bool {
	return time.Now().After(i.expiresAt)
}

// FetchCache memoizes alert fetches per (category, target) with a TTL. A run
// that produces both the count report and a detail report touches every pair
// twice; the cache collapses those into one API call. Errors are never cached.
type FetchCache struct {
	mu    sync.RWMutex
	items map[string]*item
	ttl   time.Duration

	inner report.Fetcher
	group singleflight.Group

	hits   int
	misses int
}

// NewFetchCache wraps a fetcher with TTL memoization.
func NewFetchCache(inner report.Fetcher, ttl time.Duration) *FetchCache {
	return &FetchCache{
		items: make(map[string]*item),
		ttl:   ttl,
		inner: inner,
	}
}

// ListAlerts implements report.Fetcher. Concurrent requests for the same key
// share a single upstream call.
func (c *FetchCache) ListAlerts(ctx context.Context, category types.AlertCategory, target types.Target) ([]types.RawAlert, error) {
	key := cacheKey(category, target)

	c.mu.RLock()
	cached, ok := c.items[key]
	c.mu.RUnlock()
	if ok && !cached.expired() {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return cached.alerts, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		alerts, err := c.inner.ListAlerts(ctx, category, target)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.items[key] = &item{alerts: alerts, expiresAt: time.Now().Add(c.ttl)}
		c.misses++
		c.mu.Unlock()
		return alerts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]types.RawAlert), nil
}

// Stats returns hit/miss counters and the current entry count.
func (c *FetchCache) Stats() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return map[string]int{
		"hits":   c.hits,
		"misses": c.misses,
		"items":  len(c.items),
	}
}

func cacheKey(category types.AlertCategory, target types.Target) string {
	sum := md5.Sum([]byte(string(category) + "|" + string(target.Kind) + "|" + target.Slug()))
	return fmt.Sprintf("%x", sum)
}
