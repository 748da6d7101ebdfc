package gnc

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Analyzer is the seam the cache wraps; *Client satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*Analysis, error)
}

// CacheStats reports cache activity for the /api/cache/stats endpoint.
type CacheStats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
	TTLSecs int64 `json:"ttl_seconds"`
}

type cacheEntry struct {
	analysis *Analysis
	expires  time.Time
}

// Cache is a TTL key-value cache in front of an Analyzer. Concurrent misses
// for the same text are collapsed into one upstream call.
type Cache struct {
	upstream Analyzer
	ttl      time.Duration
	now      func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
	hits    int64
	misses  int64

	group singleflight.Group
}

// NewCache wraps upstream with a TTL cache. A non-positive ttl keeps entries
// until Clear.
func NewCache(upstream Analyzer, ttl time.Duration) *Cache {
	return &Cache{
		upstream: upstream,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]cacheEntry),
	}
}

// Analyze returns the cached analysis for text or fetches it upstream.
func (c *Cache) Analyze(ctx context.Context, text string) (*Analysis, error) {
	key := normalizeKey(text)

	if analysis, ok := c.lookup(key); ok {
		return analysis, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A concurrent flight may have populated the entry while this
		// caller waited on the group.
		if analysis, ok := c.peek(key); ok {
			return analysis, nil
		}
		analysis, err := c.upstream.Analyze(ctx, text)
		if err != nil {
			return nil, err
		}
		c.store(key, analysis)
		return analysis, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Analysis), nil
}

func (c *Cache) lookup(key string) (*Analysis, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if ok && !entry.expires.IsZero() && c.now().After(entry.expires) {
		delete(c.entries, key)
		ok = false
	}
	if ok {
		c.hits++
		return entry.analysis, true
	}
	c.misses++
	return nil, false
}

// peek checks for a live entry without touching the hit/miss counters; the
// caller already recorded the miss that put it inside the flight.
func (c *Cache) peek(key string) (*Analysis, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || (!entry.expires.IsZero() && c.now().After(entry.expires)) {
		return nil, false
	}
	return entry.analysis, true
}

func (c *Cache) store(key string, analysis *Analysis) {
	entry := cacheEntry{analysis: analysis}
	if c.ttl > 0 {
		entry.expires = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

// Clear drops every entry and returns how many were evicted.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]cacheEntry)
	return n
}

// Stats snapshots cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{
		Hits:    c.hits,
		Misses:  c.misses,
		Entries: len(c.entries),
		TTLSecs: int64(c.ttl / time.Second),
	}
}

func normalizeKey(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}
