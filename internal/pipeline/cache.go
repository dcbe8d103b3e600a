package pipeline

import (
	"sync"
	"time"
)

type cacheEntry struct {
	result  Result
	addedAt time.Time
}

// ResultCache memoizes finished summaries by content hash, so re-uploading
// the same recording and slides skips the model entirely.
type ResultCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

func NewResultCache(ttl time.Duration) *ResultCache {
	return &ResultCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// Get returns a copy of the cached result for hash, if present and fresh.
func (c *ResultCache) Get(hash string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[hash]
	if !ok {
		return Result{}, false
	}
	if time.Since(e.addedAt) > c.ttl {
		delete(c.entries, hash)
		return Result{}, false
	}
	return e.result, true
}

func (c *ResultCache) Put(hash string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[hash] = cacheEntry{result: r, addedAt: time.Now()}
}

// Cleanup removes expired entries.
func (c *ResultCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for hash, e := range c.entries {
		if now.Sub(e.addedAt) > c.ttl {
			delete(c.entries, hash)
		}
	}
}

// Len returns the number of cached entries, expired or not.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
