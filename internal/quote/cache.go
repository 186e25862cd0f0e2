package quote

import (
	"sync"
	"time"
)

// cacheEntry pairs a cached Result with its insertion time.
type cacheEntry struct {
	result    Result
	insertedAt time.Time
}

// cache is a process-wide-shaped but instance-owned (DESIGN NOTES §9: no
// ambient singletons) TTL cache bounded by maxEntries, evicting the
// oldest entry on overflow.
type cache struct {
	mu         sync.Mutex
	entries    map[Key]cacheEntry
	order      []Key // insertion order, for oldest-eviction
	maxEntries int
}

func newCache(maxEntries int) *cache {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &cache{
		entries:    make(map[Key]cacheEntry),
		maxEntries: maxEntries,
	}
}

// get returns the cached Result if present and still fresh.
func (c *cache) get(key Key) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return Result{}, false
	}
	if time.Since(entry.insertedAt) >= cacheTTL {
		return Result{}, false
	}
	return entry.result, true
}

// put stores a Result, evicting the oldest entry if at capacity.
func (c *cache) put(key Key, result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		if len(c.entries) >= c.maxEntries {
			c.evictOldestLocked()
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = cacheEntry{result: result, insertedAt: time.Now()}
}

func (c *cache) evictOldestLocked() {
	for len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		if _, ok := c.entries[oldest]; ok {
			delete(c.entries, oldest)
			return
		}
	}
}
