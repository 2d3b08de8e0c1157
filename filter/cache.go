package filter

import "sync"

// Cache memoizes evaluator scores keyed by canonical FEN. Entries are
// immutable once written and never evicted; the cache is bounded by the
// number of distinct positions seen in one process lifetime. An optional
// Store makes entries survive across runs.
//
// The search driver is single-threaded, but the lock keeps the cache
// correct if simulations are ever parallelized.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]int
	store   *Store
}

// NewCache creates a cache, optionally backed by a persistent store.
// store may be nil for a purely in-memory cache.
func NewCache(store *Store) *Cache {
	return &Cache{
		entries: map[string]int{},
		store:   store,
	}
}

// Get looks up a score, falling through to the persistent store on a
// memory miss. Store hits are promoted into memory.
func (c *Cache) Get(key string) (int, bool) {
	c.mu.RLock()
	score, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return score, true
	}

	if c.store == nil {
		return 0, false
	}
	score, ok, err := c.store.Get(key)
	if err != nil || !ok {
		return 0, false
	}
	c.mu.Lock()
	c.entries[key] = score
	c.mu.Unlock()
	return score, true
}

// Put records a score, writing through to the store when one is attached.
func (c *Cache) Put(key string, score int) {
	c.mu.Lock()
	c.entries[key] = score
	c.mu.Unlock()

	if c.store != nil {
		// A failed write only costs a re-evaluation next run.
		_ = c.store.Put(key, score)
	}
}

// Clear drops all in-memory entries. Persisted entries are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = map[string]int{}
	c.mu.Unlock()
}

// Len returns the number of in-memory entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
