package layout

import (
	"sync"

	"typeck/internal/types"
)

type cacheEntry struct {
	Layout TypeLayout
	Err    *LayoutError
}

// cache is shared by concurrent pipeline runs.
type cache struct {
	mu     sync.RWMutex
	byType map[types.TypeID]cacheEntry
}

func newCache() *cache {
	return &cache{byType: make(map[types.TypeID]cacheEntry, 256)}
}

func (c *cache) get(id types.TypeID) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byType[id]
	return e, ok
}

func (c *cache) put(id types.TypeID, e cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byType[id] = e
}
