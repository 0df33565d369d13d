package cache

import (
	"sync"

	"keysync/internal/keyset"
	"keysync/internal/textutil"
)

type entry struct {
	hash string
	keys keyset.KeySet
}

// ExtractionCache remembers the keys extracted from each file, keyed by path
// and invalidated when the content hash changes.
type ExtractionCache struct {
	mu     sync.RWMutex
	memory map[string]entry // path → last extraction
}

// NewExtractionCache creates an empty cache.
func NewExtractionCache() *ExtractionCache {
	return &ExtractionCache{memory: make(map[string]entry)}
}

// Get returns the cached keys for path if content is unchanged.
func (c *ExtractionCache) Get(path, content string) (keyset.KeySet, bool) {
	hash := textutil.Hash(content)

	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.memory[path]
	if !ok || e.hash != hash {
		return nil, false
	}
	return e.keys, true
}

// Set stores the keys extracted from content at path.
func (c *ExtractionCache) Set(path, content string, keys keyset.KeySet) {
	hash := textutil.Hash(content)

	c.mu.Lock()
	c.memory[path] = entry{hash: hash, keys: keys}
	c.mu.Unlock()
}

// Forget drops path from the cache.
func (c *ExtractionCache) Forget(path string) {
	c.mu.Lock()
	delete(c.memory, path)
	c.mu.Unlock()
}

// Len returns the number of cached files.
func (c *ExtractionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.memory)
}
