package catalog

import "sync"

// AttributeCache memoizes attribute sequences keyed by table name. Only
// successful population results are stored: a populate error leaves the
// entry unset so the next lookup runs populate again.
//
// Concurrent lookups for the same missing key may each run populate; the
// last writer wins. Population is idempotent (a schema probe), so the
// duplicate work is accepted in exchange for never holding the lock across
// a database call.
type AttributeCache struct {
	mu      sync.RWMutex
	entries map[string][]string
}

// NewAttributeCache returns an empty cache.
func NewAttributeCache() *AttributeCache {
	return &AttributeCache{entries: make(map[string][]string)}
}

// GetOrPopulate returns the cached value for key, or runs populate and
// caches its result on success. Errors from populate are returned to the
// caller and nothing is cached.
func (c *AttributeCache) GetOrPopulate(key string, populate func() ([]string, error)) ([]string, error) {
	c.mu.RLock()
	attrs, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return attrs, nil
	}

	attrs, err := populate()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = attrs
	c.mu.Unlock()
	return attrs, nil
}

// Invalidate drops the entry for key, forcing the next lookup to repopulate.
func (c *AttributeCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len reports the number of cached entries.
func (c *AttributeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
