package aoe4world

import "sync"

// QueryCache provides thread-safe in-memory caching
type QueryCache struct {
	mu   sync.RWMutex
	data map[string]interface{}
}

// NewQueryCache creates a new query cache
func NewQueryCache() *QueryCache {
	return &QueryCache{
		data: make(map[string]interface{}),
	}
}

// Get retrieves a value from the cache
func (c *QueryCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.data[key]
	return val, ok
}

// Set stores a value in the cache
func (c *QueryCache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}
