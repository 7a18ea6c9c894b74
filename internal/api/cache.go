package api

import (
	"os"
	"strconv"
	"sync"

	"github.com/agroscope/agroscope/pkg/table"
)

// DatasetCache is a thread-safe LRU cache for loaded, normalized datasets.
type DatasetCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*table.Dataset
	order   []string // oldest first
}

// NewDatasetCache creates a cache with the given maximum number of entries.
// If maxSize <= 0, it defaults to 16.
func NewDatasetCache(maxSize int) *DatasetCache {
	if maxSize <= 0 {
		maxSize = 16
	}
	return &DatasetCache{
		maxSize: maxSize,
		entries: make(map[string]*table.Dataset),
	}
}

// NewDatasetCacheFromEnv creates a cache sized by DATASET_CACHE_SIZE.
func NewDatasetCacheFromEnv() *DatasetCache {
	size := 16
	if v := os.Getenv("DATASET_CACHE_SIZE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			size = parsed
		}
	}
	return NewDatasetCache(size)
}

// Get retrieves a dataset from the cache, or nil if not found.
func (c *DatasetCache) Get(id string) *table.Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()

	ds, ok := c.entries[id]
	if !ok {
		return nil
	}
	c.moveToEnd(id)
	return ds
}

// Put adds a dataset to the cache, evicting the oldest if full.
func (c *DatasetCache) Put(id string, ds *table.Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[id]; ok {
		c.entries[id] = ds
		c.moveToEnd(id)
		return
	}

	for len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[id] = ds
	c.order = append(c.order, id)
}

// Len returns the number of cached datasets.
func (c *DatasetCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *DatasetCache) moveToEnd(id string) {
	for i, k := range c.order {
		if k == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, id)
			return
		}
	}
}
