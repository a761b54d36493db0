package modules

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/Jakobo/eyeglass/pkg/descriptor"
)

// Cache keeps package descriptors keyed by canonical location.
//
// IMPORTANT: Use NewCache() or SharedCache() to create instances. Entries
// are never evicted; a failed read is not cached.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*descriptor.Descriptor
	group   singleflight.Group
	reads   int64
}

// NewCache creates an empty cache private to its owner
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]*descriptor.Descriptor),
	}
}

var (
	sharedOnce  sync.Once
	sharedCache *Cache
)

// SharedCache returns the process wide cache used by builds with
// UseGlobalCache. It is created on first use and lives until exit.
func SharedCache() *Cache {
	sharedOnce.Do(func() {
		sharedCache = NewCache()
	})
	return sharedCache
}

// Get returns a completed entry
func (c *Cache) Get(location string) (*descriptor.Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	desc, ok := c.entries[location]
	return desc, ok
}

// Load returns the descriptor for location, calling read at most once for
// concurrent callers asking for the same location. Callers racing a read in
// progress wait for it instead of observing a partial entry.
func (c *Cache) Load(location string, read func(string) (*descriptor.Descriptor, error)) (*descriptor.Descriptor, error) {
	if desc, ok := c.Get(location); ok {
		return desc, nil
	}

	v, err, _ := c.group.Do(location, func() (interface{}, error) {
		if desc, ok := c.Get(location); ok {
			return desc, nil
		}

		desc, err := read(location)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[location] = desc
		c.reads++
		c.mu.Unlock()
		return desc, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read package at %s: %w", location, err)
	}
	return v.(*descriptor.Descriptor), nil
}

// Len is the number of cached locations
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reads is the number of descriptor reads that completed successfully
func (c *Cache) Reads() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reads
}
