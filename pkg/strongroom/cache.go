package strongroom

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/strongroom-io/strongroom-client/internal/constants"
)

// CacheEntry is a cached GET response.
type CacheEntry struct {
	StatusCode int           `json:"status_code"`
	Header     http.Header   `json:"header"`
	Body       []byte        `json:"body"`
	StoredAt   time.Time     `json:"stored_at"`
	TTL        time.Duration `json:"ttl"`
}

// Expired reports whether the entry has outlived its TTL. A zero TTL never
// expires.
func (e *CacheEntry) Expired() bool {
	return e.TTL > 0 && time.Since(e.StoredAt) > e.TTL
}

// Cache stores responses for reuse across calls. Implementations must be
// safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Has(ctx context.Context, key string) bool
}

// MemoryCache is an in-process cache with FIFO eviction.
type MemoryCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*CacheEntry
	order   []string
}

// NewMemoryCache creates a memory cache holding at most maxSize entries.
// Sizes <= 0 use the default.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = constants.DefaultCacheSize
	}

	return &MemoryCache{
		maxSize: maxSize,
		entries: make(map[string]*CacheEntry),
	}
}

// Get retrieves an entry. Expired entries are evicted and reported as a
// miss.
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}

	if entry.Expired() {
		c.remove(key)

		return nil, ErrCacheMiss
	}

	return entry, nil
}

// Set stores an entry, evicting the oldest entry when full.
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		for len(c.entries) >= c.maxSize && len(c.order) > 0 {
			c.remove(c.order[0])
		}

		c.order = append(c.order, key)
	}

	c.entries[key] = entry

	return nil
}

// Delete removes an entry.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.remove(key)

	return nil
}

// Clear removes all entries.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*CacheEntry)
	c.order = nil

	return nil
}

// Has reports whether a fresh entry exists.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// remove must be called with the lock held.
func (c *MemoryCache) remove(key string) {
	delete(c.entries, key)

	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)

			break
		}
	}
}
