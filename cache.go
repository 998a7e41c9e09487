package qivivo

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// Cache defines an interface for caching API responses.
// Implementations must be safe for concurrent access.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns the value and true if found and not expired, or nil and false otherwise.
	Get(key string) (any, bool)

	// Set stores a value in the cache with the given TTL.
	// If TTL is 0 or negative, the entry never expires.
	Set(key string, value any, ttl time.Duration)

	// Delete removes a value from the cache.
	Delete(key string)

	// Clear removes all values from the cache.
	Clear()
}

// cacheEntry holds a cached value with its expiration time.
type cacheEntry struct {
	value     any
	expiresAt time.Time
	noExpiry  bool
}

// MemoryCache is a thread-safe in-memory cache implementation.
type MemoryCache struct {
	entries map[string]*cacheEntry
	clock   clock.PassiveClock
	mu      sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache.
// When installed on a Client it follows the client's clock.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*cacheEntry),
	}
}

// NewMemoryCacheWithClock creates an in-memory cache that expires entries against clk.
func NewMemoryCacheWithClock(clk clock.PassiveClock) *MemoryCache {
	c := NewMemoryCache()
	c.clock = clk
	return c
}

func (c *MemoryCache) now() time.Time {
	if c.clock == nil {
		return time.Now()
	}
	return c.clock.Now()
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if !entry.noExpiry && c.now().After(entry.expiresAt) {
		c.Delete(key)
		return nil, false
	}

	return entry.value, true
}

// Set stores a value in the cache with the given TTL.
func (c *MemoryCache) Set(key string, value any, ttl time.Duration) {
	entry := &cacheEntry{
		value: value,
	}

	if ttl <= 0 {
		entry.noExpiry = true
	} else {
		entry.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes all values from the cache.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

// CacheConfig configures the caching behavior for a Client.
type CacheConfig struct {
	// Cache is the cache implementation to use.
	Cache Cache

	// DeviceListTTL is how long the device list is kept.
	// Zero keeps it until RefreshDevices is called.
	DeviceListTTL time.Duration
}

// DefaultCacheConfig returns a CacheConfig that keeps the device list for the
// lifetime of the client.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Cache: NewMemoryCache(),
	}
}

// WithCache configures how the device list is cached.
//
// Example:
//
//	client, _ := qivivo.NewClient(id, secret,
//	    qivivo.WithCache(&qivivo.CacheConfig{DeviceListTTL: time.Hour}),
//	)
func WithCache(config *CacheConfig) Option {
	return func(c *Client) {
		if config == nil {
			config = DefaultCacheConfig()
		}
		if config.Cache == nil {
			config.Cache = NewMemoryCache()
		}
		c.cacheConfig = config
	}
}

// cacheKey generates a cache key for the given resource type and identifiers.
func cacheKey(resourceType string, ids ...string) string {
	key := resourceType
	for _, id := range ids {
		key += ":" + id
	}
	return key
}

// getCached retrieves a value from cache or executes the fetch function and caches the result.
func (c *Client) getCached(key string, ttl time.Duration, fetch func() (any, error)) (any, error) {
	if cached, ok := c.cacheConfig.Cache.Get(key); ok {
		return cached, nil
	}

	result, err := fetch()
	if err != nil {
		return nil, err
	}

	c.cacheConfig.Cache.Set(key, result, ttl)
	return result, nil
}

// InvalidateCache removes a specific entry from the cache.
func (c *Client) InvalidateCache(resourceType string, ids ...string) {
	c.cacheConfig.Cache.Delete(cacheKey(resourceType, ids...))
}
