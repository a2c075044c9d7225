package cache

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/damon-houk/mock-rate-server/internal/domain/entity"
)

// CacheEntry represents a cached quote with expiration
type CacheEntry struct {
	Quote     *entity.RateQuote
	Timestamp time.Time
}

// QuoteCache provides a thread-safe in-memory cache for historical quotes
type QuoteCache struct {
	cache      map[string]CacheEntry
	expiration time.Duration
	mutex      sync.RWMutex
}

// NewQuoteCache creates a new quote cache
func NewQuoteCache() *QuoteCache {
	return &QuoteCache{
		cache:      make(map[string]CacheEntry),
		expiration: 24 * time.Hour, // Default 24h expiration
	}
}

// Key builds a cache key from the quote date, base label and symbol filter.
// Symbol order does not matter; a nil filter differs from an empty one.
func Key(date time.Time, base string, symbols []string) string {
	filter := "*"
	if symbols != nil {
		sorted := append([]string(nil), symbols...)
		sort.Strings(sorted)
		filter = "[" + strings.Join(sorted, ",") + "]"
	}
	return date.Format(entity.DateLayout) + ":" + base + ":" + filter
}

// Get retrieves a quote from the cache if available and not expired
func (c *QuoteCache) Get(key string) *entity.RateQuote {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.cache[key]
	if !exists || time.Since(entry.Timestamp) > c.expiration {
		return nil
	}

	return entry.Quote
}

// Put stores a quote in the cache, dropping any entries that have expired
func (c *QuoteCache) Put(key string, quote *entity.RateQuote) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	c.removeExpired(now)

	c.cache[key] = CacheEntry{
		Quote:     quote,
		Timestamp: now,
	}
}

// SetExpiration sets the cache expiration duration
func (c *QuoteCache) SetExpiration(duration time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.expiration = duration
}

// removeExpired deletes expired entries; the caller holds the write lock
func (c *QuoteCache) removeExpired(now time.Time) {
	for key, entry := range c.cache {
		if now.Sub(entry.Timestamp) > c.expiration {
			delete(c.cache, key)
		}
	}
}
