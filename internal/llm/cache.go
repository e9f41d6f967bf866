package llm

import (
	"strings"
	"sync"
	"time"
)

// cacheEntry represents a cached category suggestion.
type cacheEntry struct {
	expiry     time.Time
	suggestion Suggestion
}

// suggestionCache provides thread-safe caching of suggestions keyed by the
// transaction's merchant and description, so repeated imports of the same
// counterparty skip the API.
type suggestionCache struct {
	entries map[string]cacheEntry
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
}

func newSuggestionCache(ttl time.Duration) *suggestionCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	cache := &suggestionCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

func cacheKey(merchant, description string) string {
	return strings.ToLower(merchant) + "\x00" + strings.ToLower(description)
}

func (c *suggestionCache) get(key string) (Suggestion, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.expiry) {
		return Suggestion{}, false
	}
	return entry.suggestion, true
}

func (c *suggestionCache) set(key string, suggestion Suggestion) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		suggestion: suggestion,
		expiry:     time.Now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *suggestionCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// Close stops the cleanup goroutine.
func (c *suggestionCache) Close() {
	close(c.stopCh)
}
