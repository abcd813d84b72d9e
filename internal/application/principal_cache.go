package application

import (
	"sync"
	"time"
)

// principalCache stores recently validated session principals to avoid
// hitting the session store on every authenticated request. Entries never
// outlive their session's expiry, and revocation or rotation invalidates the
// token immediately.
type principalCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]principalCacheEntry
}

type principalCacheEntry struct {
	principal Principal
	expiresAt time.Time
}

func newPrincipalCache(ttl time.Duration, maxEntries int, now func() time.Time) *principalCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	if now == nil {
		now = time.Now
	}
	return &principalCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]principalCacheEntry),
	}
}

func (c *principalCache) Get(token string) (Principal, bool) {
	if c == nil || token == "" {
		return Principal{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[token]
	c.mu.RUnlock()
	if !ok {
		return Principal{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, token)
		c.mu.Unlock()
		return Principal{}, false
	}
	return entry.principal, true
}

// Store caches the principal for a validated token. The entry expires after
// the cache TTL or at the session's own expiry, whichever comes first.
func (c *principalCache) Store(token string, principal Principal, sessionExpiresAt time.Time) {
	if c == nil || token == "" {
		return
	}
	expiry := c.now().Add(c.ttl)
	if !sessionExpiresAt.IsZero() && sessionExpiresAt.Before(expiry) {
		expiry = sessionExpiresAt
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[token] = principalCacheEntry{principal: principal, expiresAt: expiry}
}

// Invalidate drops the entry for a single token.
func (c *principalCache) Invalidate(token string) {
	if c == nil || token == "" {
		return
	}
	c.mu.Lock()
	delete(c.entries, token)
	c.mu.Unlock()
}

func (c *principalCache) cleanupLocked() {
	now := c.now()
	for token, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, token)
		}
	}
}

func (c *principalCache) evictOneLocked() {
	for token := range c.entries {
		delete(c.entries, token)
		return
	}
}
