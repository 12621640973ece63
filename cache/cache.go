package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/use-agent/ownerlookup/models"
)

// entry holds a cached lookup with its creation timestamp.
type entry struct {
	owners    models.Owners
	createdAt time.Time
}

// Cache is a simple in-memory cache of owners lookups keyed by business
// name. It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
	done       chan struct{}
	closeOnce  sync.Once
	now        func() time.Time
}

// New creates a Cache holding at most maxEntries lookups, each valid for
// ttl. A background goroutine evicts expired entries every 5 minutes until
// Close is called.
func New(maxEntries int, ttl time.Duration) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		done:       make(chan struct{}),
		now:        time.Now,
	}

	go c.cleanupLoop()
	return c
}

// Key generates a cache key from the business name and the target states
// the lookup was filtered by.
func Key(businessName string, states []string) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(businessName))))
	for _, s := range states {
		h.Write([]byte("|"))
		h.Write([]byte(strings.ToLower(s)))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Cacheable reports whether an outcome may be cached. Failed lookups are
// retried instead.
func Cacheable(o models.Owners) bool {
	return o.Status == models.StatusMatched || o.Status == models.StatusNoMatch
}

// Get retrieves a cached lookup if it exists and is younger than maxAge.
// If maxAge <= 0, no cache lookup is performed. maxAge never extends past
// the cache's ttl.
func (c *Cache) Get(key string, maxAge time.Duration) (models.Owners, bool) {
	if c == nil || maxAge <= 0 {
		return models.Owners{}, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok {
		return models.Owners{}, false
	}

	if maxAge > c.ttl {
		maxAge = c.ttl
	}
	if c.now().Sub(e.createdAt) > maxAge {
		return models.Owners{}, false
	}

	return e.owners, true
}

// Set stores a lookup. Outcomes that are not Cacheable are ignored. If the
// cache is at capacity, a random entry is evicted to make room.
func (c *Cache) Set(key string, owners models.Owners) {
	if c == nil || c.maxEntries <= 0 || !Cacheable(owners) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Evict one random entry if at capacity (map iteration is random in Go).
	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		owners:    owners,
		createdAt: c.now(),
	}
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Close stops the background cleanup goroutine.
func (c *Cache) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// cleanupLoop evicts expired entries every 5 minutes.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *Cache) evictExpired() {
	cutoff := c.now().Add(-c.ttl)
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
}
