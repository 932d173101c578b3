package routing

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// DefaultCacheTTL is the decision cache TTL when the deployment does not
// configure one.
const DefaultCacheTTL = 10 * time.Minute

// CachedResult is the memoized outcome of a routed request.
type CachedResult struct {
	// Decision is the routing decision that produced the result.
	Decision *Decision
	// Result is the raw downstream tool result.
	Result []byte
}

// cacheEntry tracks one fingerprint's value plus observability counters.
type cacheEntry struct {
	value      CachedResult
	insertedAt time.Time
	ttl        time.Duration
	hitCount   int
}

// Cache memoizes routing results by request fingerprint. Expiry is checked
// lazily on read; there is no background sweeper, so memory growth is
// bounded only by process lifetime and a restart is the only guaranteed
// eviction. Contents are never persisted.
//
// The cache is owned by an explicitly constructed engine instance, never a
// package-level singleton, and takes an RWMutex: the original design relied
// on cooperative single-threaded scheduling for safety, which does not hold
// under Go's preemptive runtime.
type Cache struct {
	mu      sync.RWMutex
	entries map[uint64]*cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a Cache with the given TTL. A non-positive TTL falls back
// to DefaultCacheTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		entries: make(map[uint64]*cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Fingerprint computes the stable, order-independent cache key for the
// normalized request fields. Capabilities are sorted so permutations of the
// same request hash identically.
func Fingerprint(req Request) uint64 {
	caps := make([]string, len(req.Capabilities))
	for i, c := range req.Capabilities {
		caps[i] = strings.ToLower(strings.TrimSpace(c))
	}
	sort.Strings(caps)

	h := xxhash.New()
	// The separator keeps field boundaries unambiguous in the hashed text.
	_, _ = h.WriteString(strings.ToLower(strings.TrimSpace(req.Intent)))
	_, _ = h.WriteString("\x1f")
	_, _ = h.WriteString(strings.ToLower(strings.TrimSpace(req.Query)))
	_, _ = h.WriteString("\x1f")
	_, _ = h.WriteString(strings.Join(caps, ","))
	_, _ = h.WriteString("\x1f")
	_, _ = h.WriteString(strings.ToLower(strings.TrimSpace(req.Category)))
	return h.Sum64()
}

// Get returns the cached value for the key, whether it was found, and the
// entry's age. An entry older than its TTL is treated as absent; the stale
// entry stays in place until overwritten by the recomputed value.
func (c *Cache) Get(key uint64) (CachedResult, bool, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return CachedResult{}, false, 0
	}

	age := c.now().Sub(entry.insertedAt)
	if age > entry.ttl {
		return CachedResult{}, false, 0
	}

	entry.hitCount++
	return entry.value, true, age
}

// Put stores a value under the key with the cache's TTL, replacing any
// previous entry.
func (c *Cache) Put(key uint64, value CachedResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &cacheEntry{
		value:      value,
		insertedAt: c.now(),
		ttl:        c.ttl,
	}
}

// HitCount returns the hit counter for a key. Zero for unknown keys.
func (c *Cache) HitCount(key uint64) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if entry, ok := c.entries[key]; ok {
		return entry.hitCount
	}
	return 0
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
