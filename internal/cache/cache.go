// Package cache provides the in-process memoization layer for computed
// aggregations: TTL tiers by data volatility, a hard capacity bound, and
// memory-pressure-aware eviction. The cache is pure memoization over a
// deterministic computation, so concurrent duplicate computation for the
// same key is acceptable and last-write-wins needs no coordination beyond
// the mutex.
package cache

import (
	"bytes"
	"io"
	"path"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"

	"mplads/internal/config"
	"mplads/internal/logging"
)

// Tier selects the TTL by data volatility.
type Tier string

const (
	// TierLong is for rarely-changing aggregates (sector/year rollups).
	TierLong Tier = "long"
	// TierMedium is for per-MP and per-state summaries.
	TierMedium Tier = "medium"
	// TierShort is for expenditure-adjacent views.
	TierShort Tier = "short"
)

// Fractions of the entry set evicted oldest-first: capacity overflow sheds
// a tenth, memory pressure sheds about a third.
const (
	capacityEvictFraction = 0.10
	pressureEvictFraction = 0.30
)

type cacheEntry struct {
	key       string
	payload   []byte // gzip-compressed
	createdAt time.Time
	expiresAt time.Time
}

// Stats reports cache usage counters.
type Stats struct {
	Entries        int    `json:"entries"`
	CompressedSize int    `json:"compressedBytes"`
	Hits           int64  `json:"hits"`
	Misses         int64  `json:"misses"`
	Evictions      int64  `json:"evictions"`
	Degraded       int64  `json:"degraded"`
	HeapBytes      uint64 `json:"heapBytes"`
}

// Cache is the aggregation cache. Construct with New; a zero Cache is not
// usable. Instances carry their own state; there is no package-level cache.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry

	cfg    config.CacheConfig
	logger *logging.Logger

	// Injectable for tests.
	now       func() time.Time
	memSample func() uint64

	hits      int64
	misses    int64
	evictions int64
	degraded  int64
}

// New creates a cache from configuration.
func New(cfg config.CacheConfig, logger *logging.Logger) *Cache {
	return &Cache{
		entries:   make(map[string]*cacheEntry),
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		memSample: heapInUse,
	}
}

func heapInUse() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}

func (c *Cache) ttl(tier Tier) time.Duration {
	switch tier {
	case TierLong:
		return time.Duration(c.cfg.LongTtlSeconds) * time.Second
	case TierShort:
		return time.Duration(c.cfg.ShortTtlSeconds) * time.Second
	default:
		return time.Duration(c.cfg.MediumTtlSeconds) * time.Second
	}
}

// Get returns the cached payload for key, or ok=false on a miss. Expired
// entries are removed on access.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	entry, found := c.entries[key]
	if found && c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		found = false
	}
	if !found {
		c.misses++
		c.mu.Unlock()
		return nil, false
	}
	c.hits++
	compressed := entry.payload
	c.mu.Unlock()

	payload, err := gunzip(compressed)
	if err != nil {
		// A corrupt entry is treated as a miss and dropped.
		c.logger.Warn("failed to decompress cache entry", map[string]interface{}{
			"code":  "CACHE_DEGRADED",
			"key":   key,
			"error": err.Error(),
		})
		c.mu.Lock()
		delete(c.entries, key)
		c.degraded++
		c.mu.Unlock()
		return nil, false
	}
	return payload, true
}

// Set stores a payload under key with the tier's TTL. A cache failure is
// never an error for the request path: on capacity overflow the oldest
// tenth is evicted and the write retried; if the retry also fails the
// write is logged and skipped.
func (c *Cache) Set(key string, payload []byte, tier Tier) {
	compressed, err := gzipBytes(payload)
	if err != nil {
		c.logger.Warn("failed to compress cache payload", map[string]interface{}{
			"code":  "CACHE_DEGRADED",
			"key":   key,
			"error": err.Error(),
		})
		c.mu.Lock()
		c.degraded++
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Memory-pressure policy runs before every write, independent of the
	// capacity bound.
	if c.cfg.MemoryCeilingBytes > 0 {
		threshold := uint64(float64(c.cfg.MemoryCeilingBytes) * c.cfg.MemoryFraction)
		if used := c.memSample(); used > threshold {
			evicted := c.evictOldest(pressureEvictFraction)
			c.logger.Warn("memory pressure eviction", map[string]interface{}{
				"code":      "CACHE_DEGRADED",
				"heapBytes": used,
				"threshold": threshold,
				"evicted":   evicted,
			})
		}
	}

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.cfg.MaxEntries {
		c.evictOldest(capacityEvictFraction)
		if len(c.entries) >= c.cfg.MaxEntries {
			c.degraded++
			c.logger.Warn("cache full after eviction, skipping write", map[string]interface{}{
				"code": "CACHE_DEGRADED",
				"key":  key,
			})
			return
		}
	}

	now := c.now()
	c.entries[key] = &cacheEntry{
		key:       key,
		payload:   compressed,
		createdAt: now,
		expiresAt: now.Add(c.ttl(tier)),
	}
}

// evictOldest removes the given fraction of entries, oldest-first. Caller
// holds the mutex. Returns the number evicted.
func (c *Cache) evictOldest(fraction float64) int {
	n := int(float64(len(c.entries)) * fraction)
	if n < 1 {
		n = 1
	}
	if n > len(c.entries) {
		n = len(c.entries)
	}

	byAge := make([]*cacheEntry, 0, len(c.entries))
	for _, e := range c.entries {
		byAge = append(byAge, e)
	}
	sort.Slice(byAge, func(i, j int) bool {
		if !byAge[i].createdAt.Equal(byAge[j].createdAt) {
			return byAge[i].createdAt.Before(byAge[j].createdAt)
		}
		return byAge[i].key < byAge[j].key
	})

	for _, e := range byAge[:n] {
		delete(c.entries, e.key)
	}
	c.evictions += int64(n)
	return n
}

// Invalidate removes entries whose key matches the glob pattern (e.g.
// "mp-summary:*"). Namespaced keys carry a "user/" prefix which the
// pattern does not address; matching retries against the portion after
// the separator so an invalidation reaches every namespace. Returns the
// number removed.
func (c *Cache) Invalidate(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		ok, err := path.Match(pattern, key)
		if err != nil {
			// Malformed pattern matches nothing.
			return 0
		}
		if !ok {
			if i := strings.IndexByte(key, '/'); i >= 0 {
				ok, _ = path.Match(pattern, key[i+1:])
			}
		}
		if ok {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// RemoveExpired drops entries past their expiry without touching live
// ones. Returns the number removed.
func (c *Cache) RemoveExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// InvalidateAll clears the cache.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// GetStats returns usage counters.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := 0
	for _, e := range c.entries {
		size += len(e.payload)
	}
	return Stats{
		Entries:        len(c.entries),
		CompressedSize: size,
		Hits:           c.hits,
		Misses:         c.misses,
		Evictions:      c.evictions,
		Degraded:       c.degraded,
		HeapBytes:      c.memSample(),
	}
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
