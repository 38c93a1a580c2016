package cache

import (
	"sync"
	"time"

	"marketdata/internal/clock"
)

// Layer partitions the cache. Each layer has its own TTL and lock.
type Layer string

const (
	Quote      Layer = "quote"
	Market     Layer = "market"
	Company    Layer = "company"
	Index      Layer = "index"
	Aggregated Layer = "aggregated"
)

// Layers lists every layer the cache maintains.
var Layers = []Layer{Quote, Market, Company, Index, Aggregated}

// DefaultTTLs holds the per-layer TTL used when a Put passes ttl <= 0.
var DefaultTTLs = map[Layer]time.Duration{
	Quote:      60 * time.Second,
	Market:     300 * time.Second,
	Company:    86400 * time.Second,
	Index:      300 * time.Second,
	Aggregated: 60 * time.Second,
}

// entry stores one cached value with the upstream fetch time and expiry.
type entry struct {
	value     any
	fetchedAt time.Time
	expiresAt time.Time
}

type layer struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]entry
}

// Options configure a Cache. Zero TTLs fall back to DefaultTTLs.
type Options struct {
	TTLs     map[Layer]time.Duration
	MaxItems int // per layer; 0 means unbounded
	Clock    clock.Clock
}

// Cache is a TTL cache partitioned into layers. Reads on one layer never
// contend with writes on another.
type Cache struct {
	clock    clock.Clock
	maxItems int
	layers   map[Layer]*layer
}

func New(opts Options) *Cache {
	c := &Cache{
		clock:    opts.Clock,
		maxItems: opts.MaxItems,
		layers:   make(map[Layer]*layer, len(Layers)),
	}
	if c.clock == nil {
		c.clock = clock.Real{}
	}
	for _, l := range Layers {
		ttl := opts.TTLs[l]
		if ttl <= 0 {
			ttl = DefaultTTLs[l]
		}
		c.layers[l] = &layer{ttl: ttl, items: make(map[string]entry)}
	}
	return c
}

// TTL returns the configured TTL of a layer.
func (c *Cache) TTL(l Layer) time.Duration {
	if ly, ok := c.layers[l]; ok {
		return ly.ttl
	}
	return 0
}

// Get returns the live value stored under key. An expired entry observed
// here is removed.
func (c *Cache) Get(l Layer, key string) (any, bool) {
	ly, ok := c.layers[l]
	if !ok {
		return nil, false
	}
	now := c.clock.Now()

	ly.mu.RLock()
	e, ok := ly.items[key]
	ly.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if now.Before(e.expiresAt) {
		return e.value, true
	}

	ly.mu.Lock()
	// Re-check: a concurrent Put may have refreshed the entry.
	if cur, ok := ly.items[key]; ok && !now.Before(cur.expiresAt) {
		delete(ly.items, key)
	}
	ly.mu.Unlock()
	return nil, false
}

// Put stores value under key until now+ttl. A live entry with a strictly
// newer fetchedAt is kept and Put reports false.
func (c *Cache) Put(l Layer, key string, value any, fetchedAt time.Time, ttl time.Duration) bool {
	ly, ok := c.layers[l]
	if !ok {
		return false
	}
	if ttl <= 0 {
		ttl = ly.ttl
	}
	now := c.clock.Now()

	ly.mu.Lock()
	defer ly.mu.Unlock()
	if cur, ok := ly.items[key]; ok && now.Before(cur.expiresAt) && cur.fetchedAt.After(fetchedAt) {
		return false
	}
	ly.items[key] = entry{value: value, fetchedAt: fetchedAt, expiresAt: now.Add(ttl)}
	if c.maxItems > 0 && len(ly.items) > c.maxItems {
		ly.evictLocked(now, c.maxItems, key)
	}
	return true
}

// evictLocked removes expired entries first, then arbitrary ones other than
// keep, until the layer fits under max.
func (ly *layer) evictLocked(now time.Time, max int, keep string) {
	for k, e := range ly.items {
		if !now.Before(e.expiresAt) {
			delete(ly.items, k)
		}
	}
	for k := range ly.items {
		if len(ly.items) <= max {
			break
		}
		if k != keep {
			delete(ly.items, k)
		}
	}
}

// Sweep removes every expired entry from all layers and returns the count.
func (c *Cache) Sweep() int {
	now := c.clock.Now()
	removed := 0
	for _, l := range Layers {
		ly := c.layers[l]
		ly.mu.Lock()
		for k, e := range ly.items {
			if !now.Before(e.expiresAt) {
				delete(ly.items, k)
				removed++
			}
		}
		ly.mu.Unlock()
	}
	return removed
}

// Len returns the number of stored entries in a layer, expired or not.
func (c *Cache) Len(l Layer) int {
	ly, ok := c.layers[l]
	if !ok {
		return 0
	}
	ly.mu.RLock()
	defer ly.mu.RUnlock()
	return len(ly.items)
}
