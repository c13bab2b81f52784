package cache

import (
	"container/list"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/switchboard/pkg/providers"
)

const (
	// DefaultMaxSize is the entry limit when none is configured.
	DefaultMaxSize = 1000

	// DefaultTTL is the entry lifetime when none is configured.
	DefaultTTL = time.Hour

	// UseDefaultTTL makes Put use the cache's default TTL.
	UseDefaultTTL time.Duration = -1
)

// Config configures a Cache.
type Config struct {
	// MaxSize is the maximum number of entries (<= 0 selects DefaultMaxSize).
	MaxSize int

	// DefaultTTL is used by Put with UseDefaultTTL (<= 0 selects DefaultTTL).
	DefaultTTL time.Duration

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Size        int           `json:"size"`
	MaxSize     int           `json:"max_size"`
	Hits        int64         `json:"hits"`
	Misses      int64         `json:"misses"`
	Evictions   int64         `json:"evictions"`
	Expirations int64         `json:"expirations"`
	DefaultTTL  time.Duration `json:"default_ttl"`
}

// HitRatio returns hits / (hits + misses), or 0 with no lookups.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// entry is one cached response. value is kept as an interface so a
// mismatched type can be detected and dropped rather than returned.
type entry struct {
	key          string
	value        interface{}
	createdAt    time.Time
	lastAccessed time.Time
	accessCount  int64
	ttl          time.Duration
}

func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}

// Cache is an in-memory LRU response cache with per-entry TTL.
//
// A single mutex guards the map, the recency list and the counters, so
// every operation is atomic with respect to the others. Streaming requests
// are never looked up or stored.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used

	maxSize    int
	defaultTTL time.Duration
	now        func() time.Time

	hits        int64
	misses      int64
	evictions   int64
	expirations int64

	logger *slog.Logger
}

// New creates an empty cache.
func New(cfg Config) *Cache {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Cache{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxSize:    cfg.MaxSize,
		defaultTTL: cfg.DefaultTTL,
		now:        cfg.Now,
		logger:     slog.Default().With("component", "cache"),
	}
}

// Get returns a copy of the cached response for req.
//
// A streaming request always misses without touching the counters. An
// expired entry is removed and counts as a miss.
func (c *Cache) Get(req *providers.Request) (*providers.Response, bool) {
	if req.IsStreaming() {
		return nil, false
	}
	key := Key(req)

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	e := elem.Value.(*entry)
	now := c.now()
	if e.expired(now) {
		c.removeElement(elem)
		c.expirations++
		c.misses++
		return nil, false
	}

	resp, ok := e.value.(*providers.Response)
	if !ok || resp == nil {
		c.removeElement(elem)
		c.misses++
		c.logger.Warn("dropping corrupt cache entry", "key", key, "type", typeName(e.value))
		return nil, false
	}

	e.accessCount++
	e.lastAccessed = now
	c.order.MoveToFront(elem)
	c.hits++
	return resp.Clone(), true
}

// Put stores a copy of resp under req's key with the given ttl, evicting
// least recently used entries beyond the size limit. A streaming request
// is never stored. Pass UseDefaultTTL for the configured default.
func (c *Cache) Put(req *providers.Request, resp *providers.Response, ttl time.Duration) {
	if req.IsStreaming() || resp == nil {
		return
	}
	if ttl < 0 {
		ttl = c.defaultTTL
	}
	c.put(Key(req), resp.Clone(), ttl)
}

func (c *Cache) put(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if elem, ok := c.entries[key]; ok {
		e := elem.Value.(*entry)
		e.value = value
		e.createdAt = now
		e.lastAccessed = now
		e.ttl = ttl
		c.order.MoveToFront(elem)
		return
	}

	e := &entry{
		key:          key,
		value:        value,
		createdAt:    now,
		lastAccessed: now,
		ttl:          ttl,
	}
	c.entries[key] = c.order.PushFront(e)

	for c.order.Len() > c.maxSize {
		c.removeElement(c.order.Back())
		c.evictions++
	}
}

// EvictExpired removes every expired entry and returns how many were
// removed.
func (c *Cache) EvictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*entry).expired(now) {
			c.removeElement(elem)
			removed++
		}
		elem = prev
	}
	c.expirations += int64(removed)
	return removed
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear removes every entry. Counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Size:        c.order.Len(),
		MaxSize:     c.maxSize,
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
		DefaultTTL:  c.defaultTTL,
	}
}

// DefaultTTL returns the TTL used by Put with UseDefaultTTL.
func (c *Cache) DefaultTTL() time.Duration {
	return c.defaultTTL
}

// removeElement must be called with mu held.
func (c *Cache) removeElement(elem *list.Element) {
	e := c.order.Remove(elem).(*entry)
	delete(c.entries, e.key)
}

func typeName(v interface{}) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
