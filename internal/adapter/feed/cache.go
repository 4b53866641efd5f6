package feed

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/landslide-feed-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// CachedSource wraps a Source with the raw feed cache. A cache hit never
// reaches the inner source; only successful fetches are stored.
type CachedSource struct {
	inner   Source
	cache   *Cache
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a source.
func NewCachedSource(inner Source, cache *Cache, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   cache,
		metrics: metrics,
	}
}

// Fetch returns the cached text for fileName, fetching it on a miss.
func (s *CachedSource) Fetch(ctx context.Context, fileName string) (string, error) {
	if text, ok := s.cache.Get(fileName); ok {
		s.metrics.FeedCache.WithLabelValues("hit").Inc()
		return text, nil
	}
	s.metrics.FeedCache.WithLabelValues("miss").Inc()

	text, err := s.inner.Fetch(ctx, fileName)
	if err != nil {
		return "", err
	}
	s.cache.Put(fileName, text)
	s.metrics.FeedCacheEntries.Set(float64(s.cache.Len()))
	return text, nil
}

// Cache is a thread-safe store of raw feed text keyed by file name.
//
// With maxEntries of zero the cache is unbounded and with ttl of zero entries
// never expire, so by default a file is fetched at most once per process.
// A positive maxEntries evicts the least recently used entry.
type Cache struct {
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock

	mu      sync.Mutex
	entries map[string]*entry
	head    *entry // most recently used
	tail    *entry // least recently used
}

type entry struct {
	key      string
	text     string
	storedAt time.Time
	prev     *entry
	next     *entry
}

// NewCache creates a raw feed cache. A nil clock uses real time.
func NewCache(maxEntries int, ttl time.Duration, clock clockwork.Clock) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clock,
		entries:    make(map[string]*entry),
	}
}

// Get returns the text stored for fileName.
func (c *Cache) Get(fileName string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[fileName]
	if !ok {
		return "", false
	}
	if c.expired(e) {
		c.delete(e)
		return "", false
	}
	c.moveToFront(e)
	return e.text, true
}

// Put stores text for fileName, replacing any previous entry.
func (c *Cache) Put(fileName, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if e, ok := c.entries[fileName]; ok {
		e.text = text
		e.storedAt = now
		c.moveToFront(e)
		return
	}

	e := &entry{key: fileName, text: text, storedAt: now}
	c.entries[fileName] = e
	c.addToFront(e)

	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.delete(c.tail)
	}
}

// Len returns the number of cached entries, expired ones included until they
// are next looked up.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.head, c.tail = nil, nil
}

func (c *Cache) expired(e *entry) bool {
	return c.ttl > 0 && c.clock.Since(e.storedAt) >= c.ttl
}

func (c *Cache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *Cache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *Cache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *Cache) delete(e *entry) {
	if e == nil {
		return
	}
	delete(c.entries, e.key)
	c.unlink(e)
}
