package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/climate-anomaly/internal/observability"
)

// CachedFetcher wraps an HTTPFetcher with an in-memory LRU of documents.
// Cached entries are revalidated with a conditional GET on every fetch, so a
// 304 costs one round trip and no transfer.
type CachedFetcher struct {
	inner   *HTTPFetcher
	cache   *lruCache[document]
	metrics *observability.Metrics
}

// NewCachedFetcher creates a cache decorator around a fetcher.
func NewCachedFetcher(inner *HTTPFetcher, maxEntries int, metrics *observability.Metrics) *CachedFetcher {
	return &CachedFetcher{
		inner:   inner,
		cache:   newLRUCache[document](maxEntries),
		metrics: metrics,
	}
}

// Fetch returns the current body of rawURL, reusing the cached copy when the
// server reports it unchanged.
func (c *CachedFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	cached, ok := c.cache.get(rawURL)

	var etag, lastModified string
	if ok {
		etag, lastModified = cached.etag, cached.lastModified
	}

	doc, err := c.inner.get(ctx, rawURL, etag, lastModified)
	if err != nil {
		return nil, err
	}
	if doc.notModified {
		if !ok {
			return nil, fmt.Errorf("fetch %s: not modified without a cached copy", rawURL)
		}
		c.metrics.FetchCache.WithLabelValues("hit").Inc()
		return cached.body, nil
	}

	c.metrics.FetchCache.WithLabelValues("miss").Inc()
	// Documents without a validator cannot be revalidated.
	if doc.etag != "" || doc.lastModified != "" {
		c.cache.put(rawURL, doc)
	}
	return doc.body, nil
}

// lruCache is a simple thread-safe LRU cache.
type lruCache[V any] struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry[V]
	head       *entry[V] // most recently used
	tail       *entry[V] // least recently used
}

type entry[V any] struct {
	key   string
	value V
	prev  *entry[V]
	next  *entry[V]
}

func newLRUCache[V any](maxEntries int) *lruCache[V] {
	return &lruCache[V]{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry[V]),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[V]) moveToFront(e *entry[V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[V]) addToFront(e *entry[V]) {
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

func (c *lruCache[V]) remove(e *entry[V]) {
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

func (c *lruCache[V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
