// Package cache memoizes verdicts per URL so repeated navigations within the
// TTL window skip the remote scorer.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/phishguard/phishguard/pkg/verdict"
)

const (
	// DefaultTTL balances freshness against scorer load. Verdicts for a URL
	// are expected to be stable well beyond this window.
	DefaultTTL = 30 * time.Minute

	DefaultCapacity = 100
)

type entry struct {
	url        string
	verdict    *verdict.Verdict
	insertedAt time.Time
}

// Cache is a TTL + LRU bounded verdict cache. Keys are the exact URL string:
// trailing-slash and query-order variants are deliberately distinct entries.
// Safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	items    map[string]*list.Element
	order    *list.List // front = most recently used

	now func() time.Time
}

// New builds a Cache. Non-positive ttl or capacity fall back to the defaults.
func New(ttl time.Duration, capacity int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		ttl:      ttl,
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get returns the cached verdict for url, or nil. Entries past the TTL are
// evicted on access and never returned.
func (c *Cache) Get(url string) *verdict.Verdict {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[url]
	if !ok {
		return nil
	}
	e := el.Value.(*entry)
	if c.now().Sub(e.insertedAt) >= c.ttl {
		c.order.Remove(el)
		delete(c.items, url)
		return nil
	}
	c.order.MoveToFront(el)
	return e.verdict
}

// Put stores a verdict, replacing any existing entry for the same URL and
// evicting the least recently used entry when over capacity. Last writer wins.
func (c *Cache) Put(url string, v *verdict.Verdict) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[url]; ok {
		el.Value.(*entry).verdict = v
		el.Value.(*entry).insertedAt = c.now()
		c.order.MoveToFront(el)
		return
	}

	c.items[url] = c.order.PushFront(&entry{url: url, verdict: v, insertedAt: c.now()})

	for len(c.items) > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*entry).url)
	}
}

// Len reports the number of live entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Reset drops every entry. Used by tests and the daemon's teardown path.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.order.Init()
}
