// internal/cache/ttl.go
//
// Generic TTL cache with optional LRU bound.
//
// Context
// -------
// The tenant resolver memoises host → tenant lookups for a fixed window.
// Entries expire a fixed duration after insertion and are evicted lazily:
// the first Get at or past the deadline deletes the entry and reports a
// miss.  Nothing runs in the background; an idle cache holds its expired
// entries until they are touched, overwritten, or pushed out by the LRU
// bound.
//
// When capacity > 0 the cache also keeps a recency list and drops the least
// recently used entry once the bound is exceeded.  capacity == 0 means
// unbounded.
//
// Notes
// -----
//   - The clock is injectable (github.com/benbjohnson/clock) so tests can
//     step time instead of sleeping.
//   - Safe for concurrent use; one mutex guards the map and the list.
//   - Oxford commas, two spaces after periods.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// TTL is a fixed-lifetime cache.  Zero value is unusable; construct with New.
type TTL[K comparable, V any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	cap   int
	clock clock.Clock
	ll    *list.List
	items map[K]*list.Element
}

type entry[K comparable, V any] struct {
	key       K
	val       V
	expiresAt time.Time
}

// New returns a cache whose entries live for ttl.  capacity <= 0 disables
// the LRU bound.  A nil clk uses the wall clock.
func New[K comparable, V any](ttl time.Duration, capacity int, clk clock.Clock) *TTL[K, V] {
	if clk == nil {
		clk = clock.New()
	}
	if capacity < 0 {
		capacity = 0
	}
	return &TTL[K, V]{
		ttl:   ttl,
		cap:   capacity,
		clock: clk,
		ll:    list.New(),
		items: make(map[K]*list.Element),
	}
}

// Get returns the live value for key.  An entry at or past its deadline is
// deleted and reported as absent.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	ele, ok := c.items[key]
	if !ok {
		return zero, false
	}
	ent := ele.Value.(*entry[K, V])
	if !c.clock.Now().Before(ent.expiresAt) {
		c.removeElement(ele)
		return zero, false
	}
	c.ll.MoveToFront(ele)
	return ent.val, true
}

// Set stores val under key with a fresh deadline and reports how many
// entries the LRU bound pushed out.
func (c *TTL[K, V]) Set(key K, val V) (evicted int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline := c.clock.Now().Add(c.ttl)
	if ele, ok := c.items[key]; ok {
		ent := ele.Value.(*entry[K, V])
		ent.val = val
		ent.expiresAt = deadline
		c.ll.MoveToFront(ele)
		return 0
	}

	c.items[key] = c.ll.PushFront(&entry[K, V]{key: key, val: val, expiresAt: deadline})
	for c.cap > 0 && c.ll.Len() > c.cap {
		c.removeElement(c.ll.Back())
		evicted++
	}
	return evicted
}

// Delete drops key if present.
func (c *TTL[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, ok := c.items[key]; ok {
		c.removeElement(ele)
	}
}

// Len reports stored entries, including expired ones not yet touched.
func (c *TTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// TTL returns the configured entry lifetime.
func (c *TTL[K, V]) TTL() time.Duration { return c.ttl }

func (c *TTL[K, V]) removeElement(ele *list.Element) {
	c.ll.Remove(ele)
	delete(c.items, ele.Value.(*entry[K, V]).key)
}
