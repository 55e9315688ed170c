// Package cache memoizes model scores keyed by the exact post-truncation
// text. For identical keys issued concurrently the compute function runs at
// most once; every caller observes the same settled RawScore.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/veritext/detector-service/internal/models"
)

// DefaultCapacity bounds memory when no capacity is configured.
const DefaultCapacity = 1024

type entry struct {
	key       string
	done      chan struct{}
	score     models.RawScore
	err       error
	createdAt time.Time
	elem      *list.Element
}

func (e *entry) settled() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Stats reports cache instrumentation counters.
type Stats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Entries  int   `json:"entries"`
	Capacity int   `json:"capacity"`
}

// Cache is a process-wide LRU memo table. Entries have no expiry: scores
// are model-invariant for the process lifetime. If the model were ever
// hot-swapped the whole cache must be purged.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*entry
	order    *list.List // front = most recently used
	hits     int64
	misses   int64
}

func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*entry),
		order:    list.New(),
	}
}

// Compute produces a score for a key on a cache miss.
type Compute func() (models.RawScore, error)

// GetOrCompute returns the memoized score for key, running compute at most
// once per key even under concurrent load. The bool reports whether the
// caller observed an existing entry. compute runs detached from the caller's
// context: an abandoning caller discards its copy of the result, but the
// shared computation finishes and settles the entry for future requests.
// Failed computations are not cached; they degrade to recomputation.
func (c *Cache) GetOrCompute(ctx context.Context, key string, compute Compute) (models.RawScore, bool, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.order.MoveToFront(e.elem)
		c.hits++
		c.mu.Unlock()
		return c.wait(ctx, e, true)
	}

	e := &entry{
		key:       key,
		done:      make(chan struct{}),
		createdAt: time.Now(),
	}
	e.elem = c.order.PushFront(e)
	c.entries[key] = e
	c.misses++
	c.evictLocked()
	c.mu.Unlock()

	go func() {
		score, err := compute()
		c.mu.Lock()
		e.score, e.err = score, err
		if err != nil {
			// Never memoize failures: the next identical request recomputes.
			c.removeLocked(e)
		}
		close(e.done)
		c.mu.Unlock()
	}()

	return c.wait(ctx, e, false)
}

// Purge drops every entry. Full invalidation only; there is no partial
// scheme.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.order.Init()
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:     c.hits,
		Misses:   c.misses,
		Entries:  len(c.entries),
		Capacity: c.capacity,
	}
}

func (c *Cache) wait(ctx context.Context, e *entry, hit bool) (models.RawScore, bool, error) {
	select {
	case <-e.done:
		return e.score, hit, e.err
	case <-ctx.Done():
		// Caller-side discard; the computation itself keeps running.
		return models.RawScore{}, hit, ctx.Err()
	}
}

// evictLocked trims least-recently-used settled entries beyond capacity.
// In-flight entries are never evicted, so the table may transiently exceed
// capacity while computations are pending.
func (c *Cache) evictLocked() {
	for len(c.entries) > c.capacity {
		evicted := false
		for el := c.order.Back(); el != nil; el = el.Prev() {
			e := el.Value.(*entry)
			if e.settled() {
				c.removeLocked(e)
				evicted = true
				break
			}
		}
		if !evicted {
			return
		}
	}
}

func (c *Cache) removeLocked(e *entry) {
	if cur, ok := c.entries[e.key]; ok && cur == e {
		delete(c.entries, e.key)
	}
	if e.elem != nil {
		c.order.Remove(e.elem)
		e.elem = nil
	}
}
