// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
)

const (
	// shardCount must be a power of 2 for mask based shard selection.
	shardCount = 16
	shardMask  = shardCount - 1

	// DefaultEntries is the default total entry limit.
	DefaultEntries = 256
)

// Options bounds a Cache. Limits are totals split evenly across shards.
type Options struct {
	// Entries is the maximum number of entries. Zero selects DefaultEntries.
	Entries int
	// Cost is the maximum total cost. Zero means unbounded.
	Cost int64
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Len       int
	Cost      int64
	Hits      uint64
	Misses    uint64
	Loads     uint64
	Shared    uint64 // loads joined by a concurrent caller
	Evictions uint64
}

// HitRate returns hits / (hits + misses), or 0 without lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is a sharded LRU cache with string keys.
type Cache[V any] struct {
	shards     [shardCount]*shard[V]
	maxEntries int
	maxCost    int64

	hits      atomic.Uint64
	misses    atomic.Uint64
	loads     atomic.Uint64
	shared    atomic.Uint64
	evictions atomic.Uint64
}

type shard[V any] struct {
	mu       sync.Mutex
	entries  map[string]*entry[V]
	lru      lruList
	cost     int64
	inflight map[string]*call[V]
}

type entry[V any] struct {
	value V
	node  *lruNode
}

// call is a load in progress that later callers wait on.
type call[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// New returns an empty cache.
func New[V any](opts Options) *Cache[V] {
	if opts.Entries <= 0 {
		opts.Entries = DefaultEntries
	}
	c := &Cache[V]{
		maxEntries: max(1, opts.Entries/shardCount),
	}
	if opts.Cost > 0 {
		c.maxCost = max(1, opts.Cost/shardCount)
	}
	for i := range c.shards {
		c.shards[i] = &shard[V]{
			entries:  make(map[string]*entry[V]),
			inflight: make(map[string]*call[V]),
		}
	}
	return c
}

func (c *Cache[V]) shard(key string) *shard[V] {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key)) // fnv.Write never returns an error
	return c.shards[h.Sum64()&shardMask]
}

// Get returns the cached value for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	s := c.shard(key)
	s.mu.Lock()
	e, ok := s.entries[key]
	if ok {
		s.lru.moveToFront(e.node)
	}
	s.mu.Unlock()
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Set stores value with the given cost, evicting old entries as needed.
// A value whose cost alone exceeds the shard budget is not stored.
func (c *Cache[V]) Set(key string, value V, cost int64) {
	s := c.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	c.setLocked(s, key, value, cost)
}

func (c *Cache[V]) setLocked(s *shard[V], key string, value V, cost int64) {
	if old, ok := s.entries[key]; ok {
		s.lru.unlink(old.node)
		s.cost -= old.node.cost
		delete(s.entries, key)
	}
	if c.maxCost > 0 && cost > c.maxCost {
		return
	}
	for s.lru.len >= c.maxEntries || (c.maxCost > 0 && s.cost+cost > c.maxCost) {
		n := s.lru.removeOldest()
		if n == nil {
			break
		}
		delete(s.entries, n.key)
		s.cost -= n.cost
		c.evictions.Add(1)
	}
	s.entries[key] = &entry[V]{value: value, node: s.lru.pushFront(key, cost)}
	s.cost += cost
}

// GetOrLoad returns the cached value for key or calls load to produce it.
// Concurrent callers for the same key share a single load, which runs on
// its own goroutine and belongs to no caller: each caller stops waiting
// when its ctx is done while the load carries on for the others. Errors are
// returned to every waiter and are not cached.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load func() (V, int64, error)) (V, error) {
	s := c.shard(key)
	s.mu.Lock()
	if e, ok := s.entries[key]; ok {
		s.lru.moveToFront(e.node)
		s.mu.Unlock()
		c.hits.Add(1)
		return e.value, nil
	}
	c.misses.Add(1)
	cl, ok := s.inflight[key]
	if ok {
		c.shared.Add(1)
	} else {
		cl = &call[V]{done: make(chan struct{})}
		s.inflight[key] = cl
		c.loads.Add(1)
		go c.run(s, key, cl, load)
	}
	s.mu.Unlock()

	select {
	case <-cl.done:
		return cl.value, cl.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

func (c *Cache[V]) run(s *shard[V], key string, cl *call[V], load func() (V, int64, error)) {
	var cost int64
	func() {
		defer func() {
			if r := recover(); r != nil {
				cl.err = fmt.Errorf("cache: load of %q panicked: %v", key, r)
			}
		}()
		cl.value, cost, cl.err = load()
	}()

	s.mu.Lock()
	delete(s.inflight, key)
	if cl.err == nil {
		c.setLocked(s, key, cl.value, cost)
	}
	s.mu.Unlock()
	close(cl.done)
}

// Delete removes key. It reports whether the key was present.
func (c *Cache[V]) Delete(key string) bool {
	s := c.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	s.lru.unlink(e.node)
	s.cost -= e.node.cost
	delete(s.entries, key)
	return true
}

// Clear removes every entry. Loads in progress are unaffected.
func (c *Cache[V]) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[string]*entry[V])
		s.lru = lruList{}
		s.cost = 0
		s.mu.Unlock()
	}
}

// Len returns the number of entries.
func (c *Cache[V]) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

// Stats returns current counters.
func (c *Cache[V]) Stats() Stats {
	st := Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Loads:     c.loads.Load(),
		Shared:    c.shared.Load(),
		Evictions: c.evictions.Load(),
	}
	for _, s := range c.shards {
		s.mu.Lock()
		st.Len += len(s.entries)
		st.Cost += s.cost
		s.mu.Unlock()
	}
	return st
}
