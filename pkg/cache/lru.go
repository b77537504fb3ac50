// Package cache provides a size-aware LRU cache.
package cache

import (
	"sync"
	"sync/atomic"
)

// DefaultMaxSize is the default size budget of an LRU (16 MiB).
const DefaultMaxSize = 16 << 20

const bytesPerKB = 1024.0

// evictionSampleSize is the number of least recently used entries compared
// when choosing a victim.
const evictionSampleSize = 5

// LRU caches values up to a total size. When the budget is exceeded it evicts
// large, rarely accessed entries among the least recently used ones first.
// It is safe for concurrent use.
type LRU[K comparable, V any] struct {
	entries     map[K]*lruEntry[K, V]
	head        *lruEntry[K, V] // Most recently used.
	tail        *lruEntry[K, V] // Least recently used.
	sizeOf      func(V) int64
	maxSize     int64
	currentSize int64
	mu          sync.Mutex

	hits   atomic.Int64
	misses atomic.Int64
}

type lruEntry[K comparable, V any] struct {
	key         K
	value       V
	prev        *lruEntry[K, V]
	next        *lruEntry[K, V]
	size        int64
	accessCount int64
}

// evictionCost is higher for entries that are less desirable to evict.
func (e *lruEntry[K, V]) evictionCost() float64 {
	sizeKB := max(float64(e.size)/bytesPerKB, 1)

	return float64(e.accessCount) / sizeKB
}

// NewLRU creates a cache bounded by maxSize as measured by sizeOf. A
// non-positive maxSize uses DefaultMaxSize.
func NewLRU[K comparable, V any](maxSize int64, sizeOf func(V) int64) *LRU[K, V] {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	return &LRU[K, V]{
		entries: make(map[K]*lruEntry[K, V]),
		sizeOf:  sizeOf,
		maxSize: maxSize,
	}
}

// Get returns the value cached under key.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)

		var zero V

		return zero, false
	}

	c.hits.Add(1)

	entry.accessCount++
	c.moveToFront(entry)

	return entry.value, true
}

// Put stores value under key, replacing any previous value. Values larger
// than the whole budget are not cached.
func (c *LRU[K, V]) Put(key K, value V) {
	size := c.sizeOf(value)
	if size > c.maxSize {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		c.currentSize += size - entry.size
		entry.value = value
		entry.size = size
		entry.accessCount++
		c.moveToFront(entry)
	} else {
		entry = &lruEntry[K, V]{key: key, value: value, size: size, accessCount: 1}
		c.entries[key] = entry
		c.currentSize += size
		c.addToFront(entry)
	}

	for c.currentSize > c.maxSize && c.tail != nil {
		c.evictLowestCost()
	}
}

// Remove drops key from the cache.
func (c *LRU[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return
	}

	c.removeFromList(entry)
	delete(c.entries, key)
	c.currentSize -= entry.size
}

// Stats holds cache performance counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Entries     int
	CurrentSize int64
	MaxSize     int64
}

// HitRate returns the cache hit rate (0.0 to 1.0).
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}

	return float64(s.Hits) / float64(total)
}

// Stats returns cache statistics.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Entries:     len(c.entries),
		CurrentSize: c.currentSize,
		MaxSize:     c.maxSize,
	}
}

func (c *LRU[K, V]) moveToFront(entry *lruEntry[K, V]) {
	if entry == c.head {
		return
	}

	c.removeFromList(entry)
	c.addToFront(entry)
}

func (c *LRU[K, V]) addToFront(entry *lruEntry[K, V]) {
	entry.prev = nil
	entry.next = c.head

	if c.head != nil {
		c.head.prev = entry
	}

	c.head = entry

	if c.tail == nil {
		c.tail = entry
	}
}

func (c *LRU[K, V]) removeFromList(entry *lruEntry[K, V]) {
	if entry.prev != nil {
		entry.prev.next = entry.next
	} else {
		c.head = entry.next
	}

	if entry.next != nil {
		entry.next.prev = entry.prev
	} else {
		c.tail = entry.prev
	}

	entry.prev = nil
	entry.next = nil
}

// evictLowestCost samples the tail and evicts the entry with the lowest
// eviction cost.
func (c *LRU[K, V]) evictLowestCost() {
	victim := c.tail
	lowestCost := victim.evictionCost()

	entry := victim.prev
	for range evictionSampleSize - 1 {
		if entry == nil {
			break
		}

		if cost := entry.evictionCost(); cost < lowestCost {
			victim, lowestCost = entry, cost
		}

		entry = entry.prev
	}

	c.removeFromList(victim)
	delete(c.entries, victim.key)
	c.currentSize -= victim.size
}
