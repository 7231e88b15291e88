// Package cache provides a fixed-capacity cache backed by a ring buffer.
package cache

import "errors"

var ErrInvalidCapacity = errors.New("cache capacity must be positive")

// LRU is a fixed-capacity map whose slots form a ring. A new key always
// overwrites the slot under the cursor, so eviction follows insertion order
// and lookups do not refresh an entry.
//
// LRU is not safe for concurrent use.
type LRU[K comparable, V any] struct {
	keys   []K
	used   []bool
	values map[K]V
	slots  map[K]int
	cursor int
}

// New returns an empty cache holding at most capacity entries.
// It panics if capacity is not positive.
func New[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity <= 0 {
		panic(ErrInvalidCapacity)
	}
	return &LRU[K, V]{
		keys:   make([]K, capacity),
		used:   make([]bool, capacity),
		values: make(map[K]V, capacity),
		slots:  make(map[K]int, capacity),
	}
}

func (c *LRU[K, V]) Get(key K) (V, bool) {
	v, ok := c.values[key]
	return v, ok
}

func (c *LRU[K, V]) Contains(key K) bool {
	_, ok := c.values[key]
	return ok
}

// Add stores value under key. A key already present keeps its slot.
// It returns the evicted key, if any.
func (c *LRU[K, V]) Add(key K, value V) (evicted K, ok bool) {
	if _, found := c.slots[key]; found {
		c.values[key] = value
		return evicted, false
	}

	if c.used[c.cursor] {
		evicted, ok = c.keys[c.cursor], true
		delete(c.values, evicted)
		delete(c.slots, evicted)
	}

	c.keys[c.cursor] = key
	c.used[c.cursor] = true
	c.values[key] = value
	c.slots[key] = c.cursor
	c.cursor = (c.cursor + 1) % len(c.keys)
	return evicted, ok
}

func (c *LRU[K, V]) Len() int {
	return len(c.values)
}

func (c *LRU[K, V]) Capacity() int {
	return len(c.keys)
}

// Clear removes all entries and rewinds the cursor.
func (c *LRU[K, V]) Clear() {
	var zero K
	for i := range c.keys {
		c.keys[i] = zero
		c.used[i] = false
	}
	clear(c.values)
	clear(c.slots)
	c.cursor = 0
}
