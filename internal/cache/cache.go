// Package cache provides a thread-safe generic map used by the in-memory stores.
package cache

import "sync"

type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		items: make(map[K]V),
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.items[key]
	return val, ok
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

// SetIfAbsent stores value only when key is missing and reports whether it did.
func (c *Cache[K, V]) SetIfAbsent(key K, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; ok {
		return false
	}
	c.items[key] = value
	return true
}

// Update runs fn with the current value under the write lock. When fn returns
// keep=false the entry is left as it was.
func (c *Cache[K, V]) Update(key K, fn func(current V, exists bool) (next V, keep bool)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	current, exists := c.items[key]
	next, keep := fn(current, exists)
	if keep {
		c.items[key] = next
	}
	return keep
}

// Move re-keys an entry, overwriting whatever was stored under to.
func (c *Cache[K, V]) Move(from, to K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.items[from]
	if !ok {
		return false
	}
	delete(c.items, from)
	c.items[to] = val
	return true
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Values returns a snapshot of the stored values in no particular order.
func (c *Cache[K, V]) Values() []V {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]V, 0, len(c.items))
	for _, v := range c.items {
		out = append(out, v)
	}
	return out
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]K, 0, len(c.items))
	for k := range c.items {
		out = append(out, k)
	}
	return out
}
