// v1
// internal/cache/cache.go
package cache

import (
	"sync"
	"time"
)

// Observer is told about every lookup outcome.
type Observer interface {
	CacheHit()
	CacheMiss()
}

type entry[T any] struct {
	val T
	exp time.Time
}

// Cache is a TTL cache whose entries are grouped by scope so that every report
// derived from one user's history can be dropped at once.
type Cache[T any] struct {
	mu    sync.RWMutex
	m     map[string]map[string]entry[T]
	gens  map[string]uint64
	epoch uint64
	ttl   time.Duration
	obs   Observer
	now   func() time.Time
}

// Token captures the invalidation state of a scope before a value is computed.
type Token struct {
	epoch uint64
	gen   uint64
}

// New returns a cache. A non-positive ttl disables caching entirely.
func New[T any](ttl time.Duration, obs Observer) *Cache[T] {
	return &Cache[T]{
		m:    make(map[string]map[string]entry[T]),
		gens: make(map[string]uint64),
		ttl:  ttl,
		obs:  obs,
		now:  time.Now,
	}
}

// Get returns the unexpired entry for key within scope.
func (c *Cache[T]) Get(scope, key string) (T, bool) {
	var zero T
	if c.ttl <= 0 {
		return zero, false
	}
	c.mu.RLock()
	e, ok := c.m[scope][key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.exp) {
		if c.obs != nil {
			c.obs.CacheMiss()
		}
		return zero, false
	}
	if c.obs != nil {
		c.obs.CacheHit()
	}
	return e.val, true
}

// Set stores v under key unconditionally.
func (c *Cache[T]) Set(scope, key string, v T) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.store(scope, key, v)
	c.mu.Unlock()
}

// Snapshot returns the token to pass to SetIfUnchanged once the value is computed.
func (c *Cache[T]) Snapshot(scope string) Token {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Token{epoch: c.epoch, gen: c.gens[scope]}
}

// SetIfUnchanged stores v only if scope was not invalidated since tok was taken,
// so a value computed from data older than an invalidation is never cached.
func (c *Cache[T]) SetIfUnchanged(scope, key string, v T, tok Token) bool {
	if c.ttl <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != tok.epoch || c.gens[scope] != tok.gen {
		return false
	}
	c.store(scope, key, v)
	return true
}

// store must be called with mu held.
func (c *Cache[T]) store(scope, key string, v T) {
	bucket, ok := c.m[scope]
	if !ok {
		bucket = make(map[string]entry[T])
		c.m[scope] = bucket
	}
	bucket[key] = entry[T]{val: v, exp: c.now().Add(c.ttl)}
}

// Invalidate drops every entry of scope.
func (c *Cache[T]) Invalidate(scope string) {
	c.mu.Lock()
	delete(c.m, scope)
	c.gens[scope]++
	c.mu.Unlock()
}

// Purge drops everything.
func (c *Cache[T]) Purge() {
	c.mu.Lock()
	c.m = make(map[string]map[string]entry[T])
	c.epoch++
	c.mu.Unlock()
}
