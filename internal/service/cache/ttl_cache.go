package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	v   []byte
	exp time.Time
}

// TTLCache is an in-process BytesCache. Expired entries are dropped lazily
// on read and when the size cap forces an eviction.
type TTLCache struct {
	mu      sync.RWMutex
	m       map[string]entry
	maxSize int
	now     func() time.Time
}

// NewTTLCache builds a cache holding at most maxSize entries (0 = unbounded).
func NewTTLCache(maxSize int) *TTLCache {
	return &TTLCache{m: make(map[string]entry), maxSize: maxSize, now: time.Now}
}

var _ BytesCache = (*TTLCache)(nil)

func (c *TTLCache) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && c.now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.v, true, nil
}

func (c *TTLCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.m[key]; !exists && c.maxSize > 0 && len(c.m) >= c.maxSize {
		c.evictLocked()
	}
	c.m[key] = entry{v: value, exp: exp}
	return nil
}

// evictLocked drops expired entries, or the entry closest to expiry when
// none have expired.
func (c *TTLCache) evictLocked() {
	now := c.now()
	victim := ""
	var soonest time.Time
	for k, e := range c.m {
		if !e.exp.IsZero() && now.After(e.exp) {
			delete(c.m, k)
			continue
		}
		if victim == "" || (!e.exp.IsZero() && (soonest.IsZero() || e.exp.Before(soonest))) {
			victim, soonest = k, e.exp
		}
	}
	if len(c.m) >= c.maxSize && victim != "" {
		delete(c.m, victim)
	}
}

// Len is the number of stored entries, expired ones included.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
