package cache

import (
	"context"
	"io"
	"time"

	applogger "FinScore/pkg/logger"
)

// LayeredCache reads L1 first, then L2, back-filling L1 on an L2 hit.
// Writes go to both. L2 failures are logged and never fail the caller:
// the cache only ever saves work.
type LayeredCache struct {
	l1    BytesCache
	l2    BytesCache
	l1TTL time.Duration
	log   *applogger.Logger
}

// NewLayeredCache builds the two-level cache. l2 may be nil.
func NewLayeredCache(l1, l2 BytesCache, l1TTL time.Duration) *LayeredCache {
	return &LayeredCache{l1: l1, l2: l2, l1TTL: l1TTL, log: applogger.Nop()}
}

var _ BytesCache = (*LayeredCache)(nil)

func (lc *LayeredCache) SetLogger(l *applogger.Logger) {
	if l != nil {
		lc.log = l
	}
}

func (lc *LayeredCache) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if b, ok, err := lc.l1.GetBytes(ctx, key); err == nil && ok {
		return b, true, nil
	}
	if lc.l2 == nil {
		return nil, false, nil
	}
	b, ok, err := lc.l2.GetBytes(ctx, key)
	if err != nil {
		lc.log.Warn("cache.l2 get failed", applogger.String("key", key), applogger.Error(err))
		return nil, false, nil
	}
	if !ok {
		return nil, false, nil
	}
	_ = lc.l1.SetBytes(ctx, key, b, lc.l1TTL)
	return b, true, nil
}

func (lc *LayeredCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	l1TTL := lc.l1TTL
	if ttl > 0 && (l1TTL <= 0 || ttl < l1TTL) {
		l1TTL = ttl
	}
	if err := lc.l1.SetBytes(ctx, key, value, l1TTL); err != nil {
		return err
	}
	if lc.l2 == nil {
		return nil
	}
	if err := lc.l2.SetBytes(ctx, key, value, ttl); err != nil {
		lc.log.Warn("cache.l2 set failed", applogger.String("key", key), applogger.Error(err))
	}
	return nil
}

// Close releases the L2 connection when it holds one.
func (lc *LayeredCache) Close() error {
	if c, ok := lc.l2.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
