// Package cache implements the process-wide content store backing the
// query engine's offset-index, column-index, and page fetches (§4.G). It
// is generic over the fetched value type so it has no dependency on the
// parquetquery package itself — parquetquery builds keys and supplies the
// typed fetch functions, avoiding an import cycle between the two.
package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/singleflight"
)

// Hooks are optional observability callbacks. They MUST NOT change
// behavior (§4.G) — they exist purely for timing/metrics instrumentation
// by the caller.
type Hooks struct {
	OnRead     func(key string)
	OnMiss     func(key string)
	OnComplete func(key string)
}

// Cache is the two-tier content store: a durable, size-bounded LRU for
// offset/column indices (reused across queries against the same reader),
// and a short-scope singleflight group for in-flight page fetches that are
// never retained once a consumer resolves them.
type Cache struct {
	durable *lru.Cache[string, any]
	durableSF singleflight.Group
	pageSF    singleflight.Group
	hooks     Hooks
	logger    log.Logger
}

// DefaultDurableSize is the default bound on the durable LRU tier (§4.G).
const DefaultDurableSize = 10_000

// New constructs a Cache with the given durable-tier size. logger may be
// nil, in which case diagnostics are discarded.
func New(durableSize int, hooks Hooks, logger log.Logger) *Cache {
	if durableSize <= 0 {
		durableSize = DefaultDurableSize
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	durable, err := lru.New[string, any](durableSize)
	if err != nil {
		// Only returns an error for a non-positive size, which we've just
		// guarded against above.
		panic(err)
	}
	return &Cache{durable: durable, hooks: hooks, logger: logger}
}

// FetchDurable resolves key from the durable LRU tier, deduplicating
// concurrent misses through a singleflight group so at most one call to
// fetch is ever in flight for a given key at a time (§3 invariant, §8
// property 6).
func FetchDurable[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := c.durable.Get(key); ok {
		if c.hooks.OnRead != nil {
			c.hooks.OnRead(key)
		}
		return v.(T), nil
	}
	if c.hooks.OnMiss != nil {
		c.hooks.OnMiss(key)
	}
	level.Debug(c.logger).Log("msg", "cache miss", "tier", "durable", "key", key)

	v, err, shared := c.durableSF.Do(key, func() (any, error) {
		// A caller that missed the LRU just before an earlier fetch for
		// this key completed finds the stored value here instead of
		// fetching it a second time.
		if v, ok := c.durable.Get(key); ok {
			return v, nil
		}
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.durable.Add(key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	level.Debug(c.logger).Log("msg", "cache fill", "tier", "durable", "key", key, "deduped", shared)
	if c.hooks.OnComplete != nil {
		c.hooks.OnComplete(key)
	}
	return v.(T), nil
}

// FetchShortScope resolves key through the short-scope singleflight group
// only: no durable storage, so the entry disappears the instant every
// waiter on the in-flight call has been woken (§4.G's "evicted after first
// consumer reads them" — here, after ALL consumers have read it, since
// singleflight fans the same result out to every concurrent caller).
func FetchShortScope[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) (T, error) {
	level.Debug(c.logger).Log("msg", "page fetch", "key", key)
	v, err, shared := c.pageSF.Do(key, func() (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	if shared {
		level.Debug(c.logger).Log("msg", "page fetch deduped", "key", key)
	}
	return v.(T), nil
}

// Len reports the current number of entries in the durable tier. Exposed
// for tests and diagnostics.
func (c *Cache) Len() int { return c.durable.Len() }
