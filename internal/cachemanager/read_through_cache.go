package cachemanager

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
)

// ReadThroughCache loads misses through fn and stores successful results.
// Concurrent misses on the same key share one call to fn.
type ReadThroughCache[K ~string, V any, I any] struct {
	cache           CacheManager[K, V]
	fn              func(ctx context.Context, input I) (V, error)
	shouldSkipCache bool
	group           singleflight.Group
}

// NewReadThroughCache wraps fn. With shouldSkipCache every call goes to fn.
func NewReadThroughCache[K ~string, V any, I any](
	cache CacheManager[K, V],
	fn func(ctx context.Context, input I) (V, error),
	shouldSkipCache bool,
) *ReadThroughCache[K, V, I] {
	return &ReadThroughCache[K, V, I]{
		cache:           cache,
		fn:              fn,
		shouldSkipCache: shouldSkipCache,
	}
}

// Get returns the cached value for key or loads it from input.
func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	if r.shouldSkipCache {
		return r.fn(ctx, input)
	}
	if value, ok := r.cache.Get(ctx, key); ok {
		return value, nil
	}
	return r.load(ctx, key, input, ttl)
}

// GetWithRefresh is Get that restarts the TTL on a hit.
func (r *ReadThroughCache[K, V, I]) GetWithRefresh(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	if r.shouldSkipCache {
		return r.fn(ctx, input)
	}
	if value, ok := r.cache.GetWithRefresh(ctx, key, ttl); ok {
		return value, nil
	}
	return r.load(ctx, key, input, ttl)
}

// maxSharedRetries bounds how often a caller reloads after joining a call
// that another caller's context cancelled.
const maxSharedRetries = 3

func (r *ReadThroughCache[K, V, I]) load(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	for attempt := 0; ; attempt++ {
		res, err, shared := r.group.Do(string(key), func() (any, error) {
			value, err := r.fn(ctx, input)
			if err != nil {
				return value, err
			}
			r.cache.Set(ctx, key, value, ttl)
			return value, nil
		})
		// A shared call runs with the first caller's context. Its
		// cancellation is not ours while our own context is live.
		if shared && isContextErr(err) && ctx.Err() == nil && attempt < maxSharedRetries {
			r.group.Forget(string(key))
			continue
		}
		value, _ := res.(V)
		return value, err
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
