package render

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/zjrosen/pumlview/internal/cachemanager"
)

type renderRequest struct {
	source string
	format Format
}

// CachedBackend memoizes successful renders by content hash.
type CachedBackend struct {
	next  Backend
	ttl   time.Duration
	cache *cachemanager.ReadThroughCache[string, *Output, renderRequest]
}

// NewCachedBackend wraps next. A ttl of zero or less disables caching.
func NewCachedBackend(next Backend, cache cachemanager.CacheManager[string, *Output], ttl time.Duration) *CachedBackend {
	b := &CachedBackend{next: next, ttl: ttl}
	b.cache = cachemanager.NewReadThroughCache[string, *Output, renderRequest](
		cache,
		func(ctx context.Context, req renderRequest) (*Output, error) {
			return next.Render(ctx, req.source, req.format)
		},
		ttl <= 0,
	)
	return b
}

func (b *CachedBackend) Name() string { return b.next.Name() }

// Render returns a cached diagram for identical source and format.
func (b *CachedBackend) Render(ctx context.Context, source string, format Format) (*Output, error) {
	return b.cache.GetWithRefresh(ctx, CacheKey(source, format), renderRequest{source: source, format: format}, b.ttl)
}

// CacheKey identifies a render by format and source content.
func CacheKey(source string, format Format) string {
	sum := sha256.Sum256([]byte(string(format) + "\x00" + source))
	return string(format) + ":" + hex.EncodeToString(sum[:])
}
