package adapter

import (
	"context"
	"time"

	"github.com/zjrosen/regcheck/internal/cachemanager"
)

// CachedResolver memoizes another resolver. Placeholder modules shared by many
// records, and repeated runs in watch mode, resolve once per ttl.
type CachedResolver struct {
	cache *cachemanager.ReadThroughCache[string, Module, string]
	ttl   time.Duration
}

// NewCachedResolver wraps next with a read-through cache. A ttl of zero
// disables caching.
func NewCachedResolver(next Resolver, cache cachemanager.CacheManager[string, Module], ttl time.Duration) *CachedResolver {
	return &CachedResolver{
		cache: cachemanager.NewReadThroughCache[string, Module, string](cache, next.Resolve, ttl <= 0),
		ttl:   ttl,
	}
}

// Resolve returns the cached module for ref, resolving it on a miss.
func (r *CachedResolver) Resolve(ctx context.Context, ref string) (Module, error) {
	return r.cache.Get(ctx, ref, ref, r.ttl)
}
