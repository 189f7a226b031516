package cache

import (
	"context"
	"fmt"

	"github.com/brokerandyT2/photo-sub000/internal/cacheinfra"
)

// ErrNotFound marks a lookup whose backing store had no row. Fetch
// functions return it to have the miss cached as a negative entry, and
// GetOrFetch returns it when a negative entry is hit, so repeated
// lookups for an absent key cost at most one database query per TTL
// window.
var ErrNotFound = cacheinfra.ErrNotFound

// KeySerializer builds a cache key from a method name plus arbitrary
// args. It must produce stable keys across calls.
type KeySerializer interface {
	SerializeKey(method string, args ...any) string
}

// FetchFn loads a value from the source of truth on a cache miss.
type FetchFn[T any] func(ctx context.Context) (T, error)

// BatchFetchFn loads the values for the miss set of a batch lookup,
// keyed by cache key. Keys absent from the returned map are recorded
// as negative entries.
type BatchFetchFn[T any] func(ctx context.Context, missing []string) (map[string]T, error)

// CacheService exposes the read-through and invalidation operations
// repositories need. Implementations serialize their bookkeeping
// internally; fetch functions for different keys may run in parallel.
type CacheService interface {
	GetOrFetch(ctx context.Context, key string, fetchFn func(ctx context.Context) (any, error)) (any, error)
	GetOrFetchBatch(ctx context.Context, keys []string, fetchFn func(ctx context.Context, missing []string) (map[string]any, error)) (map[string]any, error)
	Set(ctx context.Context, key string, value any)
	Delete(ctx context.Context, key string)
	InvalidateKeys(ctx context.Context, keys []string)
}

// GetOrFetch is the type-safe wrapper over CacheService.GetOrFetch.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, fetchFn FetchFn[T]) (T, error) {
	var zero T
	result, err := service.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		v, err := fetchFn(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	v, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("cache: key %q holds %T, want %T", key, result, zero)
	}
	return v, nil
}

// GetOrFetchBatch is the type-safe wrapper over
// CacheService.GetOrFetchBatch. The returned map is keyed by cache key
// and omits keys with negative entries.
func GetOrFetchBatch[T any](ctx context.Context, service CacheService, keys []string, fetchFn BatchFetchFn[T]) (map[string]T, error) {
	result, err := service.GetOrFetchBatch(ctx, keys, func(ctx context.Context, missing []string) (map[string]any, error) {
		fetched, err := fetchFn(ctx, missing)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(fetched))
		for k, v := range fetched {
			out[k] = v
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]T, len(result))
	for k, raw := range result {
		v, ok := raw.(T)
		if !ok {
			var zero T
			return nil, fmt.Errorf("cache: key %q holds %T, want %T", k, raw, zero)
		}
		out[k] = v
	}
	return out, nil
}
