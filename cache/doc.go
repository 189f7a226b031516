// Package cache provides the read-through caching interfaces used by
// the repository layer.
//
// CacheService is a TTL cache with negative caching: a fetch that
// reports ErrNotFound is recorded so repeated lookups for an absent
// key do not hit the database again within the TTL window. Expiry is
// absolute, computed when the entry is written. KeySerializer builds
// the stable lookup keys repositories use for reads and for targeted
// invalidation after writes.
//
// The default implementation lives in internal/cacheinfra and is
// constructed through NewCacheService; the generic GetOrFetch and
// GetOrFetchBatch helpers restore type safety over the any-based
// service interface.
package cache
