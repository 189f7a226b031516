package cacheinfra

import (
	"context"
	"errors"
	"time"

	"github.com/viccon/sturdyc"
)

// ErrNotFound is the miss sentinel shared between the cache package
// and this adapter. It lives here so both can reference it without an
// import cycle; the cache package re-exports it.
var ErrNotFound = errors.New("cache: record not found")

// Config holds the settings for the sturdyc cache adapter.
type Config struct {
	// Capacity is the maximum number of entries the cache can store.
	// Must be greater than 0.
	Capacity int

	// NumShards determines how many shards back the cache. Cache
	// bookkeeping is serialized per shard while fetches for different
	// keys proceed in parallel. Must be greater than 0.
	NumShards int

	// TTL is the absolute time-to-live for cached entries, computed at
	// write time. Must be greater than 0.
	TTL time.Duration

	// EvictionPercentage is what share of entries to evict when the
	// cache reaches capacity. Must be between 1 and 100.
	EvictionPercentage int

	// MissingRecordStorage enables negative caching: keys whose fetch
	// found no row are remembered so repeated lookups skip the
	// database until the entry expires.
	MissingRecordStorage bool

	// EvictionInterval sets how often expired entries are collected.
	// Zero uses the library default.
	EvictionInterval time.Duration
}

// DefaultConfig returns the settings used for setting lookups: a
// 15 minute TTL with negative caching on.
func DefaultConfig() Config {
	return Config{
		Capacity:             10000,
		NumShards:            64,
		TTL:                  15 * time.Minute,
		EvictionPercentage:   10,
		MissingRecordStorage: true,
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	return nil
}

// ToSturdycOptions maps the optional settings onto sturdyc options.
// Capacity, NumShards, TTL and EvictionPercentage go straight to the
// sturdyc.New constructor instead.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option
	if c.MissingRecordStorage {
		options = append(options, sturdyc.WithMissingRecordStorage())
	}
	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}
	return options
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// sturdycService adapts a sturdyc client to the cache.CacheService
// contract, translating between ErrNotFound and sturdyc's missing
// record sentinels.
type sturdycService struct {
	client *sturdyc.Client[any]
}

// NewSturdycService validates cfg and builds the adapter.
func NewSturdycService(cfg Config) (*sturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[any](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &sturdycService{client: client}, nil
}

// GetOrFetch returns the cached value for key, or runs fetchFn and
// caches the result. A fetchFn returning ErrNotFound stores a negative
// entry; hitting a negative entry returns ErrNotFound without calling
// fetchFn.
func (s *sturdycService) GetOrFetch(ctx context.Context, key string, fetchFn func(ctx context.Context) (any, error)) (any, error) {
	v, err := s.client.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		v, err := fetchFn(ctx)
		if errors.Is(err, ErrNotFound) {
			return nil, sturdyc.ErrNotFound
		}
		return v, err
	})
	if err != nil {
		if errors.Is(err, sturdyc.ErrMissingRecord) || errors.Is(err, sturdyc.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

// GetOrFetchBatch resolves keys against the cache and calls fetchFn
// once with the miss set. Keys absent from fetchFn's result map are
// stored as negative entries and omitted from the returned map, so
// every requested key is settled in a single pass.
func (s *sturdycService) GetOrFetchBatch(ctx context.Context, keys []string, fetchFn func(ctx context.Context, missing []string) (map[string]any, error)) (map[string]any, error) {
	// Keys arriving here are already fully serialized cache keys, so
	// the identity KeyFn keeps the result map keyed the same way.
	identity := func(id string) string { return id }

	return s.client.GetOrFetchBatch(ctx, keys, identity, func(ctx context.Context, missing []string) (map[string]any, error) {
		return fetchFn(ctx, missing)
	})
}

// Set writes value under key with the configured TTL, replacing any
// existing (including negative) entry.
func (s *sturdycService) Set(ctx context.Context, key string, value any) {
	s.client.Set(key, value)
}

// Delete removes the entry for key so the next read fetches fresh.
func (s *sturdycService) Delete(ctx context.Context, key string) {
	s.client.Delete(key)
}

// InvalidateKeys removes every listed key in one sweep. Repositories
// use it after bulk writes so partial visibility cannot occur while a
// batch is in flight.
func (s *sturdycService) InvalidateKeys(ctx context.Context, keys []string) {
	for _, key := range keys {
		s.client.Delete(key)
	}
}
