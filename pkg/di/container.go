package di

import (
	"context"

	"github.com/brokerandyT2/photo-sub000/cache"
	"github.com/brokerandyT2/photo-sub000/dbcontext"
	"github.com/brokerandyT2/photo-sub000/repository"
)

// Config holds everything the container needs to assemble the
// persistence stack.
type Config struct {
	// DatabasePath is the SQLite file path. Parent directories are
	// created on open.
	DatabasePath string

	// Cache configures the shared TTL cache used by the cached
	// repositories.
	Cache cache.Config
}

// DefaultConfig returns the configuration used by the app: the given
// database path with the default 15 minute cache.
func DefaultConfig(databasePath string) Config {
	return Config{
		DatabasePath: databasePath,
		Cache:        cache.DefaultConfig(),
	}
}

// Container wires the persistence stack: one DatabaseContext, one
// shared cache service and key serializer, and the repositories bound
// to them. It manages singleton instances; construct one per process
// and share it.
type Container struct {
	config Config

	dbc           *dbcontext.DatabaseContext
	settingCache  cache.CacheService
	locationCache cache.CacheService
	weatherCache  cache.CacheService
	keySerializer cache.KeySerializer
	unitOfWork    *repository.UnitOfWork
}

// NewContainer builds the full stack from config. Each cached
// repository owns a cache instance built from the same configuration,
// so invalidating one entity's entries never touches another's. The
// database is opened but not initialized; call Initialize before
// first use.
func NewContainer(config Config) (*Container, error) {
	settingCache, err := cache.NewCacheService(config.Cache)
	if err != nil {
		return nil, err
	}
	locationCache, err := cache.NewCacheService(config.Cache)
	if err != nil {
		return nil, err
	}
	weatherCache, err := cache.NewCacheService(config.Cache)
	if err != nil {
		return nil, err
	}

	dbc, err := dbcontext.Open(config.DatabasePath)
	if err != nil {
		return nil, err
	}

	keySerializer := cache.NewDefaultKeySerializer()

	settings := repository.NewSettingRepository(dbc, settingCache, keySerializer)
	locations := repository.NewLocationRepository(dbc, locationCache, keySerializer)
	tips := repository.NewTipRepository(dbc)
	weather := repository.NewWeatherRepository(dbc, weatherCache, keySerializer)
	subscriptions := repository.NewSubscriptionRepository(dbc)

	return &Container{
		config:        config,
		dbc:           dbc,
		settingCache:  settingCache,
		locationCache: locationCache,
		weatherCache:  weatherCache,
		keySerializer: keySerializer,
		unitOfWork:    repository.NewUnitOfWork(dbc, settings, locations, tips, weather, subscriptions),
	}, nil
}

// NewContainerWithDefaults builds the stack for databasePath with the
// default cache configuration.
func NewContainerWithDefaults(databasePath string) (*Container, error) {
	return NewContainer(DefaultConfig(databasePath))
}

// Initialize applies the engine pragmas and runs pending schema
// migrations. Idempotent; call once at startup before any repository
// use.
func (c *Container) Initialize(ctx context.Context) error {
	if err := c.dbc.Initialize(ctx); err != nil {
		return err
	}
	return c.dbc.Migrate()
}

// Close releases the database handle.
func (c *Container) Close() error {
	return c.dbc.Close()
}

// DatabaseContext returns the singleton database context, for
// infrastructure that needs transaction control directly.
func (c *Container) DatabaseContext() *dbcontext.DatabaseContext {
	return c.dbc
}

// SettingCache returns the cache instance backing the setting
// repository, for targeted invalidation from outside the repository.
func (c *Container) SettingCache() cache.CacheService {
	return c.settingCache
}

// LocationCache returns the cache instance backing the location
// repository.
func (c *Container) LocationCache() cache.CacheService {
	return c.locationCache
}

// WeatherCache returns the cache instance backing the weather
// repository.
func (c *Container) WeatherCache() cache.CacheService {
	return c.weatherCache
}

// KeySerializer returns the singleton key serializer instance.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// UnitOfWork returns the repository bundle.
func (c *Container) UnitOfWork() *repository.UnitOfWork {
	return c.unitOfWork
}

// Settings returns the setting repository.
func (c *Container) Settings() *repository.SettingRepository {
	return c.unitOfWork.Settings
}

// Locations returns the location repository.
func (c *Container) Locations() *repository.LocationRepository {
	return c.unitOfWork.Locations
}

// Tips returns the tip repository.
func (c *Container) Tips() *repository.TipRepository {
	return c.unitOfWork.Tips
}

// Weather returns the weather repository.
func (c *Container) Weather() *repository.WeatherRepository {
	return c.unitOfWork.Weather
}

// Subscriptions returns the subscription repository.
func (c *Container) Subscriptions() *repository.SubscriptionRepository {
	return c.unitOfWork.Subscriptions
}

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() Config {
	return c.config
}
