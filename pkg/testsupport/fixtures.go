package testsupport

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brokerandyT2/photo-sub000/cache"
	"github.com/brokerandyT2/photo-sub000/dbcontext"
	"github.com/brokerandyT2/photo-sub000/domain"
)

// OpenDatabase opens, initializes and migrates a throwaway SQLite
// database under t.TempDir(). The context is closed when the test
// finishes.
func OpenDatabase(t *testing.T) *dbcontext.DatabaseContext {
	t.Helper()

	dbc, err := dbcontext.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { dbc.Close() })

	ctx := context.Background()
	if err := dbc.Initialize(ctx); err != nil {
		t.Fatalf("failed to initialize database: %v", err)
	}
	if err := dbc.Migrate(); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return dbc
}

// OpenDatabaseAt opens a second context on an existing database file,
// for tests exercising two contexts against one engine.
func OpenDatabaseAt(t *testing.T, path string) *dbcontext.DatabaseContext {
	t.Helper()

	dbc, err := dbcontext.Open(path)
	if err != nil {
		t.Fatalf("failed to open database at %s: %v", path, err)
	}
	t.Cleanup(func() { dbc.Close() })

	if err := dbc.Initialize(context.Background()); err != nil {
		t.Fatalf("failed to initialize database at %s: %v", path, err)
	}

	return dbc
}

// ShortTTLCacheConfig returns a cache configuration with the given
// TTL, for expiry tests that sleep past it.
func ShortTTLCacheConfig(ttl time.Duration) cache.Config {
	cfg := cache.DefaultConfig()
	cfg.TTL = ttl
	cfg.EvictionInterval = ttl
	return cfg
}

// Setting builds a valid setting for tests, failing the test on a
// validation error.
func Setting(t *testing.T, key, value string) domain.Setting {
	t.Helper()

	s, err := domain.NewSetting(key, value, "test setting")
	if err != nil {
		t.Fatalf("failed to build setting %q: %v", key, err)
	}
	return s
}

// Location builds a valid location for tests.
func Location(t *testing.T, title string) domain.Location {
	t.Helper()

	l, err := domain.NewLocation(title, "test location", 47.6062, -122.3321, "Seattle", "WA")
	if err != nil {
		t.Fatalf("failed to build location %q: %v", title, err)
	}
	return l
}

// Weather builds a valid snapshot for tests.
func Weather(t *testing.T, locationID int64) domain.Weather {
	t.Helper()

	w, err := domain.NewWeather(locationID, 18.5, "partly cloudy", "04d", 3.2, 65)
	if err != nil {
		t.Fatalf("failed to build weather for location %d: %v", locationID, err)
	}
	return w
}

// LoadFixture loads test data from a fixture file. The path is
// relative to the test package directory.
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}
	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and
// unmarshals it into dest.
func LoadFixtureJSON(t *testing.T, path string, dest any) {
	t.Helper()

	if err := json.Unmarshal(LoadFixture(t, path), dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// FixturePath constructs a path to a fixture file relative to the
// testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}
