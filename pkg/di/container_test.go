package di

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/brokerandyT2/photo-sub000/cache"
)

func newTestContainer(t *testing.T) *Container {
	t.Helper()

	c, err := NewContainerWithDefaults(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })

	if err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return c
}

func TestContainerWiresSingletons(t *testing.T) {
	c := newTestContainer(t)

	if c.DatabaseContext() == nil {
		t.Error("DatabaseContext() = nil")
	}
	if c.SettingCache() == nil || c.LocationCache() == nil || c.WeatherCache() == nil {
		t.Error("cache accessors returned nil")
	}
	if c.SettingCache() == c.LocationCache() {
		t.Error("setting and location repositories share a cache instance")
	}
	if c.KeySerializer() == nil {
		t.Error("KeySerializer() = nil")
	}

	uow := c.UnitOfWork()
	if uow == nil {
		t.Fatal("UnitOfWork() = nil")
	}
	if c.Settings() != uow.Settings || c.Locations() != uow.Locations ||
		c.Tips() != uow.Tips || c.Weather() != uow.Weather ||
		c.Subscriptions() != uow.Subscriptions {
		t.Error("repository accessors disagree with the unit of work")
	}
}

func TestContainerInitializeIsIdempotent(t *testing.T) {
	c := newTestContainer(t)

	if err := c.Initialize(context.Background()); err != nil {
		t.Errorf("second Initialize() error = %v", err)
	}
}

func TestContainerEndToEnd(t *testing.T) {
	c := newTestContainer(t)
	ctx := context.Background()

	if _, err := c.Settings().Upsert(ctx, "theme", "dark", "ui theme"); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := c.Settings().GetByKey(ctx, "theme")
	if err != nil {
		t.Fatalf("GetByKey() error = %v", err)
	}
	if got.Value != "dark" {
		t.Errorf("value = %q, want dark", got.Value)
	}
}

func TestContainerRejectsInvalidCacheConfig(t *testing.T) {
	cfg := DefaultConfig(filepath.Join(t.TempDir(), "app.db"))
	cfg.Cache = cache.Config{}

	if _, err := NewContainer(cfg); err == nil {
		t.Error("NewContainer() accepted an invalid cache config")
	}
}
