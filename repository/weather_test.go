package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/brokerandyT2/photo-sub000/cache"
	"github.com/brokerandyT2/photo-sub000/dbcontext"
	"github.com/brokerandyT2/photo-sub000/domain"
	"github.com/brokerandyT2/photo-sub000/pkg/testsupport"
	"github.com/brokerandyT2/photo-sub000/repository"
)

// seedLocation inserts a location row and returns its id; weather rows
// reference locations through a foreign key.
func seedLocation(t *testing.T, dbc *dbcontext.DatabaseContext, title string) int64 {
	t.Helper()
	id, err := dbc.Insert(context.Background(),
		"INSERT INTO locations (title, latitude, longitude, timestamp, is_deleted) VALUES (?, 0, 0, 0, 0)", title)
	if err != nil {
		t.Fatalf("seeding location %q: %v", title, err)
	}
	return id
}

func newWeatherRepo(t *testing.T) (*dbcontext.DatabaseContext, *repository.WeatherRepository) {
	t.Helper()
	dbc := testsupport.OpenDatabase(t)
	repo := repository.NewWeatherRepository(dbc, newCache(t, cache.DefaultConfig()), cache.NewDefaultKeySerializer())
	return dbc, repo
}

func TestWeatherUpsertAndGet(t *testing.T) {
	dbc, repo := newWeatherRepo(t)
	ctx := context.Background()
	locID := seedLocation(t, dbc, "Gasworks Park")

	first, err := repo.Upsert(ctx, testsupport.Weather(t, locID))
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if first.ID == 0 {
		t.Error("Upsert() did not assign an id")
	}

	got, err := repo.GetByLocation(ctx, locID)
	if err != nil {
		t.Fatalf("GetByLocation() error = %v", err)
	}
	if got.ID != first.ID || got.Description != "partly cloudy" {
		t.Errorf("GetByLocation() = %+v", got)
	}
}

func TestWeatherUpsertReplacesSnapshot(t *testing.T) {
	dbc, repo := newWeatherRepo(t)
	ctx := context.Background()
	locID := seedLocation(t, dbc, "Pier 66")

	first, err := repo.Upsert(ctx, testsupport.Weather(t, locID))
	if err != nil {
		t.Fatalf("first Upsert() error = %v", err)
	}

	update := testsupport.Weather(t, locID)
	update.Temperature = 25.0
	update.Description = "clear"
	second, err := repo.Upsert(ctx, update)
	if err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("second upsert created a new row: %d != %d", second.ID, first.ID)
	}

	count, err := dbcontext.Scalar[int64](ctx, dbc, "SELECT COUNT(1) FROM weather WHERE location_id = ?", locID)
	if err != nil {
		t.Fatalf("counting: %v", err)
	}
	if count != 1 {
		t.Errorf("row count = %d, want 1", count)
	}

	got, err := repo.GetByLocation(ctx, locID)
	if err != nil {
		t.Fatalf("GetByLocation() error = %v", err)
	}
	if got.Description != "clear" {
		t.Errorf("Description = %q, want the refreshed snapshot", got.Description)
	}
}

func TestWeatherGetMissingIsCachedNegatively(t *testing.T) {
	dbc, repo := newWeatherRepo(t)
	ctx := context.Background()
	locID := seedLocation(t, dbc, "Alki Beach")

	if _, err := repo.GetByLocation(ctx, locID); !repository.IsNotFound(err) {
		t.Fatalf("GetByLocation() error = %v, want not found", err)
	}

	// Insert behind the repository's back; the negative entry must
	// keep answering until a write path refreshes it.
	if _, err := dbc.Insert(ctx,
		"INSERT INTO weather (location_id, temperature, wind_speed, humidity, last_update) VALUES (?, 10, 0, 0, 0)", locID); err != nil {
		t.Fatalf("direct insert: %v", err)
	}
	if _, err := repo.GetByLocation(ctx, locID); !repository.IsNotFound(err) {
		t.Errorf("GetByLocation() after direct insert error = %v, want negative entry", err)
	}
}

func TestWeatherDelete(t *testing.T) {
	dbc, repo := newWeatherRepo(t)
	ctx := context.Background()
	locID := seedLocation(t, dbc, "Kerry Park")

	if _, err := repo.Upsert(ctx, testsupport.Weather(t, locID)); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if err := repo.Delete(ctx, locID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByLocation(ctx, locID); !repository.IsNotFound(err) {
		t.Errorf("GetByLocation() after delete error = %v, want not found", err)
	}

	if err := repo.Delete(ctx, locID); !repository.IsNotFound(err) {
		t.Errorf("second Delete() error = %v, want not found", err)
	}
}

func TestWeatherDeleteExpired(t *testing.T) {
	dbc, repo := newWeatherRepo(t)
	ctx := context.Background()

	staleLoc := seedLocation(t, dbc, "Stale Spot")
	freshLoc := seedLocation(t, dbc, "Fresh Spot")

	now := time.Now().UTC()

	stale := domain.Weather{LocationID: staleLoc, Temperature: 5, LastUpdate: now.Add(-48 * time.Hour)}
	if _, err := repo.Upsert(ctx, stale); err != nil {
		t.Fatalf("upserting stale: %v", err)
	}
	if _, err := repo.Upsert(ctx, testsupport.Weather(t, freshLoc)); err != nil {
		t.Fatalf("upserting fresh: %v", err)
	}

	deleted, err := repo.DeleteExpired(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	count, err := dbcontext.Scalar[int64](ctx, dbc, "SELECT COUNT(1) FROM weather")
	if err != nil {
		t.Fatalf("counting: %v", err)
	}
	if count != 1 {
		t.Errorf("remaining rows = %d, want 1", count)
	}
}

func TestWeatherUpsertDanglingLocation(t *testing.T) {
	_, repo := newWeatherRepo(t)

	_, err := repo.Upsert(context.Background(), testsupport.Weather(t, 9999))
	if err == nil {
		t.Fatal("Upsert() with dangling location id succeeded, want foreign key failure")
	}
	if repository.IsNotFound(err) || repository.IsDuplicateKey(err) {
		t.Errorf("error = %v, want a database classification", err)
	}
}
