package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brokerandyT2/photo-sub000/cache"
	"github.com/brokerandyT2/photo-sub000/dbcontext"
	"github.com/brokerandyT2/photo-sub000/domain"
)

const weatherColumns = "id, location_id, temperature, description, icon, wind_speed, humidity, last_update"

const (
	selectWeatherByLocation = "SELECT " + weatherColumns + " FROM weather WHERE location_id = ?"
	existsWeatherByLocation = "SELECT COUNT(1) FROM weather WHERE location_id = ?"
	insertWeather           = "INSERT INTO weather (location_id, temperature, description, icon, wind_speed, humidity, last_update) VALUES (?, ?, ?, ?, ?, ?, ?)"
	updateWeatherByLocation = "UPDATE weather SET temperature = ?, description = ?, icon = ?, wind_speed = ?, humidity = ?, last_update = ? WHERE location_id = ?"
	deleteWeatherExpired    = "DELETE FROM weather WHERE last_update < ?"
	deleteWeatherByLocation = "DELETE FROM weather WHERE location_id = ?"
)

// WeatherRepository stores the one conditions snapshot kept per
// location. Reads go through the shared TTL cache so the forecast
// card does not hit the database on every render.
type WeatherRepository struct {
	dbc    *dbcontext.DatabaseContext
	cache  cache.CacheService
	keys   cache.KeySerializer
	logger *slog.Logger
}

// NewWeatherRepository wires a repository over the given context and
// cache.
func NewWeatherRepository(dbc *dbcontext.DatabaseContext, cacheService cache.CacheService, keys cache.KeySerializer) *WeatherRepository {
	return &WeatherRepository{
		dbc:    dbc,
		cache:  cacheService,
		keys:   keys,
		logger: slog.Default().With("component", "repository", "entity", "weather"),
	}
}

func (r *WeatherRepository) cacheKey(locationID int64) string {
	return r.keys.SerializeKey("Weather.GetByLocation", locationID)
}

func scanWeather(row dbcontext.RowScanner) (domain.Weather, error) {
	var w domain.Weather
	var desc, icon sql.NullString
	var last int64
	if err := row.Scan(&w.ID, &w.LocationID, &w.Temperature, &desc, &icon, &w.WindSpeed, &w.Humidity, &last); err != nil {
		return domain.Weather{}, err
	}
	w.Description = fromNull(desc)
	w.Icon = fromNull(icon)
	w.LastUpdate = time.UnixMilli(last).UTC()
	return w, nil
}

// GetByLocation returns the snapshot for the location. Locations that
// have never fetched weather are cached negatively.
func (r *WeatherRepository) GetByLocation(ctx context.Context, locationID int64) (domain.Weather, error) {
	const op = "GetByLocation"

	w, err := cache.GetOrFetch(ctx, r.cache, r.cacheKey(locationID), func(ctx context.Context) (domain.Weather, error) {
		w, err := dbcontext.QuerySingle(ctx, r.dbc, selectWeatherByLocation, scanWeather, locationID)
		if err != nil {
			if errors.Is(err, dbcontext.ErrNoRows) {
				return domain.Weather{}, cache.ErrNotFound
			}
			return domain.Weather{}, err
		}
		return w, nil
	})
	if err != nil {
		return domain.Weather{}, classify(op, err)
	}
	return w, nil
}

// Upsert writes the snapshot for w.LocationID, replacing any previous
// one. The existence check and the branch run inside one transaction;
// the UNIQUE constraint on location_id backstops the race between two
// contexts. The cache entry is refreshed after the commit.
func (r *WeatherRepository) Upsert(ctx context.Context, w domain.Weather) (domain.Weather, error) {
	const op = "Upsert"

	if err := w.Validate(); err != nil {
		return domain.Weather{}, &Error{Code: CodeInfrastructure, Op: op, Err: err}
	}

	if w.LastUpdate.IsZero() {
		w.LastUpdate = time.Now().UTC()
	}

	var out domain.Weather
	err := r.dbc.InTransaction(ctx, func(ctx context.Context) error {
		count, err := dbcontext.Scalar[int64](ctx, r.dbc, existsWeatherByLocation, w.LocationID)
		if err != nil {
			return err
		}

		if count > 0 {
			if _, err := r.dbc.ExecuteNonQuery(ctx, updateWeatherByLocation,
				w.Temperature, nullString(w.Description), nullString(w.Icon),
				w.WindSpeed, w.Humidity, w.LastUpdate.UnixMilli(), w.LocationID); err != nil {
				return err
			}
		} else {
			if _, err := r.dbc.Insert(ctx, insertWeather,
				w.LocationID, w.Temperature, nullString(w.Description), nullString(w.Icon),
				w.WindSpeed, w.Humidity, w.LastUpdate.UnixMilli()); err != nil {
				return err
			}
		}

		out, err = dbcontext.QuerySingle(ctx, r.dbc, selectWeatherByLocation, scanWeather, w.LocationID)
		return err
	})
	if err != nil {
		return domain.Weather{}, classify(op, err)
	}

	r.cache.Set(ctx, r.cacheKey(w.LocationID), out)

	r.logger.Debug("upserted weather", "location_id", w.LocationID)
	return out, nil
}

// Delete removes the snapshot for the location, clearing the cache
// entry only when a row was actually removed.
func (r *WeatherRepository) Delete(ctx context.Context, locationID int64) error {
	const op = "Delete"

	affected, err := r.dbc.ExecuteNonQuery(ctx, deleteWeatherByLocation, locationID)
	if err != nil {
		return classify(op, err)
	}
	if affected == 0 {
		return &Error{Code: CodeNotFound, Op: op, Err: fmt.Errorf("weather for location %d not found", locationID)}
	}

	r.cache.Delete(ctx, r.cacheKey(locationID))
	r.logger.Debug("deleted weather", "location_id", locationID)
	return nil
}

// DeleteExpired removes every snapshot last updated before cutoff and
// returns how many rows were removed. Cache entries for the removed
// rows are left to expire on their own TTL; a stale positive entry is
// refreshed on the next Upsert.
func (r *WeatherRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	const op = "DeleteExpired"

	affected, err := r.dbc.ExecuteNonQuery(ctx, deleteWeatherExpired, cutoff.UnixMilli())
	if err != nil {
		return 0, classify(op, err)
	}

	r.logger.Debug("deleted expired weather", "cutoff", cutoff, "deleted", affected)
	return affected, nil
}
