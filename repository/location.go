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

const locationColumns = "id, title, description, latitude, longitude, city, state, photo_path, timestamp, is_deleted"

const (
	selectLocationByID    = "SELECT " + locationColumns + " FROM locations WHERE id = ?"
	selectActiveLocations = "SELECT " + locationColumns + " FROM locations WHERE is_deleted = 0 ORDER BY timestamp DESC"
	selectLocationByTitle = "SELECT " + locationColumns + " FROM locations WHERE title = ? AND is_deleted = 0"
	insertLocation        = "INSERT INTO locations (title, description, latitude, longitude, city, state, photo_path, timestamp, is_deleted) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)"
	updateLocationByID    = "UPDATE locations SET title = ?, description = ?, latitude = ?, longitude = ?, city = ?, state = ?, photo_path = ?, timestamp = ? WHERE id = ? AND is_deleted = 0"
	softDeleteLocation    = "UPDATE locations SET is_deleted = 1, timestamp = ? WHERE id = ? AND is_deleted = 0"
	restoreLocation       = "UPDATE locations SET is_deleted = 0, timestamp = ? WHERE id = ? AND is_deleted = 1"
)

// LocationRepository maps domain.Location to the locations table.
// Deletes are soft: the row stays so the photo path survives and the
// location can be restored. Single-row lookups go through the shared
// TTL cache.
type LocationRepository struct {
	dbc    *dbcontext.DatabaseContext
	cache  cache.CacheService
	keys   cache.KeySerializer
	logger *slog.Logger
}

// NewLocationRepository wires a repository over the given context and
// cache.
func NewLocationRepository(dbc *dbcontext.DatabaseContext, cacheService cache.CacheService, keys cache.KeySerializer) *LocationRepository {
	return &LocationRepository{
		dbc:    dbc,
		cache:  cacheService,
		keys:   keys,
		logger: slog.Default().With("component", "repository", "entity", "location"),
	}
}

func (r *LocationRepository) cacheKey(id int64) string {
	return r.keys.SerializeKey("Location.GetByID", id)
}

func scanLocation(row dbcontext.RowScanner) (domain.Location, error) {
	var l domain.Location
	var desc, city, state, photo sql.NullString
	var ts int64
	var deleted int
	if err := row.Scan(&l.ID, &l.Title, &desc, &l.Latitude, &l.Longitude, &city, &state, &photo, &ts, &deleted); err != nil {
		return domain.Location{}, err
	}
	l.Description = fromNull(desc)
	l.City = fromNull(city)
	l.State = fromNull(state)
	l.PhotoPath = fromNull(photo)
	l.Timestamp = time.UnixMilli(ts).UTC()
	l.IsDeleted = deleted != 0
	return l, nil
}

// GetByID returns the location with id, including soft-deleted rows so
// the restore screen can display them. Absent ids are cached
// negatively.
func (r *LocationRepository) GetByID(ctx context.Context, id int64) (domain.Location, error) {
	const op = "GetByID"

	l, err := cache.GetOrFetch(ctx, r.cache, r.cacheKey(id), func(ctx context.Context) (domain.Location, error) {
		l, err := dbcontext.QuerySingle(ctx, r.dbc, selectLocationByID, scanLocation, id)
		if err != nil {
			if errors.Is(err, dbcontext.ErrNoRows) {
				return domain.Location{}, cache.ErrNotFound
			}
			return domain.Location{}, err
		}
		return l, nil
	})
	if err != nil {
		return domain.Location{}, classify(op, err)
	}
	return l, nil
}

// GetByTitle returns the active location with the exact title.
func (r *LocationRepository) GetByTitle(ctx context.Context, title string) (domain.Location, error) {
	const op = "GetByTitle"

	l, err := dbcontext.QuerySingle(ctx, r.dbc, selectLocationByTitle, scanLocation, title)
	if err != nil {
		return domain.Location{}, classify(op, err)
	}
	return l, nil
}

// GetActive returns every non-deleted location, newest first.
func (r *LocationRepository) GetActive(ctx context.Context) ([]domain.Location, error) {
	const op = "GetActive"

	locations, err := dbcontext.QueryAll(ctx, r.dbc, selectActiveLocations, scanLocation)
	if err != nil {
		return nil, classify(op, err)
	}
	return locations, nil
}

// Create inserts a new location. Duplicate active titles are rejected
// before the insert.
func (r *LocationRepository) Create(ctx context.Context, l domain.Location) (domain.Location, error) {
	const op = "Create"

	if err := l.Validate(); err != nil {
		return domain.Location{}, &Error{Code: CodeInfrastructure, Op: op, Err: err}
	}

	count, err := dbcontext.Scalar[int64](ctx, r.dbc, "SELECT COUNT(1) FROM locations WHERE title = ? AND is_deleted = 0", l.Title)
	if err != nil {
		return domain.Location{}, classify(op, err)
	}
	if count > 0 {
		return domain.Location{}, &Error{Code: CodeDuplicateKey, Op: op, Err: fmt.Errorf("location %q already exists", l.Title)}
	}

	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now().UTC()
	}

	id, err := r.dbc.Insert(ctx, insertLocation,
		l.Title, nullString(l.Description), l.Latitude, l.Longitude,
		nullString(l.City), nullString(l.State), nullString(l.PhotoPath), l.Timestamp.UnixMilli())
	if err != nil {
		return domain.Location{}, classify(op, err)
	}

	created := l.WithID(id)
	r.cache.Set(ctx, r.cacheKey(id), created)

	r.logger.Debug("created location", "id", id, "title", l.Title)
	return created, nil
}

// Update rewrites the location row. Updating a missing or soft-deleted
// row fails with a not-found error. The cache entry is refreshed with
// the persisted row.
func (r *LocationRepository) Update(ctx context.Context, l domain.Location) (domain.Location, error) {
	const op = "Update"

	if err := l.Validate(); err != nil {
		return domain.Location{}, &Error{Code: CodeInfrastructure, Op: op, Err: err}
	}

	now := time.Now().UTC()
	affected, err := r.dbc.ExecuteNonQuery(ctx, updateLocationByID,
		l.Title, nullString(l.Description), l.Latitude, l.Longitude,
		nullString(l.City), nullString(l.State), nullString(l.PhotoPath), now.UnixMilli(), l.ID)
	if err != nil {
		return domain.Location{}, classify(op, err)
	}
	if affected == 0 {
		return domain.Location{}, &Error{Code: CodeNotFound, Op: op, Err: fmt.Errorf("location %d not found", l.ID)}
	}

	updated, err := dbcontext.QuerySingle(ctx, r.dbc, selectLocationByID, scanLocation, l.ID)
	if err != nil {
		return domain.Location{}, classify(op, err)
	}

	r.cache.Set(ctx, r.cacheKey(l.ID), updated)

	r.logger.Debug("updated location", "id", l.ID)
	return updated, nil
}

// Delete soft-deletes the location with id. The cache entry is removed
// only when a row was actually flipped.
func (r *LocationRepository) Delete(ctx context.Context, id int64) error {
	const op = "Delete"

	affected, err := r.dbc.ExecuteNonQuery(ctx, softDeleteLocation, time.Now().UTC().UnixMilli(), id)
	if err != nil {
		return classify(op, err)
	}
	if affected == 0 {
		return &Error{Code: CodeNotFound, Op: op, Err: fmt.Errorf("location %d not found", id)}
	}

	r.cache.Delete(ctx, r.cacheKey(id))
	r.logger.Debug("deleted location", "id", id)
	return nil
}

// Restore undoes a soft delete. Restoring a row that is not deleted
// fails with a not-found error.
func (r *LocationRepository) Restore(ctx context.Context, id int64) (domain.Location, error) {
	const op = "Restore"

	affected, err := r.dbc.ExecuteNonQuery(ctx, restoreLocation, time.Now().UTC().UnixMilli(), id)
	if err != nil {
		return domain.Location{}, classify(op, err)
	}
	if affected == 0 {
		return domain.Location{}, &Error{Code: CodeNotFound, Op: op, Err: fmt.Errorf("deleted location %d not found", id)}
	}

	restored, err := dbcontext.QuerySingle(ctx, r.dbc, selectLocationByID, scanLocation, id)
	if err != nil {
		return domain.Location{}, classify(op, err)
	}

	r.cache.Set(ctx, r.cacheKey(id), restored)

	r.logger.Debug("restored location", "id", id)
	return restored, nil
}
