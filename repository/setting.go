package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/brokerandyT2/photo-sub000/cache"
	"github.com/brokerandyT2/photo-sub000/dbcontext"
	"github.com/brokerandyT2/photo-sub000/domain"
)

const settingColumns = "id, key, value, description, timestamp"

const (
	selectSettingByKey  = "SELECT " + settingColumns + " FROM settings WHERE key = ?"
	selectAllSettings   = "SELECT " + settingColumns + " FROM settings ORDER BY key"
	existsSettingByKey  = "SELECT COUNT(1) FROM settings WHERE key = ?"
	insertSetting       = "INSERT INTO settings (key, value, description, timestamp) VALUES (?, ?, ?, ?)"
	updateSettingByKey  = "UPDATE settings SET value = ?, description = ?, timestamp = ? WHERE key = ?"
	deleteSettingByKey  = "DELETE FROM settings WHERE key = ?"
	upsertSettingValues = "(?, ?, ?, ?)"
	upsertSettingSQL    = "INSERT INTO settings (key, value, description, timestamp) VALUES %s " +
		"ON CONFLICT(key) DO UPDATE SET value = excluded.value, description = excluded.description, timestamp = excluded.timestamp"
)

// SettingRepository maps domain.Setting to the settings table and
// serves key lookups through a read-through TTL cache with negative
// caching. Settings are read on nearly every screen and written
// rarely, which is the profile the cache is tuned for.
type SettingRepository struct {
	dbc     *dbcontext.DatabaseContext
	cache   cache.CacheService
	keys    cache.KeySerializer
	tracked *xsync.MapOf[string, struct{}]
	logger  *slog.Logger
}

// NewSettingRepository wires a repository over the given context and
// cache. The cache instance is owned by this repository; its TTL is
// fixed for the repository's lifetime.
func NewSettingRepository(dbc *dbcontext.DatabaseContext, cacheService cache.CacheService, keys cache.KeySerializer) *SettingRepository {
	return &SettingRepository{
		dbc:     dbc,
		cache:   cacheService,
		keys:    keys,
		tracked: xsync.NewMapOf[string, struct{}](),
		logger:  slog.Default().With("component", "repository", "entity", "setting"),
	}
}

func (r *SettingRepository) cacheKey(key string) string {
	return r.keys.SerializeKey("Setting.GetByKey", key)
}

func (r *SettingRepository) trackKey(ck string) {
	r.tracked.Store(ck, struct{}{})
}

func scanSetting(row dbcontext.RowScanner) (domain.Setting, error) {
	var s domain.Setting
	var desc sql.NullString
	var ts int64
	if err := row.Scan(&s.ID, &s.Key, &s.Value, &desc, &ts); err != nil {
		return domain.Setting{}, err
	}
	s.Description = fromNull(desc)
	s.Timestamp = time.UnixMilli(ts).UTC()
	return s, nil
}

// GetByKey returns the setting for key, serving non-expired cache
// entries without touching the database. A miss queries the single
// row and populates the cache; an absent row is cached negatively so
// repeated misses cost at most one query per TTL window.
func (r *SettingRepository) GetByKey(ctx context.Context, key string) (domain.Setting, error) {
	const op = "GetByKey"

	ck := r.cacheKey(key)
	r.trackKey(ck)

	s, err := cache.GetOrFetch(ctx, r.cache, ck, func(ctx context.Context) (domain.Setting, error) {
		return r.fetchByKey(ctx, key)
	})
	if err != nil {
		return domain.Setting{}, classify(op, err)
	}
	return s, nil
}

// fetchByKey loads one row, translating row absence into the cache's
// miss sentinel so the negative result is cached.
func (r *SettingRepository) fetchByKey(ctx context.Context, key string) (domain.Setting, error) {
	s, err := dbcontext.QuerySingle(ctx, r.dbc, selectSettingByKey, scanSetting, key)
	if err != nil {
		if errors.Is(err, dbcontext.ErrNoRows) {
			return domain.Setting{}, cache.ErrNotFound
		}
		return domain.Setting{}, err
	}
	return s, nil
}

// GetByKeys resolves a batch of keys, partitioning them into cache
// hits and misses and issuing a single IN query for the miss set.
// Every requested key ends up with a cache entry, negative for absent
// rows. Keys without a row are omitted from the returned map.
func (r *SettingRepository) GetByKeys(ctx context.Context, keys []string) (map[string]domain.Setting, error) {
	const op = "GetByKeys"

	if len(keys) == 0 {
		return map[string]domain.Setting{}, nil
	}

	cks := make([]string, len(keys))
	keyByCK := make(map[string]string, len(keys))
	for i, key := range keys {
		ck := r.cacheKey(key)
		cks[i] = ck
		keyByCK[ck] = key
		r.trackKey(ck)
	}

	cached, err := cache.GetOrFetchBatch(ctx, r.cache, cks, func(ctx context.Context, missing []string) (map[string]domain.Setting, error) {
		missKeys := make([]string, len(missing))
		for i, ck := range missing {
			missKeys[i] = keyByCK[ck]
		}

		query := "SELECT " + settingColumns + " FROM settings WHERE key IN (" + placeholders(len(missKeys)) + ")"
		rows, err := dbcontext.QueryAll(ctx, r.dbc, query, scanSetting, toArgs(missKeys)...)
		if err != nil {
			return nil, err
		}

		fetched := make(map[string]domain.Setting, len(rows))
		for _, s := range rows {
			fetched[r.cacheKey(s.Key)] = s
		}
		return fetched, nil
	})
	if err != nil {
		return nil, classify(op, err)
	}

	out := make(map[string]domain.Setting, len(cached))
	for ck, s := range cached {
		out[keyByCK[ck]] = s
	}
	return out, nil
}

// GetAll returns every setting ordered by key. The full list is not
// cached; it is only read on the settings screen.
func (r *SettingRepository) GetAll(ctx context.Context) ([]domain.Setting, error) {
	const op = "GetAll"

	settings, err := dbcontext.QueryAll(ctx, r.dbc, selectAllSettings, scanSetting)
	if err != nil {
		return nil, classify(op, err)
	}
	return settings, nil
}

// Create inserts a new setting. Duplicate keys are rejected by an
// existence pre-check before the insert is attempted, so the common
// violation fails fast without relying on the engine constraint. The
// returned value carries the assigned id and is placed in the cache.
func (r *SettingRepository) Create(ctx context.Context, s domain.Setting) (domain.Setting, error) {
	const op = "Create"

	if err := s.Validate(); err != nil {
		return domain.Setting{}, &Error{Code: CodeInfrastructure, Op: op, Err: err}
	}

	count, err := dbcontext.Scalar[int64](ctx, r.dbc, existsSettingByKey, s.Key)
	if err != nil {
		return domain.Setting{}, classify(op, err)
	}
	if count > 0 {
		return domain.Setting{}, &Error{Code: CodeDuplicateKey, Op: op, Err: fmt.Errorf("setting %q already exists", s.Key)}
	}

	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now().UTC()
	}

	id, err := r.dbc.Insert(ctx, insertSetting, s.Key, s.Value, nullString(s.Description), s.Timestamp.UnixMilli())
	if err != nil {
		return domain.Setting{}, classify(op, err)
	}

	created := s.WithID(id)
	ck := r.cacheKey(created.Key)
	r.trackKey(ck)
	r.cache.Set(ctx, ck, created)

	r.logger.Debug("created setting", "key", created.Key, "id", created.ID)
	return created, nil
}

// Update rewrites the value and description for s.Key. An update that
// matches no row fails with a not-found error; updates are never
// silent no-ops. On success the cache entry is refreshed with the
// persisted row.
func (r *SettingRepository) Update(ctx context.Context, s domain.Setting) (domain.Setting, error) {
	const op = "Update"

	if err := s.Validate(); err != nil {
		return domain.Setting{}, &Error{Code: CodeInfrastructure, Op: op, Err: err}
	}

	now := time.Now().UTC()
	affected, err := r.dbc.ExecuteNonQuery(ctx, updateSettingByKey, s.Value, nullString(s.Description), now.UnixMilli(), s.Key)
	if err != nil {
		return domain.Setting{}, classify(op, err)
	}
	if affected == 0 {
		return domain.Setting{}, &Error{Code: CodeNotFound, Op: op, Err: fmt.Errorf("setting %q not found", s.Key)}
	}

	updated, err := dbcontext.QuerySingle(ctx, r.dbc, selectSettingByKey, scanSetting, s.Key)
	if err != nil {
		return domain.Setting{}, classify(op, err)
	}

	ck := r.cacheKey(s.Key)
	r.trackKey(ck)
	r.cache.Set(ctx, ck, updated)

	r.logger.Debug("updated setting", "key", s.Key)
	return updated, nil
}

// Delete removes the setting for key. The cache entry is only removed
// when the delete actually hit a row; a delete that matched nothing
// leaves the entry to expire or be re-validated naturally.
func (r *SettingRepository) Delete(ctx context.Context, key string) error {
	const op = "Delete"

	affected, err := r.dbc.ExecuteNonQuery(ctx, deleteSettingByKey, key)
	if err != nil {
		return classify(op, err)
	}
	if affected == 0 {
		return &Error{Code: CodeNotFound, Op: op, Err: fmt.Errorf("setting %q not found", key)}
	}

	r.cache.Delete(ctx, r.cacheKey(key))
	r.logger.Debug("deleted setting", "key", key)
	return nil
}

// Upsert writes value under key, updating the existing row or
// inserting a new one. The existence check and the branch run inside
// one transaction so two concurrent upserts for a never-before-seen
// key cannot both insert; the loser of the write-lock race observes
// the winner's row and updates it.
func (r *SettingRepository) Upsert(ctx context.Context, key, value, description string) (domain.Setting, error) {
	const op = "Upsert"

	var out domain.Setting
	err := r.dbc.InTransaction(ctx, func(ctx context.Context) error {
		count, err := dbcontext.Scalar[int64](ctx, r.dbc, existsSettingByKey, key)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if count > 0 {
			if _, err := r.dbc.ExecuteNonQuery(ctx, updateSettingByKey, value, nullString(description), now.UnixMilli(), key); err != nil {
				return err
			}
		} else {
			s, err := domain.NewSetting(key, value, description)
			if err != nil {
				return err
			}
			if _, err := r.dbc.Insert(ctx, insertSetting, s.Key, s.Value, nullString(s.Description), s.Timestamp.UnixMilli()); err != nil {
				return err
			}
		}

		out, err = dbcontext.QuerySingle(ctx, r.dbc, selectSettingByKey, scanSetting, key)
		return err
	})
	if err != nil {
		return domain.Setting{}, classify(op, err)
	}

	ck := r.cacheKey(key)
	r.trackKey(ck)
	r.cache.Set(ctx, ck, out)

	r.logger.Debug("upserted setting", "key", key)
	return out, nil
}

// BulkUpsert writes settings in chunks of up to 100 rows per
// statement, all inside one transaction. Cache entries for every
// affected key are invalidated only after the whole batch completes,
// never incrementally, so a failed batch cannot leave partial
// visibility behind.
func (r *SettingRepository) BulkUpsert(ctx context.Context, settings []domain.Setting) (int, error) {
	const op = "BulkUpsert"

	for _, s := range settings {
		if err := s.Validate(); err != nil {
			return 0, &Error{Code: CodeInfrastructure, Op: op, Err: err}
		}
	}

	count, err := dbcontext.BulkUpdate(ctx, r.dbc, settings, dbcontext.DefaultBatchSize, func(ctx context.Context, chunk []domain.Setting) error {
		values := ""
		args := make([]any, 0, len(chunk)*4)
		now := time.Now().UTC().UnixMilli()
		for i, s := range chunk {
			if i > 0 {
				values += ","
			}
			values += upsertSettingValues
			args = append(args, s.Key, s.Value, nullString(s.Description), now)
		}
		_, err := r.dbc.ExecuteNonQuery(ctx, fmt.Sprintf(upsertSettingSQL, values), args...)
		return err
	})
	if err != nil {
		return 0, classify(op, err)
	}

	cks := make([]string, len(settings))
	for i, s := range settings {
		cks[i] = r.cacheKey(s.Key)
	}
	r.cache.InvalidateKeys(ctx, cks)

	r.logger.Debug("bulk upserted settings", "count", count)
	return count, nil
}

// BulkDelete removes the settings for keys in chunks of up to 100 per
// round trip, all inside one transaction, and returns how many rows
// were deleted. Like BulkUpsert, cache invalidation happens once after
// the batch completes.
func (r *SettingRepository) BulkDelete(ctx context.Context, keys []string) (int64, error) {
	const op = "BulkDelete"

	var deleted int64
	_, err := dbcontext.BulkUpdate(ctx, r.dbc, keys, dbcontext.DefaultBatchSize, func(ctx context.Context, chunk []string) error {
		query := "DELETE FROM settings WHERE key IN (" + placeholders(len(chunk)) + ")"
		affected, err := r.dbc.ExecuteNonQuery(ctx, query, toArgs(chunk)...)
		if err != nil {
			return err
		}
		deleted += affected
		return nil
	})
	if err != nil {
		return 0, classify(op, err)
	}

	cks := make([]string, len(keys))
	for i, key := range keys {
		cks[i] = r.cacheKey(key)
	}
	r.cache.InvalidateKeys(ctx, cks)

	r.logger.Debug("bulk deleted settings", "requested", len(keys), "deleted", deleted)
	return deleted, nil
}

// InvalidateCache drops every cache entry this repository has ever
// populated. Used after out-of-band schema or data changes such as a
// migration back-fill.
func (r *SettingRepository) InvalidateCache(ctx context.Context) {
	var cks []string
	r.tracked.Range(func(ck string, _ struct{}) bool {
		cks = append(cks, ck)
		return true
	})
	r.cache.InvalidateKeys(ctx, cks)
}
