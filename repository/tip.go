package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/brokerandyT2/photo-sub000/dbcontext"
	"github.com/brokerandyT2/photo-sub000/domain"
)

const tipColumns = "id, tip_type_id, title, content, fstop, shutter_speed, iso, timestamp"

const (
	selectTipByID     = "SELECT " + tipColumns + " FROM tips WHERE id = ?"
	selectTipsByType  = "SELECT " + tipColumns + " FROM tips WHERE tip_type_id = ? ORDER BY id"
	selectAllTips     = "SELECT " + tipColumns + " FROM tips ORDER BY tip_type_id, id"
	selectRandomTip   = "SELECT " + tipColumns + " FROM tips WHERE tip_type_id = ? ORDER BY RANDOM() LIMIT 1"
	selectTipTypes    = "SELECT id, name FROM tip_types ORDER BY id"
	insertTipType     = "INSERT INTO tip_types (name) VALUES (?)"
	insertTip         = "INSERT INTO tips (tip_type_id, title, content, fstop, shutter_speed, iso, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)"
	updateTipByID     = "UPDATE tips SET title = ?, content = ?, fstop = ?, shutter_speed = ?, iso = ?, timestamp = ? WHERE id = ?"
	deleteTipByID     = "DELETE FROM tips WHERE id = ?"
	existsTipTypeName = "SELECT COUNT(1) FROM tip_types WHERE name = ?"
)

// TipRepository maps domain.Tip and domain.TipType to their tables.
// Tips are seeded content read sequentially per category; lookups are
// cheap indexed scans, so this repository does not cache.
type TipRepository struct {
	dbc    *dbcontext.DatabaseContext
	logger *slog.Logger
}

// NewTipRepository wires a repository over the given context.
func NewTipRepository(dbc *dbcontext.DatabaseContext) *TipRepository {
	return &TipRepository{
		dbc:    dbc,
		logger: slog.Default().With("component", "repository", "entity", "tip"),
	}
}

func scanTip(row dbcontext.RowScanner) (domain.Tip, error) {
	var t domain.Tip
	var content, fstop, shutter, iso sql.NullString
	var ts int64
	if err := row.Scan(&t.ID, &t.TipTypeID, &t.Title, &content, &fstop, &shutter, &iso, &ts); err != nil {
		return domain.Tip{}, err
	}
	t.Content = fromNull(content)
	t.Fstop = fromNull(fstop)
	t.ShutterSpeed = fromNull(shutter)
	t.ISO = fromNull(iso)
	t.Timestamp = time.UnixMilli(ts).UTC()
	return t, nil
}

func scanTipType(row dbcontext.RowScanner) (domain.TipType, error) {
	var tt domain.TipType
	if err := row.Scan(&tt.ID, &tt.Name); err != nil {
		return domain.TipType{}, err
	}
	return tt, nil
}

// GetTypes returns every tip category in display order.
func (r *TipRepository) GetTypes(ctx context.Context) ([]domain.TipType, error) {
	const op = "GetTypes"

	types, err := dbcontext.QueryAll(ctx, r.dbc, selectTipTypes, scanTipType)
	if err != nil {
		return nil, classify(op, err)
	}
	return types, nil
}

// CreateType adds a tip category. Duplicate names are rejected before
// the insert.
func (r *TipRepository) CreateType(ctx context.Context, name string) (domain.TipType, error) {
	const op = "CreateType"

	count, err := dbcontext.Scalar[int64](ctx, r.dbc, existsTipTypeName, name)
	if err != nil {
		return domain.TipType{}, classify(op, err)
	}
	if count > 0 {
		return domain.TipType{}, &Error{Code: CodeDuplicateKey, Op: op, Err: fmt.Errorf("tip type %q already exists", name)}
	}

	id, err := r.dbc.Insert(ctx, insertTipType, name)
	if err != nil {
		return domain.TipType{}, classify(op, err)
	}

	r.logger.Debug("created tip type", "id", id, "name", name)
	return domain.TipType{ID: id, Name: name}, nil
}

// GetByID returns the tip with id.
func (r *TipRepository) GetByID(ctx context.Context, id int64) (domain.Tip, error) {
	const op = "GetByID"

	t, err := dbcontext.QuerySingle(ctx, r.dbc, selectTipByID, scanTip, id)
	if err != nil {
		return domain.Tip{}, classify(op, err)
	}
	return t, nil
}

// GetAll returns every tip grouped by category.
func (r *TipRepository) GetAll(ctx context.Context) ([]domain.Tip, error) {
	const op = "GetAll"

	tips, err := dbcontext.QueryAll(ctx, r.dbc, selectAllTips, scanTip)
	if err != nil {
		return nil, classify(op, err)
	}
	return tips, nil
}

// GetByType returns every tip in the category, in insertion order.
func (r *TipRepository) GetByType(ctx context.Context, tipTypeID int64) ([]domain.Tip, error) {
	const op = "GetByType"

	tips, err := dbcontext.QueryAll(ctx, r.dbc, selectTipsByType, scanTip, tipTypeID)
	if err != nil {
		return nil, classify(op, err)
	}
	return tips, nil
}

// GetRandomByType returns one random tip from the category, for the
// tip-of-the-day card.
func (r *TipRepository) GetRandomByType(ctx context.Context, tipTypeID int64) (domain.Tip, error) {
	const op = "GetRandomByType"

	t, err := dbcontext.QuerySingle(ctx, r.dbc, selectRandomTip, scanTip, tipTypeID)
	if err != nil {
		return domain.Tip{}, classify(op, err)
	}
	return t, nil
}

// Create inserts a new tip. The foreign key to tip_types is enforced by
// the engine; a dangling TipTypeID surfaces as a database error.
func (r *TipRepository) Create(ctx context.Context, t domain.Tip) (domain.Tip, error) {
	const op = "Create"

	if err := t.Validate(); err != nil {
		return domain.Tip{}, &Error{Code: CodeInfrastructure, Op: op, Err: err}
	}

	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now().UTC()
	}

	id, err := r.dbc.Insert(ctx, insertTip,
		t.TipTypeID, t.Title, nullString(t.Content),
		nullString(t.Fstop), nullString(t.ShutterSpeed), nullString(t.ISO), t.Timestamp.UnixMilli())
	if err != nil {
		return domain.Tip{}, classify(op, err)
	}

	r.logger.Debug("created tip", "id", id, "type", t.TipTypeID)
	return t.WithID(id), nil
}

// Update rewrites the tip row. Updating a missing row fails with a
// not-found error.
func (r *TipRepository) Update(ctx context.Context, t domain.Tip) (domain.Tip, error) {
	const op = "Update"

	if err := t.Validate(); err != nil {
		return domain.Tip{}, &Error{Code: CodeInfrastructure, Op: op, Err: err}
	}

	now := time.Now().UTC()
	affected, err := r.dbc.ExecuteNonQuery(ctx, updateTipByID,
		t.Title, nullString(t.Content),
		nullString(t.Fstop), nullString(t.ShutterSpeed), nullString(t.ISO), now.UnixMilli(), t.ID)
	if err != nil {
		return domain.Tip{}, classify(op, err)
	}
	if affected == 0 {
		return domain.Tip{}, &Error{Code: CodeNotFound, Op: op, Err: fmt.Errorf("tip %d not found", t.ID)}
	}

	t.Timestamp = now
	r.logger.Debug("updated tip", "id", t.ID)
	return t, nil
}

// Delete removes the tip with id.
func (r *TipRepository) Delete(ctx context.Context, id int64) error {
	const op = "Delete"

	affected, err := r.dbc.ExecuteNonQuery(ctx, deleteTipByID, id)
	if err != nil {
		return classify(op, err)
	}
	if affected == 0 {
		return &Error{Code: CodeNotFound, Op: op, Err: fmt.Errorf("tip %d not found", id)}
	}

	r.logger.Debug("deleted tip", "id", id)
	return nil
}

// BulkCreate inserts seeded tips in chunks of up to 100 rows per
// statement inside one transaction, for first-run content loading.
func (r *TipRepository) BulkCreate(ctx context.Context, tips []domain.Tip) (int, error) {
	const op = "BulkCreate"

	for _, t := range tips {
		if err := t.Validate(); err != nil {
			return 0, &Error{Code: CodeInfrastructure, Op: op, Err: err}
		}
	}

	count, err := dbcontext.BulkInsert(ctx, r.dbc, tips, dbcontext.DefaultBatchSize, func(ctx context.Context, chunk []domain.Tip) error {
		query := "INSERT INTO tips (tip_type_id, title, content, fstop, shutter_speed, iso, timestamp) VALUES "
		args := make([]any, 0, len(chunk)*7)
		now := time.Now().UTC().UnixMilli()
		for i, t := range chunk {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?, ?, ?)"
			ts := t.Timestamp.UnixMilli()
			if t.Timestamp.IsZero() {
				ts = now
			}
			args = append(args, t.TipTypeID, t.Title, nullString(t.Content),
				nullString(t.Fstop), nullString(t.ShutterSpeed), nullString(t.ISO), ts)
		}
		_, err := r.dbc.ExecuteNonQuery(ctx, query, args...)
		return err
	})
	if err != nil {
		return 0, classify(op, err)
	}

	r.logger.Debug("bulk created tips", "count", count)
	return count, nil
}
