package dbcontext

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// dsnOptions carries every connection-scoped pragma. They must ride
// the DSN: the driver applies them to each connection the pool opens,
// whereas a PRAGMA executed through the pooled handle only reaches
// whichever single connection happens to run it.
const dsnOptions = "_txlock=immediate" +
	"&_foreign_keys=1" +
	"&_journal_mode=WAL" +
	"&_synchronous=NORMAL" +
	"&_busy_timeout=5000"

// initPragmas are applied once per context by Initialize: statements
// that are database-wide or advisory rather than connection-scoped.
var initPragmas = []string{
	"PRAGMA temp_store = MEMORY",
	"PRAGMA optimize",
}

// DatabaseContext is the single choke point for SQL execution and
// transaction demarcation. At most one logical transaction is active
// per instance at a time; concurrent Begin attempts fail fast rather
// than block. Create one per process via di.NewContainer and never
// copy it.
type DatabaseContext struct {
	db     *sql.DB
	logger *slog.Logger

	mu          sync.Mutex
	tx          *sql.Tx
	txActive    bool
	initialized bool
}

// Open opens (creating if necessary) the SQLite database at path.
// Every pooled connection enforces foreign keys, waits on a busy
// engine, and acquires the write lock up front (_txlock=immediate) so
// that read-then-write sequences inside a transaction cannot deadlock
// against a concurrent writer on another context.
func Open(path string) (*DatabaseContext, error) {
	logger := slog.Default().With("component", "dbcontext")

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", path, dsnOptions))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &DatabaseContext{db: db, logger: logger}, nil
}

// Initialize applies the one-time engine pragmas that are not
// connection-scoped (those ride the DSN, see Open). It is idempotent:
// a second call is a no-op. Failures surface as *DatabaseError.
func (c *DatabaseContext) Initialize(ctx context.Context) error {
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	for _, pragma := range initPragmas {
		if _, err := c.db.ExecContext(ctx, pragma); err != nil {
			return wrapEngine(pragma, err)
		}
	}

	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()

	c.logger.Info("database context initialized")
	return nil
}

// DB exposes the underlying handle for infrastructure that needs it
// directly (the migration runner). Application code goes through the
// execution primitives instead.
func (c *DatabaseContext) DB() *sql.DB { return c.db }

// Close closes the underlying database handle.
func (c *DatabaseContext) Close() error {
	c.logger.Info("closing database context")
	return c.db.Close()
}

// executor is satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the active transaction when one is open, otherwise the
// pooled handle. Statements issued inside InTransaction therefore run
// in program order on the transaction's connection.
func (c *DatabaseContext) conn() executor {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.txActive && c.tx != nil {
		return c.tx
	}
	return c.db
}

// RowScanner is the subset of sql.Row / sql.Rows a RowMapper needs.
type RowScanner interface {
	Scan(dest ...any) error
}

// RowMapper converts one result row into a domain value.
type RowMapper[T any] func(RowScanner) (T, error)

// ExecuteNonQuery runs a parameterized statement and returns the
// affected row count.
func (c *DatabaseContext) ExecuteNonQuery(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := c.conn().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrapEngine(query, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapEngine(query, err)
	}
	return n, nil
}

// Insert runs a parameterized INSERT and returns the engine's
// last-inserted row id.
func (c *DatabaseContext) Insert(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := c.conn().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrapEngine(query, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapEngine(query, err)
	}
	return id, nil
}

// Scalar runs a single-value query and scans the result into T.
// Returns ErrNoRows when the query matches nothing.
//
// Methods cannot be generic, so the typed primitives are package-level
// functions taking the context as their second argument.
func Scalar[T any](ctx context.Context, c *DatabaseContext, query string, args ...any) (T, error) {
	var v T
	if err := c.conn().QueryRowContext(ctx, query, args...).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return v, ErrNoRows
		}
		return v, wrapEngine(query, err)
	}
	return v, nil
}

// QuerySingle runs a parameterized query expected to match at most one
// row and maps it. Returns ErrNoRows when the query matches nothing.
func QuerySingle[T any](ctx context.Context, c *DatabaseContext, query string, mapper RowMapper[T], args ...any) (T, error) {
	var zero T
	row := c.conn().QueryRowContext(ctx, query, args...)
	v, err := mapper(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, ErrNoRows
		}
		return zero, wrapEngine(query, err)
	}
	return v, nil
}

// QueryAll runs a parameterized query and maps every row.
func QueryAll[T any](ctx context.Context, c *DatabaseContext, query string, mapper RowMapper[T], args ...any) ([]T, error) {
	rows, err := c.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapEngine(query, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := mapper(rows)
		if err != nil {
			return nil, wrapEngine(query, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapEngine(query, err)
	}
	return out, nil
}
