package dbcontext

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNoRows reports that a single-row query matched nothing. It is a
// passthrough for sql.ErrNoRows so callers can branch on absence
// without treating it as an engine failure.
var ErrNoRows = sql.ErrNoRows

// StateError reports transaction lifecycle misuse: beginning a
// transaction while one is active, or committing/rolling back without
// one. It indicates a programming error, not a recoverable condition.
type StateError struct {
	Op      string
	Message string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("dbcontext: %s: %s", e.Op, e.Message)
}

// DatabaseError wraps an engine failure together with the statement
// that caused it.
type DatabaseError struct {
	SQL string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("dbcontext: executing %q: %v", e.SQL, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// wrapEngine converts an engine error into a *DatabaseError carrying
// the offending statement. Cancellation is never wrapped; it must
// unwind to the caller unmodified.
func wrapEngine(query string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &DatabaseError{SQL: query, Err: err}
}
