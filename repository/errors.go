package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/brokerandyT2/photo-sub000/cache"
	"github.com/brokerandyT2/photo-sub000/dbcontext"
)

// Code classifies a repository failure so callers can branch on kind
// without inspecting engine error strings.
type Code int

const (
	// CodeDatabase is an engine or SQL failure.
	CodeDatabase Code = iota + 1
	// CodeDuplicateKey is a uniqueness violation, surfaced either by a
	// pre-check or by the engine constraint.
	CodeDuplicateKey
	// CodeNotFound is an expected absent-row condition.
	CodeNotFound
	// CodeTimeout is a busy or locked engine condition.
	CodeTimeout
	// CodeUnauthorized is an engine permission failure.
	CodeUnauthorized
	// CodeInfrastructure is the catch-all for unclassified failures.
	CodeInfrastructure
)

func (c Code) String() string {
	switch c {
	case CodeDatabase:
		return "database"
	case CodeDuplicateKey:
		return "duplicate_key"
	case CodeNotFound:
		return "not_found"
	case CodeTimeout:
		return "timeout"
	case CodeUnauthorized:
		return "unauthorized"
	case CodeInfrastructure:
		return "infrastructure"
	default:
		return "unknown"
	}
}

// Error is the failure value returned by every repository operation.
// Op names the originating operation for diagnostics.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("repository: %s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a not-found repository failure.
func IsNotFound(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Code == CodeNotFound
}

// IsDuplicateKey reports whether err is a duplicate-key failure.
func IsDuplicateKey(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Code == CodeDuplicateKey
}

// classify maps a low-level failure into the repository taxonomy. It
// is the single place engine errors are inspected; call sites never
// look at engine error details themselves. Cancellation is returned
// unmodified, and an already classified *Error passes through so
// wrapped call chains keep their original operation tag.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var re *Error
	if errors.As(err, &re) {
		return re
	}

	if errors.Is(err, dbcontext.ErrNoRows) || errors.Is(err, cache.ErrNotFound) {
		return &Error{Code: CodeNotFound, Op: op, Err: err}
	}

	var se sqlite3.Error
	if errors.As(err, &se) {
		switch {
		case se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return &Error{Code: CodeDuplicateKey, Op: op, Err: err}
		case se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked:
			return &Error{Code: CodeTimeout, Op: op, Err: err}
		case se.Code == sqlite3.ErrAuth || se.Code == sqlite3.ErrPerm:
			return &Error{Code: CodeUnauthorized, Op: op, Err: err}
		default:
			return &Error{Code: CodeDatabase, Op: op, Err: err}
		}
	}

	var dbErr *dbcontext.DatabaseError
	if errors.As(err, &dbErr) {
		return &Error{Code: CodeDatabase, Op: op, Err: err}
	}

	return &Error{Code: CodeInfrastructure, Op: op, Err: err}
}
