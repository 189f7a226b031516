package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/mattn/go-sqlite3"

	"github.com/brokerandyT2/photo-sub000/cache"
	"github.com/brokerandyT2/photo-sub000/dbcontext"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{
			name: "no rows",
			err:  dbcontext.ErrNoRows,
			want: CodeNotFound,
		},
		{
			name: "cache miss",
			err:  cache.ErrNotFound,
			want: CodeNotFound,
		},
		{
			name: "unique constraint",
			err:  sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique},
			want: CodeDuplicateKey,
		},
		{
			name: "primary key constraint",
			err:  sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey},
			want: CodeDuplicateKey,
		},
		{
			name: "busy",
			err:  sqlite3.Error{Code: sqlite3.ErrBusy},
			want: CodeTimeout,
		},
		{
			name: "locked",
			err:  sqlite3.Error{Code: sqlite3.ErrLocked},
			want: CodeTimeout,
		},
		{
			name: "auth",
			err:  sqlite3.Error{Code: sqlite3.ErrAuth},
			want: CodeUnauthorized,
		},
		{
			name: "other engine error",
			err:  sqlite3.Error{Code: sqlite3.ErrError},
			want: CodeDatabase,
		},
		{
			name: "engine error wrapped by the execution layer",
			err:  &dbcontext.DatabaseError{SQL: "SELECT 1", Err: sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}},
			want: CodeDuplicateKey,
		},
		{
			name: "non engine database error",
			err:  &dbcontext.DatabaseError{SQL: "SELECT 1", Err: errors.New("driver hiccup")},
			want: CodeDatabase,
		},
		{
			name: "unclassified",
			err:  errors.New("something else"),
			want: CodeInfrastructure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify("Op", tt.err)

			var repoErr *Error
			if !errors.As(got, &repoErr) {
				t.Fatalf("classify() = %v, want *Error", got)
			}
			if repoErr.Code != tt.want {
				t.Errorf("Code = %v, want %v", repoErr.Code, tt.want)
			}
			if repoErr.Op != "Op" {
				t.Errorf("Op = %q, want Op", repoErr.Op)
			}
			if !errors.Is(got, tt.err) {
				t.Error("classified error does not wrap the original")
			}
		})
	}
}

func TestClassifyNil(t *testing.T) {
	if got := classify("Op", nil); got != nil {
		t.Errorf("classify(nil) = %v, want nil", got)
	}
}

func TestClassifyCancellationUnmodified(t *testing.T) {
	for _, err := range []error{context.Canceled, context.DeadlineExceeded} {
		if got := classify("Op", err); got != err {
			t.Errorf("classify(%v) = %v, want the error unmodified", err, got)
		}
	}
}

func TestClassifyPreservesExistingClassification(t *testing.T) {
	original := &Error{Code: CodeDuplicateKey, Op: "Create", Err: errors.New("dup")}

	got := classify("Upsert", original)

	var repoErr *Error
	if !errors.As(got, &repoErr) {
		t.Fatalf("classify() = %v, want *Error", got)
	}
	if repoErr.Op != "Create" || repoErr.Code != CodeDuplicateKey {
		t.Errorf("classification rewritten: %+v", repoErr)
	}
}

func TestCodeString(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{CodeDatabase, "database"},
		{CodeDuplicateKey, "duplicate_key"},
		{CodeNotFound, "not_found"},
		{CodeTimeout, "timeout"},
		{CodeUnauthorized, "unauthorized"},
		{CodeInfrastructure, "infrastructure"},
		{Code(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("Code(%d).String() = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestErrorHelpers(t *testing.T) {
	notFound := &Error{Code: CodeNotFound, Op: "Get", Err: errors.New("gone")}
	dup := &Error{Code: CodeDuplicateKey, Op: "Create", Err: errors.New("dup")}

	if !IsNotFound(notFound) || IsNotFound(dup) {
		t.Error("IsNotFound misclassified")
	}
	if !IsDuplicateKey(dup) || IsDuplicateKey(notFound) {
		t.Error("IsDuplicateKey misclassified")
	}
	if IsNotFound(nil) || IsDuplicateKey(nil) {
		t.Error("helpers matched nil")
	}
}
