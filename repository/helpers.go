package repository

import (
	"database/sql"
	"strings"
)

// placeholders renders n positional parameters for an IN clause.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// toArgs widens a string slice for variadic statement parameters.
func toArgs(keys []string) []any {
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	return args
}

// nullString maps "" to NULL for nullable text columns.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// fromNull unwraps a nullable text column scanned into sql.NullString.
func fromNull(s sql.NullString) string {
	if s.Valid {
		return s.String
	}
	return ""
}
