// Package dbcontext owns SQL execution and transaction demarcation for
// the application's SQLite database.
//
// A DatabaseContext wraps one *sql.DB and enforces a small state
// machine: Idle -> InTransaction -> Idle. Only one logical transaction
// may be active per instance; a concurrent Begin fails fast with
// *StateError instead of queueing. InTransaction flattens nested use by
// running the operation inline when a transaction is already open.
//
// Statement execution goes through parameterized primitives
// (ExecuteNonQuery, Insert, and the generic Scalar, QuerySingle and
// QueryAll functions). Engine failures are wrapped into *DatabaseError
// carrying the statement text; cancellation always propagates
// unwrapped. Repositories build on these primitives and perform their
// own error classification; see the repository package.
package dbcontext
