// Package repository implements the persistence operations for each
// entity over a dbcontext.DatabaseContext.
//
// Every operation returns either nil or an *Error classified into the
// Code taxonomy; engine error details never leak past classify. Hot
// single-row lookups (settings by key, locations by id, weather by
// location) are read through a TTL cache with negative caching, and
// every write path keeps the cache coherent: refresh on update, drop
// on delete, batch invalidation after bulk writes.
//
// UnitOfWork bundles the repositories so multi-entity operations can
// share one transaction.
package repository
