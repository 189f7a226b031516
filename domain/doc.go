// Package domain holds the plain value types persisted by the
// repository layer: settings, photo locations, tips, weather snapshots
// and subscriptions. Entities are constructed through factory
// functions that enforce their invariants and are treated as immutable
// values: mutators return updated copies, and identity assigned by the
// database travels back via WithID rather than by mutating the
// caller's value.
package domain
