package repository

import (
	"context"
	"log/slog"

	"github.com/brokerandyT2/photo-sub000/dbcontext"
)

// UnitOfWork bundles the repositories over one DatabaseContext so a
// caller can span several of them with a single transaction.
//
// Repositories write through to the engine immediately; there is no
// change tracker batching pending writes. SaveChanges exists for
// callers ported from tracker-style persistence and only validates
// that the operation has not been cancelled.
type UnitOfWork struct {
	dbc    *dbcontext.DatabaseContext
	logger *slog.Logger

	Settings      *SettingRepository
	Locations     *LocationRepository
	Tips          *TipRepository
	Weather       *WeatherRepository
	Subscriptions *SubscriptionRepository
}

// NewUnitOfWork bundles the repositories over dbc.
func NewUnitOfWork(
	dbc *dbcontext.DatabaseContext,
	settings *SettingRepository,
	locations *LocationRepository,
	tips *TipRepository,
	weather *WeatherRepository,
	subscriptions *SubscriptionRepository,
) *UnitOfWork {
	return &UnitOfWork{
		dbc:           dbc,
		logger:        slog.Default().With("component", "unit_of_work"),
		Settings:      settings,
		Locations:     locations,
		Tips:          tips,
		Weather:       weather,
		Subscriptions: subscriptions,
	}
}

// SaveChanges is a pass-through: every repository write is already
// persisted when it returns. It reports cancellation so callers that
// gate on it still observe a dead context.
func (u *UnitOfWork) SaveChanges(ctx context.Context) error {
	return ctx.Err()
}

// InTransaction runs fn with a transaction open on the underlying
// context, so repository calls inside fn commit or roll back together.
// Nested calls run inline on the already open transaction.
func (u *UnitOfWork) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return u.dbc.InTransaction(ctx, fn)
}

// BeginTransaction opens a transaction on the underlying context. A
// transaction already being open is a state error.
func (u *UnitOfWork) BeginTransaction(ctx context.Context) error {
	return u.dbc.Begin(ctx)
}

// CommitTransaction commits the open transaction.
func (u *UnitOfWork) CommitTransaction(ctx context.Context) error {
	return u.dbc.Commit(ctx)
}

// RollbackTransaction rolls back the open transaction.
func (u *UnitOfWork) RollbackTransaction(ctx context.Context) error {
	return u.dbc.Rollback(ctx)
}
