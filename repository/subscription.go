package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brokerandyT2/photo-sub000/dbcontext"
	"github.com/brokerandyT2/photo-sub000/domain"
)

const subscriptionColumns = "id, user_id, product_id, transaction_id, purchase_date, expiration_date, is_active"

const (
	selectSubscriptionByTxn  = "SELECT " + subscriptionColumns + " FROM subscriptions WHERE transaction_id = ?"
	selectActiveSubscription = "SELECT " + subscriptionColumns + " FROM subscriptions WHERE user_id = ? AND is_active = 1 AND expiration_date > ? ORDER BY expiration_date DESC LIMIT 1"
	selectSubscriptionsUser  = "SELECT " + subscriptionColumns + " FROM subscriptions WHERE user_id = ? ORDER BY purchase_date DESC"
	insertSubscription       = "INSERT INTO subscriptions (user_id, product_id, transaction_id, purchase_date, expiration_date, is_active) VALUES (?, ?, ?, ?, ?, ?)"
	deactivateSubscription   = "UPDATE subscriptions SET is_active = 0 WHERE transaction_id = ? AND is_active = 1"
	deactivateExpiredSubs    = "UPDATE subscriptions SET is_active = 0 WHERE is_active = 1 AND expiration_date <= ?"
	existsSubscriptionByTxn  = "SELECT COUNT(1) FROM subscriptions WHERE transaction_id = ?"
)

// SubscriptionRepository maps domain.Subscription to the subscriptions
// table. Entitlement checks must see the latest committed state, so
// nothing here is cached.
type SubscriptionRepository struct {
	dbc    *dbcontext.DatabaseContext
	logger *slog.Logger
}

// NewSubscriptionRepository wires a repository over the given context.
func NewSubscriptionRepository(dbc *dbcontext.DatabaseContext) *SubscriptionRepository {
	return &SubscriptionRepository{
		dbc:    dbc,
		logger: slog.Default().With("component", "repository", "entity", "subscription"),
	}
}

func scanSubscription(row dbcontext.RowScanner) (domain.Subscription, error) {
	var s domain.Subscription
	var purchase, expiration int64
	var active int
	if err := row.Scan(&s.ID, &s.UserID, &s.ProductID, &s.TransactionID, &purchase, &expiration, &active); err != nil {
		return domain.Subscription{}, err
	}
	s.PurchaseDate = time.UnixMilli(purchase).UTC()
	s.ExpirationDate = time.UnixMilli(expiration).UTC()
	s.IsActive = active != 0
	return s, nil
}

// GetByTransactionID returns the subscription recorded for the store
// transaction.
func (r *SubscriptionRepository) GetByTransactionID(ctx context.Context, transactionID string) (domain.Subscription, error) {
	const op = "GetByTransactionID"

	s, err := dbcontext.QuerySingle(ctx, r.dbc, selectSubscriptionByTxn, scanSubscription, transactionID)
	if err != nil {
		return domain.Subscription{}, classify(op, err)
	}
	return s, nil
}

// GetActiveByUser returns the user's current entitlement: the active,
// unexpired subscription with the latest expiration at now.
func (r *SubscriptionRepository) GetActiveByUser(ctx context.Context, userID string, now time.Time) (domain.Subscription, error) {
	const op = "GetActiveByUser"

	s, err := dbcontext.QuerySingle(ctx, r.dbc, selectActiveSubscription, scanSubscription, userID, now.UnixMilli())
	if err != nil {
		return domain.Subscription{}, classify(op, err)
	}
	return s, nil
}

// GetByUser returns the user's full purchase history, newest first.
func (r *SubscriptionRepository) GetByUser(ctx context.Context, userID string) ([]domain.Subscription, error) {
	const op = "GetByUser"

	subs, err := dbcontext.QueryAll(ctx, r.dbc, selectSubscriptionsUser, scanSubscription, userID)
	if err != nil {
		return nil, classify(op, err)
	}
	return subs, nil
}

// Create records a purchase. A replayed store transaction id is
// rejected before the insert; the UNIQUE constraint backstops the
// race between two contexts.
func (r *SubscriptionRepository) Create(ctx context.Context, s domain.Subscription) (domain.Subscription, error) {
	const op = "Create"

	if err := s.Validate(); err != nil {
		return domain.Subscription{}, &Error{Code: CodeInfrastructure, Op: op, Err: err}
	}

	count, err := dbcontext.Scalar[int64](ctx, r.dbc, existsSubscriptionByTxn, s.TransactionID)
	if err != nil {
		return domain.Subscription{}, classify(op, err)
	}
	if count > 0 {
		return domain.Subscription{}, &Error{Code: CodeDuplicateKey, Op: op, Err: fmt.Errorf("transaction %s already recorded", s.TransactionID)}
	}

	active := 0
	if s.IsActive {
		active = 1
	}
	id, err := r.dbc.Insert(ctx, insertSubscription,
		s.UserID, s.ProductID, s.TransactionID,
		s.PurchaseDate.UnixMilli(), s.ExpirationDate.UnixMilli(), active)
	if err != nil {
		return domain.Subscription{}, classify(op, err)
	}

	r.logger.Debug("created subscription", "id", id, "user_id", s.UserID, "product_id", s.ProductID)
	return s.WithID(id), nil
}

// Deactivate turns off the subscription for the store transaction.
// Deactivating an already inactive or unknown transaction fails with a
// not-found error so refund handling cannot silently no-op.
func (r *SubscriptionRepository) Deactivate(ctx context.Context, transactionID string) error {
	const op = "Deactivate"

	affected, err := r.dbc.ExecuteNonQuery(ctx, deactivateSubscription, transactionID)
	if err != nil {
		return classify(op, err)
	}
	if affected == 0 {
		return &Error{Code: CodeNotFound, Op: op, Err: fmt.Errorf("active subscription for transaction %s not found", transactionID)}
	}

	r.logger.Debug("deactivated subscription", "transaction_id", transactionID)
	return nil
}

// DeactivateExpired flips every active subscription whose expiration
// has passed at now, returning how many rows were flipped. Run at app
// start before the first entitlement check.
func (r *SubscriptionRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	const op = "DeactivateExpired"

	affected, err := r.dbc.ExecuteNonQuery(ctx, deactivateExpiredSubs, now.UnixMilli())
	if err != nil {
		return 0, classify(op, err)
	}

	r.logger.Debug("deactivated expired subscriptions", "count", affected)
	return affected, nil
}
