package domain

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

// Subscription records an in-app purchase entitlement. TransactionID
// is the stable correlation key against the store backend and is
// assigned at construction time.
type Subscription struct {
	ID             int64
	UserID         string
	ProductID      string
	TransactionID  string
	PurchaseDate   time.Time
	ExpirationDate time.Time
	IsActive       bool
}

// NewSubscription builds a not-yet-persisted Subscription with a fresh
// transaction id.
func NewSubscription(userID, productID string, expiration time.Time) (Subscription, error) {
	s := Subscription{
		UserID:         userID,
		ProductID:      productID,
		TransactionID:  uuid.NewString(),
		PurchaseDate:   time.Now().UTC(),
		ExpirationDate: expiration.UTC(),
		IsActive:       true,
	}
	if err := s.Validate(); err != nil {
		return Subscription{}, err
	}
	return s, nil
}

// Validate enforces the Subscription invariants.
func (s Subscription) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.UserID, validation.Required, is.UUID),
		validation.Field(&s.ProductID, validation.Required, validation.Length(1, 200)),
		validation.Field(&s.TransactionID, validation.Required, is.UUID),
	)
}

// WithID returns a copy carrying the identity assigned by the engine.
func (s Subscription) WithID(id int64) Subscription {
	s.ID = id
	return s
}

// Deactivated returns an inactive copy.
func (s Subscription) Deactivated() Subscription {
	s.IsActive = false
	return s
}

// IsExpired reports whether the entitlement has lapsed at now.
func (s Subscription) IsExpired(now time.Time) bool {
	return now.After(s.ExpirationDate)
}
