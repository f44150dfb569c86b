package repository

import (
	"context"
	"time"

	"hosting-payments/internal/domain/model"
)

// -----------------------------
// Orders
// -----------------------------

type OrderRepository interface {
	Create(ctx context.Context, tx Tx, o *model.Order) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Order, error)
	// FindByReference matches the stored external reference first and falls back
	// to the order id. Inside a transaction the row is locked.
	FindByReference(ctx context.Context, tx Tx, externalRef, orderID string) (*model.Order, error)
	ListByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.Order, error)
	// TransitionFromPending moves a pending order to status and reports whether a
	// row changed. Orders already out of pending are left alone.
	TransitionFromPending(ctx context.Context, tx Tx, id string, status model.OrderStatus, paidAt *time.Time) (bool, error)
}

// -----------------------------
// Profiles / notifications / activity
// -----------------------------

type ProfileRepository interface {
	FindByID(ctx context.Context, tx Tx, userID string) (*model.Profile, error)
	// UpdateSubscriptionPlan returns domain.ErrNotFound when the profile does not exist.
	UpdateSubscriptionPlan(ctx context.Context, tx Tx, userID string, plan model.Plan) error
}

// ProfileCacheInvalidator is implemented by caching profile repositories.
// Invalidate is called once the transaction that changed the profile has committed.
type ProfileCacheInvalidator interface {
	Invalidate(ctx context.Context, userID string)
}

type NotificationRepository interface {
	Create(ctx context.Context, tx Tx, n *model.Notification) error
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Notification, error)
}

type ActivityLogRepository interface {
	Append(ctx context.Context, tx Tx, e *model.ActivityLogEntry) error
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.ActivityLogEntry, error)
}
