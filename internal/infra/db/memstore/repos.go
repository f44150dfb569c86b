package memstore

import (
	"context"
	"sort"
	"time"

	"hosting-payments/internal/domain"
	"hosting-payments/internal/domain/model"
	"hosting-payments/internal/domain/ports/repository"
)

var (
	_ repository.OrderRepository        = (*OrderRepo)(nil)
	_ repository.ProfileRepository      = (*ProfileRepo)(nil)
	_ repository.NotificationRepository = (*NotificationRepo)(nil)
	_ repository.ActivityLogRepository  = (*ActivityLogRepo)(nil)
)

// -----------------------------
// Orders
// -----------------------------

type OrderRepo struct{ s *Store }

func NewOrderRepo(s *Store) *OrderRepo { return &OrderRepo{s: s} }

func (r *OrderRepo) Create(ctx context.Context, tx repository.Tx, o *model.Order) error {
	if err := r.s.checkTx(tx); err != nil {
		return err
	}
	if o.IsZero() {
		return domain.ErrInvalidArgument
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[o.ID]; ok {
		return domain.ErrAlreadyExists
	}
	if o.ExternalRef != nil {
		for _, existing := range r.s.orders {
			if existing.ExternalRef != nil && *existing.ExternalRef == *o.ExternalRef {
				return domain.ErrAlreadyExists
			}
		}
	}
	r.s.orders[o.ID] = copyOrder(o)
	return nil
}

func (r *OrderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	if err := r.s.checkTx(tx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyOrder(o), nil
}

func (r *OrderRepo) FindByReference(ctx context.Context, tx repository.Tx, externalRef, orderID string) (*model.Order, error) {
	if err := r.s.checkTx(tx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if externalRef != "" {
		for _, o := range r.s.orders {
			if o.ExternalRef != nil && *o.ExternalRef == externalRef {
				return copyOrder(o), nil
			}
		}
	}
	if orderID != "" {
		if o, ok := r.s.orders[orderID]; ok {
			return copyOrder(o), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *OrderRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.Order, error) {
	if err := r.s.checkTx(tx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	var out []*model.Order
	for _, o := range r.s.orders {
		if o.UserID == userID {
			out = append(out, copyOrder(o))
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *OrderRepo) TransitionFromPending(ctx context.Context, tx repository.Tx, id string, status model.OrderStatus, paidAt *time.Time) (bool, error) {
	if err := r.s.checkTx(tx); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok || o.Status != model.OrderStatusPending {
		return false, nil
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	if paidAt != nil {
		t := *paidAt
		o.PaidAt = &t
	}
	return true, nil
}

// -----------------------------
// Profiles
// -----------------------------

type ProfileRepo struct{ s *Store }

func NewProfileRepo(s *Store) *ProfileRepo { return &ProfileRepo{s: s} }

func (r *ProfileRepo) FindByID(ctx context.Context, tx repository.Tx, userID string) (*model.Profile, error) {
	if err := r.s.checkTx(tx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *ProfileRepo) UpdateSubscriptionPlan(ctx context.Context, tx repository.Tx, userID string, plan model.Plan) error {
	if err := r.s.checkTx(tx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[userID]
	if !ok {
		return domain.ErrNotFound
	}
	p.SubscriptionPlan = plan
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// -----------------------------
// Notifications / activity
// -----------------------------

type NotificationRepo struct{ s *Store }

func NewNotificationRepo(s *Store) *NotificationRepo { return &NotificationRepo{s: s} }

func (r *NotificationRepo) Create(ctx context.Context, tx repository.Tx, n *model.Notification) error {
	if err := r.s.checkTx(tx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *n
	r.s.notifications = append(r.s.notifications, &cp)
	return nil
}

func (r *NotificationRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Notification, error) {
	if err := r.s.checkTx(tx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.Notification
	for _, n := range r.s.notifications {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

type ActivityLogRepo struct{ s *Store }

func NewActivityLogRepo(s *Store) *ActivityLogRepo { return &ActivityLogRepo{s: s} }

func (r *ActivityLogRepo) Append(ctx context.Context, tx repository.Tx, e *model.ActivityLogEntry) error {
	if err := r.s.checkTx(tx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *e
	cp.Details = copyDetails(e.Details)
	r.s.activity = append(r.s.activity, &cp)
	return nil
}

func (r *ActivityLogRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.ActivityLogEntry, error) {
	if err := r.s.checkTx(tx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.ActivityLogEntry
	for _, e := range r.s.activity {
		if e.UserID == userID {
			cp := *e
			cp.Details = copyDetails(e.Details)
			out = append(out, &cp)
		}
	}
	return out, nil
}
