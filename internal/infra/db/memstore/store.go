// Package memstore keeps orders, profiles, notifications and the activity log
// in process memory. It backs dev mode and the use-case tests.
package memstore

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v4"

	"hosting-payments/internal/domain"
	"hosting-payments/internal/domain/model"
	"hosting-payments/internal/domain/ports/repository"
)

var _ repository.TransactionManager = (*Store)(nil)

// memTx is the handle passed to repositories inside WithTx.
type memTx struct{ s *Store }

// Store is the shared state behind every repository in this package.
// Transactions run one at a time and are rolled back by restoring a snapshot.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	orders        map[string]*model.Order
	profiles      map[string]*model.Profile
	notifications []*model.Notification
	activity      []*model.ActivityLogEntry
}

func New() *Store {
	return &Store{
		orders:   make(map[string]*model.Order),
		profiles: make(map[string]*model.Profile),
	}
}

func (s *Store) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snap := s.snapshot()
	if err := fn(ctx, &memTx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) checkTx(tx repository.Tx) error {
	switch v := tx.(type) {
	case nil:
		return nil
	case *memTx:
		if v.s != s {
			return domain.ErrInvalidExecContext
		}
		return nil
	default:
		return domain.ErrInvalidExecContext
	}
}

type snapshot struct {
	orders        map[string]*model.Order
	profiles      map[string]*model.Profile
	notifications []*model.Notification
	activity      []*model.ActivityLogEntry
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := snapshot{
		orders:        make(map[string]*model.Order, len(s.orders)),
		profiles:      make(map[string]*model.Profile, len(s.profiles)),
		notifications: append([]*model.Notification(nil), s.notifications...),
		activity:      append([]*model.ActivityLogEntry(nil), s.activity...),
	}
	for k, v := range s.orders {
		snap.orders[k] = copyOrder(v)
	}
	for k, v := range s.profiles {
		p := *v
		snap.profiles[k] = &p
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = snap.orders
	s.profiles = snap.profiles
	s.notifications = snap.notifications
	s.activity = snap.activity
}

// PutProfile seeds or replaces a profile.
func (s *Store) PutProfile(p *model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.profiles[p.ID] = &cp
}

func copyOrder(o *model.Order) *model.Order {
	cp := *o
	if o.ExternalRef != nil {
		ref := *o.ExternalRef
		cp.ExternalRef = &ref
	}
	if o.PaidAt != nil {
		t := *o.PaidAt
		cp.PaidAt = &t
	}
	return &cp
}

func copyDetails(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
