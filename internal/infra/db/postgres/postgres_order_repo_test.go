//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"

	"hosting-payments/internal/domain"
	"hosting-payments/internal/domain/model"
	"hosting-payments/internal/domain/ports/repository"
)

func newTestOrder(t *testing.T, userID, ref string) *model.Order {
	t.Helper()
	o, err := model.NewOrder(userID, model.PlanBusiness, 999, "INR", "payu", ref)
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	return o
}

func TestOrderRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewOrderRepo(testPool)
	tm := NewTxManager(testPool)

	t.Run("should create and find an order by id and reference", func(t *testing.T) {
		cleanup(t)
		o := newTestOrder(t, "user-1", "TXN0001")
		if err := repo.Create(ctx, nil, o); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		byID, err := repo.FindByID(ctx, nil, o.ID)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if byID.AmountMinor != 999 || byID.Status != model.OrderStatusPending || byID.BillingCycle != model.DefaultBillingCycle {
			t.Fatalf("unexpected order: %+v", byID)
		}

		byRef, err := repo.FindByReference(ctx, nil, "TXN0001", "")
		if err != nil || byRef.ID != o.ID {
			t.Fatalf("FindByReference(ref) = %v, %v", byRef, err)
		}
		byFallback, err := repo.FindByReference(ctx, nil, "order_unknown", o.ID)
		if err != nil || byFallback.ID != o.ID {
			t.Fatalf("FindByReference(fallback) = %v, %v", byFallback, err)
		}
		if _, err := repo.FindByReference(ctx, nil, "order_unknown", "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should reject a duplicate external reference", func(t *testing.T) {
		cleanup(t)
		if err := repo.Create(ctx, nil, newTestOrder(t, "user-1", "TXN0002")); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		err := repo.Create(ctx, nil, newTestOrder(t, "user-2", "TXN0002"))
		if !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("should transition only out of pending", func(t *testing.T) {
		cleanup(t)
		o := newTestOrder(t, "user-1", "TXN0003")
		if err := repo.Create(ctx, nil, o); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		paidAt := time.Now().UTC()
		ok, err := repo.TransitionFromPending(ctx, nil, o.ID, model.OrderStatusPaid, &paidAt)
		if err != nil || !ok {
			t.Fatalf("first transition = %v, %v", ok, err)
		}
		ok, err = repo.TransitionFromPending(ctx, nil, o.ID, model.OrderStatusFailed, nil)
		if err != nil || ok {
			t.Fatalf("second transition = %v, %v", ok, err)
		}
		got, _ := repo.FindByID(ctx, nil, o.ID)
		if got.Status != model.OrderStatusPaid || got.PaidAt == nil {
			t.Fatalf("unexpected order after transitions: %+v", got)
		}
	})

	t.Run("should let exactly one concurrent transaction apply", func(t *testing.T) {
		cleanup(t)
		o := newTestOrder(t, "user-1", "TXN0004")
		if err := repo.Create(ctx, nil, o); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		const workers = 8
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			applied int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
					locked, err := repo.FindByReference(ctx, tx, "TXN0004", "")
					if err != nil || locked.Status != model.OrderStatusPending {
						return err
					}
					now := time.Now().UTC()
					ok, err := repo.TransitionFromPending(ctx, tx, locked.ID, model.OrderStatusPaid, &now)
					if ok {
						mu.Lock()
						applied++
						mu.Unlock()
					}
					return err
				})
			}()
		}
		wg.Wait()
		if applied != 1 {
			t.Fatalf("expected exactly one applied transition, got %d", applied)
		}
	})

	t.Run("should list a user's orders newest first", func(t *testing.T) {
		cleanup(t)
		older := newTestOrder(t, "user-1", "TXN0005")
		older.CreatedAt = time.Now().Add(-time.Hour).UTC()
		newer := newTestOrder(t, "user-1", "TXN0006")
		other := newTestOrder(t, "user-2", "TXN0007")
		for _, o := range []*model.Order{older, newer, other} {
			if err := repo.Create(ctx, nil, o); err != nil {
				t.Fatalf("Create failed: %v", err)
			}
		}
		list, err := repo.ListByUser(ctx, nil, "user-1", 10)
		if err != nil {
			t.Fatalf("ListByUser failed: %v", err)
		}
		if len(list) != 2 || list[0].ID != newer.ID || list[1].ID != older.ID {
			t.Fatalf("unexpected order list: %+v", list)
		}
	})
}
