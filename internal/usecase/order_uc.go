package usecase

import (
	"context"

	"hosting-payments/internal/domain"
	"hosting-payments/internal/domain/model"
	"hosting-payments/internal/domain/ports/repository"
)

// Compile-time check
var _ OrderUseCase = (*orderUC)(nil)

const (
	DefaultOrderListLimit = 20
	MaxOrderListLimit     = 100
)

type OrderUseCase interface {
	// List returns the user's orders, newest first.
	List(ctx context.Context, userID string, limit int) ([]*model.Order, error)
	// Get returns one order owned by userID. Orders of other users are reported as not found.
	Get(ctx context.Context, userID, orderID string) (*model.Order, error)
}

type orderUC struct {
	orders repository.OrderRepository
}

func NewOrderUseCase(orders repository.OrderRepository) *orderUC {
	return &orderUC{orders: orders}
}

func (u *orderUC) List(ctx context.Context, userID string, limit int) ([]*model.Order, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if limit <= 0 {
		limit = DefaultOrderListLimit
	}
	if limit > MaxOrderListLimit {
		limit = MaxOrderListLimit
	}
	return u.orders.ListByUser(ctx, repository.NoTX, userID, limit)
}

func (u *orderUC) Get(ctx context.Context, userID, orderID string) (*model.Order, error) {
	if userID == "" || orderID == "" {
		return nil, domain.ErrInvalidArgument
	}
	o, err := u.orders.FindByID(ctx, repository.NoTX, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return o, nil
}
