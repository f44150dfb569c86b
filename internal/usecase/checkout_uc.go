package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"hosting-payments/internal/domain"
	"hosting-payments/internal/domain/model"
	"hosting-payments/internal/domain/ports/adapter"
	"hosting-payments/internal/domain/ports/repository"
	"hosting-payments/internal/infra/logging"
	"hosting-payments/internal/infra/metrics"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

type CheckoutUseCase interface {
	// Initiate creates a pending order and returns the provider form to post.
	Initiate(ctx context.Context, in model.CheckoutInput) (*model.CheckoutSession, error)
}

type checkoutUC struct {
	provider adapter.CheckoutProvider
	tm       repository.TransactionManager
	orders   repository.OrderRepository
	profiles repository.ProfileRepository
	activity repository.ActivityLogRepository
	currency string
	log      *zerolog.Logger
}

func NewCheckoutUseCase(
	provider adapter.CheckoutProvider,
	tm repository.TransactionManager,
	orders repository.OrderRepository,
	profiles repository.ProfileRepository,
	activity repository.ActivityLogRepository,
	currency string,
	logger *zerolog.Logger,
) *checkoutUC {
	if currency == "" {
		currency = "INR"
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &checkoutUC{
		provider: provider,
		tm:       tm,
		orders:   orders,
		profiles: profiles,
		activity: activity,
		currency: strings.ToUpper(currency),
		log:      logger,
	}
}

// MinorUnits converts a major-unit amount to minor units, rounding half away from zero.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (u *checkoutUC) Initiate(ctx context.Context, in model.CheckoutInput) (*model.CheckoutSession, error) {
	name := u.provider.Name()
	// plan is empty unless known, so metric labels stay bounded
	plan, planErr := model.ParsePlan(string(in.Plan))
	if err := u.provider.Ready(); err != nil {
		metrics.IncCheckout(name, string(plan), "misconfigured")
		return nil, err
	}

	if planErr != nil || plan == model.PlanFree {
		metrics.IncCheckout(name, string(plan), "invalid")
		return nil, fmt.Errorf("%w: plan %q cannot be purchased", domain.ErrInvalidArgument, in.Plan)
	}
	in.Plan = plan

	amountMinor := MinorUnits(in.Amount)
	if amountMinor <= 0 || strings.TrimSpace(in.UserID) == "" {
		metrics.IncCheckout(name, string(plan), "invalid")
		return nil, fmt.Errorf("%w: checkout needs a positive amount and a user", domain.ErrInvalidArgument)
	}

	ctx = logging.WithUserID(ctx, in.UserID)
	log := logging.With(ctx, u.log)

	if in.Email == "" {
		if err := u.fillFromProfile(ctx, &in); err != nil {
			metrics.IncCheckout(name, string(plan), "invalid")
			return nil, err
		}
	}

	txnID := u.provider.NewTransactionID()
	order, err := model.NewOrder(in.UserID, plan, amountMinor, u.currency, name, txnID)
	if err != nil {
		metrics.IncCheckout(name, string(plan), "invalid")
		return nil, err
	}
	payURL, params, err := u.provider.BuildCheckout(txnID, order, in)
	if err != nil {
		metrics.IncCheckout(name, string(plan), "error")
		return nil, err
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.orders.Create(ctx, tx, order); err != nil {
			return err
		}
		return u.activity.Append(ctx, tx, model.NewActivityLogEntry(in.UserID, model.ActivityCheckoutInitiated, map[string]any{
			"plan":     string(plan),
			"order_id": order.ID,
			"txnid":    txnID,
			"provider": name,
		}))
	})
	if err != nil {
		metrics.IncCheckout(name, string(plan), "error")
		log.Error().Err(err).Str("order_id", order.ID).Msg("checkout order not stored")
		return nil, err
	}

	metrics.IncCheckout(name, string(plan), "created")
	log.Info().Str("order_id", order.ID).Str("txnid", txnID).Int64("amount_minor", amountMinor).Msg("checkout initiated")
	return &model.CheckoutSession{PaymentURL: payURL, Params: params, OrderID: order.ID}, nil
}

func (u *checkoutUC) fillFromProfile(ctx context.Context, in *model.CheckoutInput) error {
	if u.profiles == nil {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidArgument)
	}
	p, err := u.profiles.FindByID(ctx, repository.NoTX, in.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: email is required", domain.ErrInvalidArgument)
		}
		return err
	}
	if p.Email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidArgument)
	}
	in.Email = p.Email
	return nil
}
