package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"hosting-payments/internal/domain"
	"hosting-payments/internal/domain/model"
	"hosting-payments/internal/domain/ports/repository"
	"hosting-payments/internal/infra/logging"
	"hosting-payments/internal/infra/metrics"
)

// Compile-time check
var _ ReconcileUseCase = (*reconcileUC)(nil)

const (
	PaymentNotificationTitle = "Payment Successful"
	DefaultReplayTTL         = 72 * time.Hour
)

type ReconcileUseCase interface {
	// Apply moves the referenced order out of pending according to a verified
	// update. Replays and already-settled orders are reported as duplicates.
	Apply(ctx context.Context, upd *model.PaymentUpdate) (*model.ReconcileResult, error)
}

// ReconcileRepos groups the stores one reconciliation touches.
type ReconcileRepos struct {
	Tx            repository.TransactionManager
	Orders        repository.OrderRepository
	Profiles      repository.ProfileRepository
	Notifications repository.NotificationRepository
	Activity      repository.ActivityLogRepository
}

type reconcileUC struct {
	repos     ReconcileRepos
	ledger    repository.ReplayLedger
	replayTTL time.Duration
	log       *zerolog.Logger
	now       func() time.Time
}

// NewReconcileUseCase wires the reconciler. ledger may be nil, in which case the
// conditional order transition is the only duplicate guard.
func NewReconcileUseCase(repos ReconcileRepos, ledger repository.ReplayLedger, replayTTL time.Duration, logger *zerolog.Logger) *reconcileUC {
	if replayTTL <= 0 {
		replayTTL = DefaultReplayTTL
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &reconcileUC{repos: repos, ledger: ledger, replayTTL: replayTTL, log: logger, now: time.Now}
}

func (u *reconcileUC) Apply(ctx context.Context, upd *model.PaymentUpdate) (*model.ReconcileResult, error) {
	if upd == nil {
		return nil, domain.ErrInvalidArgument
	}
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "reconcile.Apply")()

	switch upd.Status {
	case model.OrderStatusPending:
		metrics.IncReconcile(upd.Provider, "skipped")
		log.Debug().Str("provider_status", upd.ProviderStatus).Msg("non-terminal provider status; nothing to apply")
		return &model.ReconcileResult{Status: model.OrderStatusPending}, nil
	case model.OrderStatusPaid, model.OrderStatusFailed:
	default:
		return nil, fmt.Errorf("%w: status %q cannot come from a webhook", domain.ErrInvalidArgument, upd.Status)
	}
	if upd.TransactionID == "" && upd.OrderID == "" {
		return nil, fmt.Errorf("%w: update without order reference", domain.ErrInvalidArgument)
	}

	claimed := false
	if u.ledger != nil && upd.ReplayKey != "" {
		ok, err := u.ledger.Claim(ctx, upd.ReplayKey, u.replayTTL)
		switch {
		case err != nil:
			// the conditional transition below still prevents a double apply
			log.Warn().Err(err).Str("replay_key", upd.ReplayKey).Msg("replay ledger unavailable")
		case !ok:
			metrics.IncReconcile(upd.Provider, "duplicate")
			log.Info().Str("replay_key", upd.ReplayKey).Msg("webhook replay ignored")
			return &model.ReconcileResult{Status: upd.Status, Duplicate: true}, nil
		default:
			claimed = true
		}
	}

	res := &model.ReconcileResult{Status: upd.Status}
	var order *model.Order
	err := u.repos.Tx.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		o, err := u.applyTx(ctx, tx, upd, res)
		order = o
		return err
	})
	if err != nil {
		if claimed {
			if rerr := u.ledger.Release(ctx, upd.ReplayKey); rerr != nil {
				log.Error().Err(rerr).Str("replay_key", upd.ReplayKey).Msg("replay key release failed")
			}
		}
		switch {
		case errors.Is(err, domain.ErrNotFound):
			metrics.IncReconcile(upd.Provider, "not_found")
			return res, fmt.Errorf("order for %q/%q: %w", upd.TransactionID, upd.OrderID, domain.ErrNotFound)
		case errors.Is(err, domain.ErrAmountMismatch):
			metrics.IncReconcile(upd.Provider, "amount_mismatch")
			return res, err
		default:
			metrics.IncReconcile(upd.Provider, "error")
			metrics.IncPersistenceFailure(upd.Provider)
			return res, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
	}

	if res.Duplicate {
		metrics.IncReconcile(upd.Provider, "duplicate")
		log.Info().Str("order_id", res.OrderID).Str("status", string(res.Status)).Msg("order already settled")
		return res, nil
	}
	metrics.IncReconcile(upd.Provider, "applied")
	metrics.IncPayment(upd.Provider, string(res.Status))
	if res.Status == model.OrderStatusPaid && order != nil {
		metrics.AddPaymentRevenue(order.Currency, order.AmountMinor)
		if inv, ok := u.repos.Profiles.(repository.ProfileCacheInvalidator); ok {
			inv.Invalidate(ctx, order.UserID)
		}
	}
	log.Info().Str("order_id", res.OrderID).Str("status", string(res.Status)).Msg("order reconciled")
	return res, nil
}

func (u *reconcileUC) applyTx(ctx context.Context, tx repository.Tx, upd *model.PaymentUpdate, res *model.ReconcileResult) (*model.Order, error) {
	o, err := u.repos.Orders.FindByReference(ctx, tx, upd.TransactionID, upd.OrderID)
	if err != nil {
		return nil, err
	}
	res.OrderID = o.ID

	if o.Status != model.OrderStatusPending {
		res.Duplicate = true
		res.Status = o.Status
		return o, nil
	}
	if err := checkAmount(o, upd); err != nil {
		return o, err
	}

	var paidAt *time.Time
	if upd.Status == model.OrderStatusPaid {
		t := u.now().UTC()
		paidAt = &t
	}
	ok, err := u.repos.Orders.TransitionFromPending(ctx, tx, o.ID, upd.Status, paidAt)
	if err != nil {
		return o, err
	}
	if !ok {
		res.Duplicate = true
		return o, nil
	}
	res.Applied = true

	if upd.Status != model.OrderStatusPaid {
		return o, nil
	}
	return o, u.applyPaid(ctx, tx, o, upd)
}

// applyPaid upgrades the profile and records one notification and one activity row.
func (u *reconcileUC) applyPaid(ctx context.Context, tx repository.Tx, o *model.Order, upd *model.PaymentUpdate) error {
	log := logging.With(ctx, u.log)

	if err := u.repos.Profiles.UpdateSubscriptionPlan(ctx, tx, o.UserID, o.Plan); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		log.Warn().Str("user_id", o.UserID).Str("order_id", o.ID).Msg("profile missing; plan not upgraded")
	}

	n := model.NewNotification(
		o.UserID,
		model.NotificationTypePayment,
		PaymentNotificationTitle,
		fmt.Sprintf("Your subscription has been upgraded to %s plan.", o.Plan),
	)
	if err := u.repos.Notifications.Create(ctx, tx, n); err != nil {
		return err
	}

	entry := model.NewActivityLogEntry(o.UserID, model.ActivitySubscriptionUpgraded, map[string]any{
		"plan":       string(o.Plan),
		"payment_id": upd.ProviderPaymentID,
		"order_id":   o.ID,
		"provider":   upd.Provider,
	})
	return u.repos.Activity.Append(ctx, tx, entry)
}

// checkAmount rejects a capture whose reported amount or currency differs from
// the order. Callbacks that omit the amount are not checked; a reported zero is.
func checkAmount(o *model.Order, upd *model.PaymentUpdate) error {
	if upd.Status != model.OrderStatusPaid {
		return nil
	}
	if upd.AmountReported && upd.AmountMinor != o.AmountMinor {
		return fmt.Errorf("%w: order %s expects %d, provider reported %d", domain.ErrAmountMismatch, o.ID, o.AmountMinor, upd.AmountMinor)
	}
	if upd.Currency != "" && !strings.EqualFold(upd.Currency, o.Currency) {
		return fmt.Errorf("%w: order %s is in %s, provider reported %s", domain.ErrAmountMismatch, o.ID, o.Currency, upd.Currency)
	}
	return nil
}
