package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"hosting-payments/internal/domain"
	"hosting-payments/internal/domain/model"
	"hosting-payments/internal/domain/ports/adapter"
	"hosting-payments/internal/infra/logging"
)

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

// ProviderLookup resolves a provider name to its webhook verifier.
type ProviderLookup interface {
	Lookup(name string) (adapter.WebhookProvider, error)
}

type WebhookUseCase interface {
	// Handle verifies ev with the named provider and reconciles the order.
	// The returned outcome is non-nil whenever the provider was resolved.
	Handle(ctx context.Context, ev *model.WebhookEvent) (*WebhookOutcome, error)
}

// WebhookOutcome reports how far a delivery got.
type WebhookOutcome struct {
	Provider string
	Verified bool
	Update   *model.PaymentUpdate
	Result   *model.ReconcileResult
}

type webhookUC struct {
	providers ProviderLookup
	reconcile ReconcileUseCase
	log       *zerolog.Logger
}

func NewWebhookUseCase(providers ProviderLookup, reconcile ReconcileUseCase, logger *zerolog.Logger) *webhookUC {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &webhookUC{providers: providers, reconcile: reconcile, log: logger}
}

func (u *webhookUC) Handle(ctx context.Context, ev *model.WebhookEvent) (*WebhookOutcome, error) {
	if ev == nil {
		return nil, domain.ErrInvalidArgument
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now().UTC()
	}
	p, err := u.providers.Lookup(ev.Provider)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithProvider(ctx, p.Name())
	log := logging.With(ctx, u.log)
	out := &WebhookOutcome{Provider: p.Name()}

	ok, err := p.Verify(ev)
	if err != nil {
		log.Error().Err(err).Msg("webhook verification unavailable")
		return out, err
	}
	if !ok {
		log.Warn().
			Int("body_bytes", len(ev.Body)).
			Str("signature", logging.Redact(p.Signature(ev))).
			Msg("webhook signature rejected")
		return out, domain.ErrSignatureInvalid
	}
	out.Verified = true

	upd, err := p.Extract(ev)
	if err != nil {
		log.Warn().Err(err).Msg("verified webhook payload could not be parsed")
		return out, err
	}
	out.Update = upd
	if upd.OrderID != "" {
		ctx = logging.WithOrderID(ctx, upd.OrderID)
	}

	res, err := u.reconcile.Apply(ctx, upd)
	out.Result = res
	if err != nil {
		return out, fmt.Errorf("reconcile %s %s: %w", p.Name(), upd.TransactionID, err)
	}
	return out, nil
}
