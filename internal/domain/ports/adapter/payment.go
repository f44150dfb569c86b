package adapter

import (
	"hosting-payments/internal/domain/model"
)

// WebhookProvider is the hex port for one payment provider's inbound callbacks.
type WebhookProvider interface {
	Name() string

	// Verify reports whether the event is authentic. It returns
	// domain.ErrConfiguration when the provider secret is missing; a missing
	// secret never yields true.
	Verify(ev *model.WebhookEvent) (bool, error)

	// Signature returns the signature the sender presented, "" when absent.
	Signature(ev *model.WebhookEvent) string

	// Extract parses a verified event into the canonical vocabulary.
	// Malformed payloads return domain.ErrInvalidArgument.
	Extract(ev *model.WebhookEvent) (*model.PaymentUpdate, error)
}

// CheckoutProvider builds the hosted-payment-page form for a new attempt.
type CheckoutProvider interface {
	Name() string
	// Ready returns domain.ErrConfiguration when credentials are missing.
	Ready() error
	// NewTransactionID returns a fresh, unique provider transaction id.
	NewTransactionID() string
	// BuildCheckout returns the redirect URL and the form parameters, hash included.
	BuildCheckout(txnID string, order *model.Order, in model.CheckoutInput) (paymentURL string, params map[string]string, err error)
}
