package model

import (
	"net/http"
	"time"
)

// WebhookEvent is one inbound provider callback. It lives for a single request
// and is never persisted.
type WebhookEvent struct {
	Provider   string
	Body       []byte
	Headers    http.Header
	ReceivedAt time.Time
}

// PaymentUpdate is what a verified webhook says happened, mapped onto the
// canonical order vocabulary.
type PaymentUpdate struct {
	Provider          string
	ReplayKey         string // identifies the delivery for duplicate suppression
	TransactionID     string // matched against Order.ExternalRef
	OrderID           string // optional internal order id carried by the provider
	ProviderPaymentID string
	ProviderStatus    string
	Status            OrderStatus
	AmountMinor       int64
	AmountReported    bool // false when the callback carried no amount
	Currency          string
}

// ReconcileResult describes what the reconciler did with an update.
type ReconcileResult struct {
	OrderID   string
	Status    OrderStatus
	Applied   bool // the order row changed
	Duplicate bool // the update had already been applied
}

// CheckoutInput carries the buyer details for a hosted checkout.
type CheckoutInput struct {
	Amount      float64 // major currency units, as entered on the dashboard
	ProductInfo string
	FirstName   string
	Email       string
	Phone       string
	UserID      string
	Plan        Plan
	Origin      string // dashboard origin, used for return URLs
}

// CheckoutSession is the provider form the browser must post.
type CheckoutSession struct {
	PaymentURL string
	Params     map[string]string
	OrderID    string
}
