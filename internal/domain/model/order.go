package model

import (
	"strings"
	"time"

	"hosting-payments/internal/domain"

	"github.com/google/uuid"
)

// Plan is the hosting tier an order buys.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanStarter    Plan = "starter"
	PlanBusiness   Plan = "business"
	PlanEnterprise Plan = "enterprise"
)

// ParsePlan normalises a plan tag and rejects anything outside the known tiers.
func ParsePlan(s string) (Plan, error) {
	switch p := Plan(strings.ToLower(strings.TrimSpace(s))); p {
	case PlanFree, PlanStarter, PlanBusiness, PlanEnterprise:
		return p, nil
	default:
		return "", domain.ErrInvalidArgument
	}
}

// OrderStatus is the canonical, provider-agnostic order status.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"  // checkout initiated, awaiting provider webhook
	OrderStatusPaid     OrderStatus = "paid"     // verified capture
	OrderStatusFailed   OrderStatus = "failed"   // verified failure
	OrderStatusCanceled OrderStatus = "canceled" // never set by webhooks
)

// IsTerminal reports whether no webhook may move the order any further.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusFailed || s == OrderStatusCanceled
}

const DefaultBillingCycle = "monthly"

// Order is one checkout attempt for a plan.
type Order struct {
	ID           string
	UserID       string
	Plan         Plan
	AmountMinor  int64 // minor currency units (cents / paise)
	Currency     string
	Status       OrderStatus
	BillingCycle string
	Provider     string  // e.g. "payu"
	ExternalRef  *string // provider transaction reference (PayU txnid, Razorpay order id)
	CreatedAt    time.Time
	UpdatedAt    time.Time
	PaidAt       *time.Time
}

func (o *Order) IsZero() bool { return o == nil || o.ID == "" }

// NewOrder validates and constructs a pending order.
func NewOrder(userID string, plan Plan, amountMinor int64, currency, provider, externalRef string) (*Order, error) {
	if strings.TrimSpace(userID) == "" || amountMinor <= 0 || strings.TrimSpace(currency) == "" {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := ParsePlan(string(plan)); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	o := &Order{
		ID:           uuid.NewString(),
		UserID:       userID,
		Plan:         plan,
		AmountMinor:  amountMinor,
		Currency:     strings.ToUpper(currency),
		Status:       OrderStatusPending,
		BillingCycle: DefaultBillingCycle,
		Provider:     provider,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if externalRef != "" {
		ref := externalRef
		o.ExternalRef = &ref
	}
	return o, nil
}
