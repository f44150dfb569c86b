//go:build !integration

package model

import (
	"errors"
	"testing"

	"hosting-payments/internal/domain"
)

func TestNewOrder(t *testing.T) {
	t.Run("should create a pending order", func(t *testing.T) {
		o, err := NewOrder("user-1", PlanBusiness, 999, "inr", "payu", "TXN1")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if o.ID == "" {
			t.Error("expected order ID to be non-empty")
		}
		if o.Status != OrderStatusPending {
			t.Errorf("expected status 'pending', but got '%s'", o.Status)
		}
		if o.Currency != "INR" {
			t.Errorf("expected currency to be upper-cased, got %s", o.Currency)
		}
		if o.BillingCycle != DefaultBillingCycle {
			t.Errorf("expected billing cycle %s, got %s", DefaultBillingCycle, o.BillingCycle)
		}
		if o.ExternalRef == nil || *o.ExternalRef != "TXN1" {
			t.Errorf("expected external ref TXN1, got %v", o.ExternalRef)
		}
		if o.PaidAt != nil {
			t.Error("expected paid_at to be unset")
		}
	})

	t.Run("should leave external ref nil when empty", func(t *testing.T) {
		o, err := NewOrder("user-1", PlanStarter, 100, "USD", "razorpay", "")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if o.ExternalRef != nil {
			t.Errorf("expected nil external ref, got %q", *o.ExternalRef)
		}
	})

	cases := []struct {
		name   string
		userID string
		plan   Plan
		amount int64
		cur    string
	}{
		{"empty user", "", PlanStarter, 100, "INR"},
		{"zero amount", "u", PlanStarter, 0, "INR"},
		{"negative amount", "u", PlanStarter, -5, "INR"},
		{"unknown plan", "u", Plan("gold"), 100, "INR"},
		{"empty currency", "u", PlanStarter, 100, " "},
	}
	for _, tc := range cases {
		t.Run("should reject "+tc.name, func(t *testing.T) {
			o, err := NewOrder(tc.userID, tc.plan, tc.amount, tc.cur, "payu", "")
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
			if o != nil {
				t.Error("expected nil order on error")
			}
		})
	}
}

func TestParsePlan(t *testing.T) {
	p, err := ParsePlan("  Business ")
	if err != nil || p != PlanBusiness {
		t.Fatalf("expected business, got %q (%v)", p, err)
	}
	if _, err := ParsePlan("platinum"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	if OrderStatusPending.IsTerminal() {
		t.Error("pending must not be terminal")
	}
	for _, s := range []OrderStatus{OrderStatusPaid, OrderStatusFailed, OrderStatusCanceled} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}
