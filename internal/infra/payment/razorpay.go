package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"hosting-payments/internal/config"
	"hosting-payments/internal/domain"
	"hosting-payments/internal/domain/model"
	"hosting-payments/internal/domain/ports/adapter"
)

const (
	ProviderRazorpay = "razorpay"

	RazorpaySignatureHeader = "X-Razorpay-Signature"
	RazorpayEventIDHeader   = "X-Razorpay-Event-Id"

	RazorpayEventPaymentCaptured = "payment.captured"
	RazorpayEventPaymentFailed   = "payment.failed"
)

var _ adapter.WebhookProvider = (*Razorpay)(nil)

// Razorpay verifies Razorpay webhooks signed with the dashboard webhook secret.
type Razorpay struct {
	cfg config.RazorpayConfig
}

func NewRazorpay(cfg config.RazorpayConfig) *Razorpay {
	return &Razorpay{cfg: cfg}
}

func (r *Razorpay) Name() string { return ProviderRazorpay }

// RazorpaySignature is the hex HMAC-SHA256 of body under secret.
func RazorpaySignature(secret string, body []byte) string {
	return hmacSHA256Hex(secret, body)
}

func (r *Razorpay) Verify(ev *model.WebhookEvent) (bool, error) {
	if strings.TrimSpace(r.cfg.WebhookSecret) == "" {
		return false, fmt.Errorf("%w: razorpay webhook secret missing", domain.ErrConfiguration)
	}
	got := r.Signature(ev)
	if got == "" {
		return false, nil
	}
	return equalHex(RazorpaySignature(r.cfg.WebhookSecret, ev.Body), got, false), nil
}

func (r *Razorpay) Signature(ev *model.WebhookEvent) string {
	if ev.Headers == nil {
		return ""
	}
	return ev.Headers.Get(RazorpaySignatureHeader)
}

// MapRazorpayEvent maps a Razorpay event name onto the canonical order status.
func MapRazorpayEvent(event string) model.OrderStatus {
	switch event {
	case RazorpayEventPaymentCaptured:
		return model.OrderStatusPaid
	case RazorpayEventPaymentFailed:
		return model.OrderStatusFailed
	default:
		return model.OrderStatusPending
	}
}

type razorpayPaymentEntity struct {
	ID       string          `json:"id"`
	OrderID  string          `json:"order_id"`
	Amount   *int64          `json:"amount"`
	Currency string          `json:"currency"`
	Status   string          `json:"status"`
	Notes    json.RawMessage `json:"notes"`
}

type razorpayEnvelope struct {
	Event     string `json:"event"`
	AccountID string `json:"account_id"`
	CreatedAt int64  `json:"created_at"`
	Payload   struct {
		Payment struct {
			Entity razorpayPaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// notes is an object when set and an empty array when not.
func (e razorpayPaymentEntity) note(key string) string {
	raw := bytes.TrimSpace(e.Notes)
	if len(raw) == 0 || raw[0] != '{' {
		return ""
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func (e razorpayPaymentEntity) amount() int64 {
	if e.Amount == nil {
		return 0
	}
	return *e.Amount
}

func (r *Razorpay) Extract(ev *model.WebhookEvent) (*model.PaymentUpdate, error) {
	var env razorpayEnvelope
	if err := json.Unmarshal(ev.Body, &env); err != nil {
		return nil, fmt.Errorf("%w: razorpay payload: %v", domain.ErrInvalidArgument, err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("%w: razorpay payload without event", domain.ErrInvalidArgument)
	}
	entity := env.Payload.Payment.Entity
	status := MapRazorpayEvent(env.Event)
	orderID := entity.note("order_id")
	if status != model.OrderStatusPending && entity.OrderID == "" && orderID == "" {
		return nil, fmt.Errorf("%w: razorpay %s without order reference", domain.ErrInvalidArgument, env.Event)
	}

	replayKey := ""
	if ev.Headers != nil {
		replayKey = ev.Headers.Get(RazorpayEventIDHeader)
	}
	if replayKey == "" {
		replayKey = env.Event + ":" + entity.ID
	}
	return &model.PaymentUpdate{
		Provider:          ProviderRazorpay,
		ReplayKey:         ProviderRazorpay + ":" + replayKey,
		TransactionID:     entity.OrderID,
		OrderID:           orderID,
		ProviderPaymentID: entity.ID,
		ProviderStatus:    env.Event,
		Status:            status,
		AmountMinor:       entity.amount(),
		AmountReported:    entity.Amount != nil,
		Currency:          strings.ToUpper(entity.Currency),
	}, nil
}
