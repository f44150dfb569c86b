//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/rs/zerolog"

	"hosting-payments/internal/config"
	"hosting-payments/internal/domain/model"
	"hosting-payments/internal/domain/ports/repository"
	"hosting-payments/internal/infra/db/memstore"
	"hosting-payments/internal/infra/payment"
	"hosting-payments/internal/usecase"
)

const (
	testKey            = "gtKFFx"
	testSalt           = "eCwWELxi"
	testRazorpaySecret = "whsec_test"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func testPaymentConfig() config.PaymentConfig {
	return config.PaymentConfig{
		Currency: "INR",
		PayU: config.PayUConfig{
			MerchantKey:  testKey,
			MerchantSalt: testSalt,
			Mode:         config.PayUModeTest,
			ReverseHash:  config.PayUReverseHashSHA512,
		},
		Razorpay: config.RazorpayConfig{WebhookSecret: testRazorpaySecret},
	}
}

type testEnv struct {
	store    *memstore.Store
	orders   *memstore.OrderRepo
	profiles *memstore.ProfileRepo
	notes    *memstore.NotificationRepo
	activity *memstore.ActivityLogRepo
	ledger   *memstore.ReplayLedger

	payu      *payment.PayU
	reconcile usecase.ReconcileUseCase
	webhook   usecase.WebhookUseCase
	checkout  usecase.CheckoutUseCase
}

type envOption func(*usecase.ReconcileRepos)

// withProfiles wraps the profile store seen by the reconciler.
func withProfiles(wrap func(repository.ProfileRepository) repository.ProfileRepository) envOption {
	return func(r *usecase.ReconcileRepos) { r.Profiles = wrap(r.Profiles) }
}

// withNotifications swaps the notification store seen by the reconciler.
func withNotifications(n repository.NotificationRepository) envOption {
	return func(r *usecase.ReconcileRepos) { r.Notifications = n }
}

func newTestEnv(t *testing.T, cfg config.PaymentConfig, opts ...envOption) *testEnv {
	t.Helper()
	s := memstore.New()
	e := &testEnv{
		store:    s,
		orders:   memstore.NewOrderRepo(s),
		profiles: memstore.NewProfileRepo(s),
		notes:    memstore.NewNotificationRepo(s),
		activity: memstore.NewActivityLogRepo(s),
		ledger:   memstore.NewReplayLedger(),
		payu:     payment.NewPayU(cfg.PayU),
	}
	repos := usecase.ReconcileRepos{
		Tx:            s,
		Orders:        e.orders,
		Profiles:      e.profiles,
		Notifications: e.notes,
		Activity:      e.activity,
	}
	for _, o := range opts {
		o(&repos)
	}
	e.reconcile = usecase.NewReconcileUseCase(repos, e.ledger, 0, newTestLogger())
	e.webhook = usecase.NewWebhookUseCase(payment.NewDefaultRegistry(cfg), e.reconcile, newTestLogger())
	e.checkout = usecase.NewCheckoutUseCase(e.payu, s, e.orders, e.profiles, e.activity, cfg.Currency, newTestLogger())
	return e
}

// seedOrder stores a pending PayU-style order for user-1.
func (e *testEnv) seedOrder(t *testing.T, plan model.Plan, amountMinor int64, ref string) *model.Order {
	t.Helper()
	o, err := model.NewOrder("user-1", plan, amountMinor, "INR", payment.ProviderPayU, ref)
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if err := e.orders.Create(context.Background(), nil, o); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return o
}

func (e *testEnv) mustOrder(t *testing.T, id string) *model.Order {
	t.Helper()
	o, err := e.orders.FindByID(context.Background(), nil, id)
	if err != nil {
		t.Fatalf("FindByID(%s): %v", id, err)
	}
	return o
}

func (e *testEnv) notifications(t *testing.T, userID string) []*model.Notification {
	t.Helper()
	list, err := e.notes.ListByUser(context.Background(), nil, userID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	return list
}

// payuCallback builds a PayU server callback for o, signed with the reverse hash.
func (e *testEnv) payuCallback(o *model.Order, status, mihpayid string) *model.WebhookEvent {
	f := payment.PayUFields{
		Key:         testKey,
		TxnID:       *o.ExternalRef,
		Amount:      payment.FormatMinorUnits(o.AmountMinor),
		ProductInfo: "Business Hosting",
		FirstName:   "Asha",
		Email:       "asha@example.com",
		UDF:         [5]string{o.ID, o.UserID, string(o.Plan)},
		Status:      status,
	}
	form := url.Values{}
	form.Set("key", f.Key)
	form.Set("txnid", f.TxnID)
	form.Set("amount", f.Amount)
	form.Set("productinfo", f.ProductInfo)
	form.Set("firstname", f.FirstName)
	form.Set("email", f.Email)
	form.Set("udf1", f.UDF[0])
	form.Set("udf2", f.UDF[1])
	form.Set("udf3", f.UDF[2])
	form.Set("status", status)
	form.Set("mihpayid", mihpayid)
	form.Set("hash", e.payu.ReverseHash(f))
	return &model.WebhookEvent{Provider: payment.ProviderPayU, Body: []byte(form.Encode()), Headers: http.Header{}}
}

// razorpayEvent builds a signed Razorpay webhook referencing o through notes.order_id.
func razorpayEvent(o *model.Order, event, paymentID string, amount int64, secret string) *model.WebhookEvent {
	body := fmt.Sprintf(
		`{"entity":"event","event":%q,"payload":{"payment":{"entity":{"id":%q,"amount":%d,"currency":"INR","order_id":"order_rzp_1","notes":{"order_id":%q}}}}}`,
		event, paymentID, amount, o.ID,
	)
	h := http.Header{}
	h.Set(payment.RazorpaySignatureHeader, payment.RazorpaySignature(secret, []byte(body)))
	return &model.WebhookEvent{Provider: payment.ProviderRazorpay, Body: []byte(body), Headers: h}
}
