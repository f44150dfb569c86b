package payment

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/oklog/ulid/v2"

	"hosting-payments/internal/config"
	"hosting-payments/internal/domain"
	"hosting-payments/internal/domain/model"
	"hosting-payments/internal/domain/ports/adapter"
)

const ProviderPayU = "payu"

// PayUHashHeader is accepted when the callback omits the hash form field.
const PayUHashHeader = "X-PayU-Hash"

var (
	_ adapter.WebhookProvider  = (*PayU)(nil)
	_ adapter.CheckoutProvider = (*PayU)(nil)
)

// PayUFields are the values that take part in PayU's request and response hashes.
type PayUFields struct {
	Key         string
	TxnID       string
	Amount      string
	ProductInfo string
	FirstName   string
	Email       string
	UDF         [5]string // udf1..udf5
	Status      string    // response only
}

// PayU verifies PayU callbacks and builds hosted-checkout forms.
type PayU struct {
	cfg config.PayUConfig
}

func NewPayU(cfg config.PayUConfig) *PayU {
	return &PayU{cfg: cfg}
}

func (p *PayU) Name() string { return ProviderPayU }

func (p *PayU) Ready() error {
	if strings.TrimSpace(p.cfg.MerchantKey) == "" || strings.TrimSpace(p.cfg.MerchantSalt) == "" {
		return fmt.Errorf("%w: payu merchant key/salt missing", domain.ErrConfiguration)
	}
	return nil
}

// InitiationHash is SHA-512 over
// key|txnid|amount|productinfo|firstname|email|udf1|udf2|udf3|udf4|udf5||||||salt.
func InitiationHash(salt string, f PayUFields) string {
	return sha512Hex(pipeJoin(
		f.Key, f.TxnID, f.Amount, f.ProductInfo, f.FirstName, f.Email,
		f.UDF[0], f.UDF[1], f.UDF[2], f.UDF[3], f.UDF[4],
		"", "", "", "", "",
		salt,
	))
}

// ReverseHashInput is the response string
// salt|status|||||||udf5|udf4|udf3|udf2|udf1|email|firstname|productinfo|amount|txnid|key.
func ReverseHashInput(salt string, f PayUFields) string {
	return pipeJoin(
		salt, f.Status,
		"", "", "", "", "",
		f.UDF[4], f.UDF[3], f.UDF[2], f.UDF[1], f.UDF[0],
		f.Email, f.FirstName, f.ProductInfo, f.Amount, f.TxnID, f.Key,
	)
}

// ReverseHash digests the response string with HMAC-SHA512 keyed by the salt,
// or with plain SHA-512 when the sha512 scheme is configured.
func (p *PayU) ReverseHash(f PayUFields) string {
	in := ReverseHashInput(p.cfg.MerchantSalt, f)
	if p.cfg.ReverseHash == config.PayUReverseHashSHA512 {
		return sha512Hex(in)
	}
	return hmacSHA512Hex(p.cfg.MerchantSalt, []byte(in))
}

func payuFieldsFromForm(form url.Values) PayUFields {
	return PayUFields{
		Key:         form.Get("key"),
		TxnID:       form.Get("txnid"),
		Amount:      form.Get("amount"),
		ProductInfo: form.Get("productinfo"),
		FirstName:   form.Get("firstname"),
		Email:       form.Get("email"),
		UDF: [5]string{
			form.Get("udf1"), form.Get("udf2"), form.Get("udf3"), form.Get("udf4"), form.Get("udf5"),
		},
		Status: form.Get("status"),
	}
}

func (p *PayU) Verify(ev *model.WebhookEvent) (bool, error) {
	if err := p.Ready(); err != nil {
		return false, err
	}
	form, err := url.ParseQuery(string(ev.Body))
	if err != nil {
		return false, nil
	}
	got := presentedHash(form, ev)
	if got == "" {
		return false, nil
	}
	f := payuFieldsFromForm(form)
	// the key in the hash is ours, whatever the payload claims
	f.Key = p.cfg.MerchantKey
	return equalHex(p.ReverseHash(f), got, true), nil
}

// Signature returns the hash form field, or the hash header as a fallback.
func (p *PayU) Signature(ev *model.WebhookEvent) string {
	form, _ := url.ParseQuery(string(ev.Body))
	return presentedHash(form, ev)
}

func presentedHash(form url.Values, ev *model.WebhookEvent) string {
	if got := form.Get("hash"); got != "" {
		return got
	}
	if ev.Headers != nil {
		return ev.Headers.Get(PayUHashHeader)
	}
	return ""
}

// MapPayUStatus maps PayU's status field onto the canonical order status.
func MapPayUStatus(status string) model.OrderStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success":
		return model.OrderStatusPaid
	case "failure":
		return model.OrderStatusFailed
	default:
		return model.OrderStatusPending
	}
}

func (p *PayU) Extract(ev *model.WebhookEvent) (*model.PaymentUpdate, error) {
	form, err := url.ParseQuery(string(ev.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: payu form: %v", domain.ErrInvalidArgument, err)
	}
	f := payuFieldsFromForm(form)
	if f.TxnID == "" || f.Status == "" {
		return nil, fmt.Errorf("%w: payu callback without txnid/status", domain.ErrInvalidArgument)
	}
	var amount int64
	reported := f.Amount != ""
	if reported {
		if amount, err = ParseMinorUnits(f.Amount); err != nil {
			return nil, err
		}
	}
	mihpayid := form.Get("mihpayid")
	return &model.PaymentUpdate{
		Provider:          ProviderPayU,
		ReplayKey:         strings.Join([]string{ProviderPayU, f.TxnID, mihpayid, strings.ToLower(f.Status)}, ":"),
		TransactionID:     f.TxnID,
		OrderID:           f.UDF[0],
		ProviderPaymentID: mihpayid,
		ProviderStatus:    f.Status,
		Status:            MapPayUStatus(f.Status),
		AmountMinor:       amount,
		AmountReported:    reported,
	}, nil
}

// NewTransactionID returns "TXN" plus the leading 22 characters of a ULID:
// the full millisecond timestamp and 60 random bits, within PayU's 25 char limit.
func (p *PayU) NewTransactionID() string {
	return "TXN" + ulid.Make().String()[:22]
}

func (p *PayU) BuildCheckout(txnID string, order *model.Order, in model.CheckoutInput) (string, map[string]string, error) {
	if err := p.Ready(); err != nil {
		return "", nil, err
	}
	if order.IsZero() || txnID == "" {
		return "", nil, fmt.Errorf("%w: checkout needs an order and txnid", domain.ErrInvalidArgument)
	}
	f := PayUFields{
		Key:         p.cfg.MerchantKey,
		TxnID:       txnID,
		Amount:      FormatMinorUnits(order.AmountMinor),
		ProductInfo: in.ProductInfo,
		FirstName:   in.FirstName,
		Email:       in.Email,
		UDF:         [5]string{order.ID, order.UserID, string(order.Plan)},
	}
	params := map[string]string{
		"key":         f.Key,
		"txnid":       f.TxnID,
		"amount":      f.Amount,
		"productinfo": f.ProductInfo,
		"firstname":   f.FirstName,
		"email":       f.Email,
		"phone":       in.Phone,
		"surl":        returnURL(p.cfg.SuccessURL, in.Origin, "success"),
		"furl":        returnURL(p.cfg.FailureURL, in.Origin, "failed"),
		"udf1":        f.UDF[0],
		"udf2":        f.UDF[1],
		"udf3":        f.UDF[2],
		"hash":        InitiationHash(p.cfg.MerchantSalt, f),
	}
	return p.cfg.PaymentURL(), params, nil
}

func returnURL(configured, origin, outcome string) string {
	if configured != "" {
		return configured
	}
	return strings.TrimRight(origin, "/") + "/billing?payment=" + outcome
}
