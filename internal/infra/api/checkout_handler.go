package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"hosting-payments/internal/domain"
	"hosting-payments/internal/domain/model"
	"hosting-payments/internal/infra/logging"
	"hosting-payments/internal/infra/metrics"
	"hosting-payments/internal/infra/payment"
	red "hosting-payments/internal/infra/redis"
)

type checkoutRequest struct {
	Amount      float64 `json:"amount" validate:"gt=0"`
	ProductInfo string  `json:"productInfo" validate:"required,max=100"`
	FirstName   string  `json:"firstName" validate:"required,max=60"`
	Email       string  `json:"email" validate:"omitempty,email,max=100"`
	Phone       string  `json:"phone" validate:"omitempty,max=20"`
	UserID      string  `json:"userId" validate:"omitempty,max=64"`
	Plan        string  `json:"plan" validate:"required,oneof=starter business enterprise"`
}

type checkoutResponse struct {
	PaymentURL string            `json:"paymentUrl"`
	Params     map[string]string `json:"params"`
	OrderID    string            `json:"orderId"`
}

// handleCheckout serves POST /api/checkout/payu.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logging.With(ctx, s.log)

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Plan = strings.ToLower(strings.TrimSpace(req.Plan))
	req.Email = strings.TrimSpace(req.Email)

	userID, err := s.requestUser(r, req.UserID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	req.UserID = userID

	if err := s.validate.Struct(req); err != nil {
		metrics.IncCheckout(payment.ProviderPayU, "", "invalid")
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	if s.limiter != nil && s.checkoutLimit > 0 {
		ok, err := s.limiter.Allow(ctx, red.CheckoutKey(userID), s.checkoutLimit, s.checkoutWindow)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("checkout rate limiter unavailable")
		case !ok:
			metrics.IncCheckout(payment.ProviderPayU, req.Plan, "rate_limited")
			writeError(w, http.StatusTooManyRequests, "too many checkout attempts, try again later")
			return
		}
	}

	sess, err := s.checkout.Initiate(ctx, model.CheckoutInput{
		Amount:      req.Amount,
		ProductInfo: req.ProductInfo,
		FirstName:   req.FirstName,
		Email:       req.Email,
		Phone:       req.Phone,
		UserID:      userID,
		Plan:        model.Plan(req.Plan),
		Origin:      requestOrigin(r),
	})
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Msg("checkout failed")
		}
		writeError(w, status, publicMessage(err, status))
		return
	}

	writeJSON(w, http.StatusOK, checkoutResponse{
		PaymentURL: sess.PaymentURL,
		Params:     sess.Params,
		OrderID:    sess.OrderID,
	})
}

// requestUser resolves the acting user. With auth enabled the token subject wins
// and a different body userId is forbidden; with auth disabled the body is trusted.
func (s *Server) requestUser(r *http.Request, claimed string) (string, error) {
	claimed = strings.TrimSpace(claimed)
	if uid, ok := UserFromContext(r.Context()); ok {
		if claimed != "" && claimed != uid {
			return "", fmt.Errorf("%w: userId does not match the session", domain.ErrForbidden)
		}
		return uid, nil
	}
	if s.auth.Disabled() && claimed != "" {
		return claimed, nil
	}
	return "", fmt.Errorf("%w: userId is required", domain.ErrInvalidArgument)
}

// requestOrigin is the dashboard origin used for default return URLs.
func requestOrigin(r *http.Request) string {
	if o := r.Header.Get("Origin"); o != "" && o != "null" {
		return o
	}
	if ref := r.Header.Get("Referer"); ref != "" {
		if u, err := url.Parse(ref); err == nil && u.Scheme != "" && u.Host != "" {
			return u.Scheme + "://" + u.Host
		}
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return "invalid fields: " + strings.Join(fields, ", ")
}
