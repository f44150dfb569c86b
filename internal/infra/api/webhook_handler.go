package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"hosting-payments/internal/domain"
	"hosting-payments/internal/domain/model"
	"hosting-payments/internal/infra/logging"
	"hosting-payments/internal/infra/metrics"
	"hosting-payments/internal/usecase"
)

type webhookResponse struct {
	OK        bool   `json:"ok"`
	Verified  bool   `json:"verified"`
	Provider  string `json:"provider"`
	Status    string `json:"status,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Error     string `json:"error,omitempty"`
}

// handleWebhook serves POST /api/payment-webhook?provider=razorpay|payu.
// The body is read raw because signatures cover the exact bytes.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	provider := r.URL.Query().Get("provider")
	log := logging.With(r.Context(), s.log)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		metrics.ObserveWebhook("", "bad_request", time.Since(start))
		writeJSON(w, status, webhookResponse{Provider: provider, Error: "unreadable body"})
		return
	}

	ev := &model.WebhookEvent{
		Provider:   provider,
		Body:       body,
		Headers:    r.Header.Clone(),
		ReceivedAt: time.Now().UTC(),
	}
	out, err := s.webhooks.Handle(r.Context(), ev)

	resp := webhookResponse{Provider: provider}
	if out != nil {
		resp.Provider = out.Provider
		resp.Verified = out.Verified
		if out.Result != nil {
			resp.Status = string(out.Result.Status)
			resp.Duplicate = out.Result.Duplicate
		}
	}
	code, result := s.webhookStatus(err, out)
	resp.OK = err == nil
	if err != nil {
		resp.Error = publicMessage(err, statusFor(err))
	}

	l := log.With().Str("provider", resp.Provider).Str("result", result).Int("status", code).Logger()
	switch {
	case code >= http.StatusInternalServerError:
		l.Error().Err(err).Msg("payment webhook failed")
	case err != nil:
		l.Warn().Err(err).Msg("payment webhook rejected")
	default:
		l.Info().Bool("duplicate", resp.Duplicate).Str("order_status", resp.Status).Msg("payment webhook handled")
	}

	metrics.ObserveWebhook(metricProvider(out), result, time.Since(start))
	writeJSON(w, code, resp)
}

// webhookStatus picks the HTTP status and metric label for a delivery.
// Verified deliveries that cannot be matched are acknowledged so the provider
// stops retrying an event that will never apply.
func (s *Server) webhookStatus(err error, out *usecase.WebhookOutcome) (int, string) {
	switch {
	case err == nil:
		if out != nil && out.Result != nil {
			if out.Result.Duplicate {
				return http.StatusOK, "duplicate"
			}
			if out.Result.Status == model.OrderStatusPending {
				return http.StatusOK, "ignored"
			}
		}
		return http.StatusOK, "processed"
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusInternalServerError, "misconfigured"
	case errors.Is(err, domain.ErrSignatureInvalid):
		return http.StatusUnauthorized, "unverified"
	case errors.Is(err, domain.ErrUnknownProvider), errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrAmountMismatch):
		return http.StatusOK, "ignored"
	case errors.Is(err, domain.ErrPersistence):
		if s.failOnPersistence {
			return http.StatusInternalServerError, "persistence_error"
		}
		return http.StatusOK, "persistence_error"
	default:
		return http.StatusInternalServerError, "error"
	}
}

// metricProvider labels a delivery with the resolved provider only; the raw
// query value is caller-controlled.
func metricProvider(out *usecase.WebhookOutcome) string {
	if out == nil {
		return ""
	}
	return out.Provider
}
