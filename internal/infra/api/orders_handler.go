package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"hosting-payments/internal/domain/model"
	"hosting-payments/internal/infra/logging"
)

type orderView struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	Plan         string     `json:"plan"`
	AmountCents  int64      `json:"amountCents"`
	Currency     string     `json:"currency"`
	Status       string     `json:"status"`
	BillingCycle string     `json:"billingCycle,omitempty"`
	Provider     string     `json:"provider,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	PaidAt       *time.Time `json:"paidAt,omitempty"`
}

func toOrderView(o *model.Order) orderView {
	return orderView{
		ID:           o.ID,
		UserID:       o.UserID,
		Plan:         string(o.Plan),
		AmountCents:  o.AmountMinor,
		Currency:     o.Currency,
		Status:       string(o.Status),
		BillingCycle: o.BillingCycle,
		Provider:     o.Provider,
		CreatedAt:    o.CreatedAt,
		PaidAt:       o.PaidAt,
	}
}

// handleListOrders serves GET /api/orders?limit=N.
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := s.requestUser(r, r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
	}

	orders, err := s.orders.List(r.Context(), userID, limit)
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}
	items := make([]orderView, 0, len(orders))
	for _, o := range orders {
		items = append(items, toOrderView(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// handleGetOrder serves GET /api/orders/{id}.
func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := s.requestUser(r, r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	o, err := s.orders.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderView(o))
}

func (s *Server) writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("path", r.URL.Path).Msg("order query failed")
	}
	writeError(w, status, publicMessage(err, status))
}
