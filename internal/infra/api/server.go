package api

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"hosting-payments/internal/config"
	"hosting-payments/internal/usecase"
)

// RateLimiter counts hits per key inside a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Server exposes the payment webhook, checkout and order query endpoints.
type Server struct {
	webhooks usecase.WebhookUseCase
	checkout usecase.CheckoutUseCase
	orders   usecase.OrderUseCase
	auth     *AuthManager
	limiter  RateLimiter
	validate *validator.Validate
	log      *zerolog.Logger

	requestTimeout    time.Duration
	maxBodyBytes      int64
	failOnPersistence bool
	checkoutLimit     int
	checkoutWindow    time.Duration
	metricsPath       string
}

func NewServer(
	cfg *config.Config,
	webhooks usecase.WebhookUseCase,
	checkout usecase.CheckoutUseCase,
	orders usecase.OrderUseCase,
	auth *AuthManager,
	limiter RateLimiter,
	logger *zerolog.Logger,
) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	s := &Server{
		webhooks:          webhooks,
		checkout:          checkout,
		orders:            orders,
		auth:              auth,
		limiter:           limiter,
		validate:          newValidator(),
		log:               logger,
		requestTimeout:    cfg.Server.RequestTimeout,
		maxBodyBytes:      cfg.Server.MaxBodyBytes,
		failOnPersistence: cfg.Webhook.FailOnPersistenceError,
		checkoutLimit:     cfg.Checkout.RateLimit,
		checkoutWindow:    cfg.Checkout.RateWindow,
	}
	if cfg.Metrics.Enabled {
		s.metricsPath = cfg.Metrics.Path
	}
	return s
}

// newValidator reports json field names in validation errors.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Router builds the chi router wrapped in the middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metricsPath != "" {
		r.Handle(s.metricsPath, promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/payment-webhook", s.handleWebhook)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Require)
			r.Post("/checkout/payu", s.handleCheckout)
			r.Get("/orders", s.handleListOrders)
			r.Get("/orders/{id}", s.handleGetOrder)
		})
	})
	return Chain(r,
		TraceID(),
		Recover(s.log),
		RequestLog(s.log),
		Timeout(s.requestTimeout),
		MaxBody(s.maxBodyBytes),
	)
}
