// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"hosting-payments/internal/config"
	"hosting-payments/internal/domain/ports/repository"
	"hosting-payments/internal/infra/api"
	"hosting-payments/internal/infra/db/memstore"
	pg "hosting-payments/internal/infra/db/postgres"
	"hosting-payments/internal/infra/logging"
	"hosting-payments/internal/infra/metrics"
	"hosting-payments/internal/infra/payment"
	red "hosting-payments/internal/infra/redis"
	"hosting-payments/internal/usecase"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

// stores bundles the persistence backends the use cases run on.
type stores struct {
	tm            repository.TransactionManager
	orders        repository.OrderRepository
	profiles      repository.ProfileRepository
	notifications repository.NotificationRepository
	activity      repository.ActivityLogRepository
	ledger        repository.ReplayLedger
	limiter       api.RateLimiter
	close         func()
}

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "run against in-memory stores (no Postgres/Redis)")
	flag.Parse()

	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("dotenv: %v", err)
	}

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("service stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	var (
		st  *stores
		err error
	)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] in-memory stores; data is lost on exit")
		st = newMemoryStores()
	} else {
		st, err = newStores(ctx, cfg, logger)
		if err != nil {
			return err
		}
	}
	defer st.close()

	// ---- Providers ----
	registry := payment.NewDefaultRegistry(cfg.Payment)
	payu := payment.NewPayU(cfg.Payment.PayU)
	if err := payu.Ready(); err != nil {
		// not fatal: checkout and PayU webhooks answer 500 until configured
		logger.Warn().Err(err).Msg("payu is not configured")
	}
	if cfg.Payment.Razorpay.WebhookSecret == "" {
		logger.Warn().Msg("razorpay webhook secret is not configured")
	}

	// ---- Use cases ----
	reconcileUC := usecase.NewReconcileUseCase(usecase.ReconcileRepos{
		Tx:            st.tm,
		Orders:        st.orders,
		Profiles:      st.profiles,
		Notifications: st.notifications,
		Activity:      st.activity,
	}, st.ledger, cfg.Webhook.ReplayTTL, logger)
	webhookUC := usecase.NewWebhookUseCase(registry, reconcileUC, logger)
	checkoutUC := usecase.NewCheckoutUseCase(payu, st.tm, st.orders, st.profiles, st.activity, cfg.Payment.Currency, logger)
	orderUC := usecase.NewOrderUseCase(st.orders)

	// ---- HTTP ----
	auth := api.NewAuthManager(cfg.Auth)
	if auth.Disabled() {
		logger.Warn().Msg("auth disabled: checkout and order endpoints trust the userId parameter")
	}
	srv := api.NewServer(cfg, webhookUC, checkoutUC, orderUC, auth, st.limiter, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Strs("providers", registry.Names()).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Info().Msg("http server stopped")
	return nil
}

func newMemoryStores() *stores {
	s := memstore.New()
	return &stores{
		tm:            s,
		orders:        memstore.NewOrderRepo(s),
		profiles:      memstore.NewProfileRepo(s),
		notifications: memstore.NewNotificationRepo(s),
		activity:      memstore.NewActivityLogRepo(s),
		ledger:        memstore.NewReplayLedger(),
		limiter:       memstore.NewRateLimiter(),
		close:         func() {},
	}
}

func newStores(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*stores, error) {
	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}

	go observePool(ctx, pool.Stat, 15*time.Second)

	profiles := pg.NewProfileRepoCacheDecorator(pg.NewProfileRepo(pool), redisClient, cfg.Cache.ProfileTTL, logger)
	return &stores{
		tm:            pg.NewTxManager(pool),
		orders:        pg.NewOrderRepo(pool),
		profiles:      profiles,
		notifications: pg.NewNotificationRepo(pool),
		activity:      pg.NewActivityLogRepo(pool),
		ledger:        red.NewReplayLedger(redisClient),
		limiter:       red.NewRateLimiter(redisClient),
		close: func() {
			_ = redisClient.Close()
			pool.Close()
		},
	}, nil
}

// observePool copies pool statistics into the metrics gauges until ctx ends.
func observePool(ctx context.Context, stat func() *pgxpool.Stat, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		metrics.ObservePool(stat())
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
