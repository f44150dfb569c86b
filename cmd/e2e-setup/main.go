package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"hosting-payments/internal/config"
	"hosting-payments/internal/domain/model"
	"hosting-payments/internal/infra/api"
	"hosting-payments/internal/infra/db/postgres"
	"hosting-payments/internal/infra/redis"
)

// This script resets Postgres and Redis to a predictable state for manual
// end-to-end testing and prints a dashboard token for the seeded user.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	userID := flag.String("user", "00000000-0000-0000-0000-000000000001", "profile id to seed")
	email := flag.String("email", "e2e@example.com", "profile email")
	ttl := flag.Duration("ttl", 24*time.Hour, "lifetime of the printed token")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	// --- Connect to Postgres ---
	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 2)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()

	// --- Connect to Redis ---
	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer redisClient.Close()

	log.Println("--- Starting E2E Environment Setup ---")

	log.Println("[1/4] Wiping Redis (replay ledger, rate limits, profile cache)...")
	if err := redisClient.FlushDB(ctx); err != nil {
		log.Fatalf("failed to flush redis: %v", err)
	}

	log.Println("[2/4] Wiping payment tables...")
	if _, err := pool.Exec(ctx, `TRUNCATE orders, notifications, activity_log, profiles;`); err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	log.Printf("[3/4] Seeding profile %s <%s>...", *userID, *email)
	profiles := postgres.NewProfileRepo(pool)
	if err := profiles.Upsert(ctx, nil, &model.Profile{ID: *userID, Email: *email, SubscriptionPlan: model.PlanFree}); err != nil {
		log.Fatalf("failed to seed profile: %v", err)
	}

	log.Println("[4/4] Minting a dashboard token...")
	if cfg.Auth.Disabled {
		log.Println("auth is disabled; pass userId in the request body instead")
	} else {
		tok, err := api.NewAuthManager(cfg.Auth).Mint(*userID, *ttl)
		if err != nil {
			log.Fatalf("failed to mint token: %v", err)
		}
		fmt.Println(tok)
		fmt.Printf("\ncurl -s -X POST http://localhost:%d/api/checkout/payu \\\n"+
			"  -H 'Authorization: Bearer %s' -H 'Content-Type: application/json' \\\n"+
			"  -d '{\"amount\":9.99,\"productInfo\":\"Business Hosting\",\"firstName\":\"E2E\",\"plan\":\"business\"}'\n",
			cfg.Server.Port, tok)
	}

	log.Println("--- E2E Environment Setup Complete ---")
}
