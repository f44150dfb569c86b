package repository

import (
	"context"
	"time"
)

// ReplayLedger remembers which webhook deliveries were already taken so that a
// provider redelivery does not fire side effects twice.
type ReplayLedger interface {
	// Claim returns true when key was not seen within ttl and is now held.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release forgets key so a later delivery can be processed again.
	Release(ctx context.Context, key string) error
}
