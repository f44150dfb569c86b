//go:build !integration

package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeClient is an in-memory RedisClient; it ignores expirations.
type fakeClient struct {
	RedisClient
	mu       sync.Mutex
	vals     map[string]interface{}
	counts   map[string]int64
	expires  map[string]time.Duration
	setNXErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		vals:    map[string]interface{}{},
		counts:  map[string]int64{},
		expires: map[string]time.Duration{},
	}
}

func (f *fakeClient) SetNX(ctx context.Context, key string, value interface{}, exp time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setNXErr != nil {
		return false, f.setNXErr
	}
	if _, ok := f.vals[key]; ok {
		return false, nil
	}
	f.vals[key] = value
	f.expires[key] = exp
	return true, nil
}

func (f *fakeClient) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.vals, k)
		delete(f.counts, k)
	}
	return nil
}

func (f *fakeClient) Incr(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeClient) Expire(ctx context.Context, key string, exp time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expires[key] = exp
	return nil
}

func TestReplayLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("should claim a key once", func(t *testing.T) {
		cli := newFakeClient()
		l := NewReplayLedger(cli)

		ok, err := l.Claim(ctx, "razorpay:evt_1", time.Hour)
		if err != nil || !ok {
			t.Fatalf("first claim = %v, %v", ok, err)
		}
		ok, err = l.Claim(ctx, "razorpay:evt_1", time.Hour)
		if err != nil || ok {
			t.Fatalf("second claim = %v, %v", ok, err)
		}
		if got := cli.expires[replayPrefix+"razorpay:evt_1"]; got != time.Hour {
			t.Errorf("expected ttl 1h, got %v", got)
		}
	})

	t.Run("should allow a new claim after release", func(t *testing.T) {
		l := NewReplayLedger(newFakeClient())
		_, _ = l.Claim(ctx, "k", time.Minute)
		if err := l.Release(ctx, "k"); err != nil {
			t.Fatalf("Release: %v", err)
		}
		if ok, _ := l.Claim(ctx, "k", time.Minute); !ok {
			t.Fatal("expected claim after release to succeed")
		}
	})

	t.Run("should surface redis errors", func(t *testing.T) {
		cli := newFakeClient()
		cli.setNXErr = errors.New("connection refused")
		ok, err := NewReplayLedger(cli).Claim(ctx, "k", time.Minute)
		if err == nil || ok {
			t.Fatalf("expected error, got %v, %v", ok, err)
		}
	})
}

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()
	cli := newFakeClient()
	rl := NewRateLimiter(cli)
	key := CheckoutKey("user-1")

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("call %d = %v, %v", i+1, ok, err)
		}
	}
	if ok, _ := rl.Allow(ctx, key, 3, time.Minute); ok {
		t.Fatal("fourth call should be limited")
	}
	if cli.expires[key] != time.Minute {
		t.Errorf("window not applied, got %v", cli.expires[key])
	}
}
