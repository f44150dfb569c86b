//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
database:
  url: postgres://u:p@localhost:5432/db
redis:
  url: localhost:6379
auth:
  jwt_secret: s3cret
payment:
  payu:
    merchant_key: key
    merchant_salt: ${TEST_PAYU_SALT}
    mode: TEST
  razorpay:
    webhook_secret: whsec
`

func TestParse_DefaultsAndEnvExpansion(t *testing.T) {
	t.Setenv("TEST_PAYU_SALT", "salty")

	cfg, err := Parse([]byte(baseYAML), false)
	require.NoError(t, err)

	assert.Equal(t, "salty", cfg.Payment.PayU.MerchantSalt)
	assert.Equal(t, PayUModeTest, cfg.Payment.PayU.Mode)
	assert.Equal(t, PayUReverseHashHMACSHA512, cfg.Payment.PayU.ReverseHash)
	assert.Equal(t, "INR", cfg.Payment.Currency)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, 72*time.Hour, cfg.Webhook.ReplayTTL)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10*time.Minute, cfg.Cache.ProfileTTL)
	assert.Zero(t, cfg.Checkout.RateLimit)
	assert.Zero(t, cfg.Checkout.RateWindow)
}

func TestParse_CheckoutRateWindowDefaultsWithLimit(t *testing.T) {
	cfg, err := Parse([]byte("checkout:\n  rate_limit: 5\npayment:\n  payu:\n    mode: test\n"), true)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Checkout.RateLimit)
	assert.Equal(t, time.Minute, cfg.Checkout.RateWindow)

	cfg, err = Parse([]byte("checkout:\n  rate_limit: 5\n  rate_window: 30s\ncache:\n  profile_ttl: 2m\npayment:\n  payu:\n    mode: test\n"), true)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Checkout.RateWindow)
	assert.Equal(t, 2*time.Minute, cfg.Cache.ProfileTTL)
}

func TestParse_MissingSaltIsNotAStartupError(t *testing.T) {
	t.Setenv("TEST_PAYU_SALT", "")

	cfg, err := Parse([]byte(baseYAML), false)
	require.NoError(t, err)
	assert.Empty(t, cfg.Payment.PayU.MerchantSalt)
}

func TestParse_Validation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		dev  bool
	}{
		{"payu mode missing", "payment:\n  payu:\n    merchant_key: k\n", true},
		{"payu mode invalid", "payment:\n  payu:\n    mode: sandbox\n", true},
		{"reverse hash invalid", "payment:\n  payu:\n    mode: live\n    reverse_hash: md5\n", true},
		{"database required outside dev", "payment:\n  payu:\n    mode: live\n", false},
		{"port out of range", "server:\n  port: 70000\npayment:\n  payu:\n    mode: live\n", true},
		{"negative rate limit", "checkout:\n  rate_limit: -1\npayment:\n  payu:\n    mode: live\n", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml), tc.dev)
			assert.Error(t, err)
		})
	}
}

func TestParse_DevSkipsInfrastructure(t *testing.T) {
	cfg, err := Parse([]byte("payment:\n  payu:\n    mode: live\n"), true)
	require.NoError(t, err)
	assert.True(t, cfg.Runtime.Dev)
	assert.Equal(t, "https://secure.payu.in/_payment", cfg.Payment.PayU.PaymentURL())
}

func TestParse_AuthRequiredUnlessDisabled(t *testing.T) {
	y := "database:\n  url: x\nredis:\n  url: y\npayment:\n  payu:\n    mode: test\n"
	_, err := Parse([]byte(y), false)
	require.Error(t, err)

	cfg, err := Parse([]byte(y+"auth:\n  disabled: true\n"), false)
	require.NoError(t, err)
	assert.True(t, cfg.Auth.Disabled)
	assert.Equal(t, "https://test.payu.in/_payment", cfg.Payment.PayU.PaymentURL())
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("TEST_PAYU_SALT", "from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(baseYAML), 0o600))

	cfg, err := LoadConfig(path, false)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Payment.PayU.MerchantSalt)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), false)
	assert.Error(t, err)
}
