// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AuthConfig verifies the dashboard's HS256 access tokens.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Audience  string `yaml:"audience"`
	Disabled  bool   `yaml:"disabled"` // trust userId from the request body; dev only
}

const (
	PayUModeTest = "test"
	PayUModeLive = "live"

	PayUReverseHashSHA512     = "sha512"
	PayUReverseHashHMACSHA512 = "hmac-sha512"
)

type PayUConfig struct {
	MerchantKey  string `yaml:"merchant_key"`
	MerchantSalt string `yaml:"merchant_salt"`
	Mode         string `yaml:"mode"` // test | live, must be explicit
	SuccessURL   string `yaml:"success_url"`
	FailureURL   string `yaml:"failure_url"`
	ReverseHash  string `yaml:"reverse_hash"` // hmac-sha512 (default) | sha512
}

// PaymentURL is the hosted payment page for the configured mode.
func (c PayUConfig) PaymentURL() string {
	if c.Mode == PayUModeLive {
		return "https://secure.payu.in/_payment"
	}
	return "https://test.payu.in/_payment"
}

type RazorpayConfig struct {
	WebhookSecret string `yaml:"webhook_secret"`
}

type PaymentConfig struct {
	Currency string         `yaml:"currency"`
	PayU     PayUConfig     `yaml:"payu"`
	Razorpay RazorpayConfig `yaml:"razorpay"`
}

type WebhookConfig struct {
	ReplayTTL time.Duration `yaml:"replay_ttl"`
	// FailOnPersistenceError answers 500 instead of 200 when a verified event
	// could not be written, so the provider redelivers it.
	FailOnPersistenceError bool `yaml:"fail_on_persistence_error"`
}

// CheckoutConfig bounds how often one user may open a checkout.
type CheckoutConfig struct {
	RateLimit  int           `yaml:"rate_limit"` // 0 disables the limit
	RateWindow time.Duration `yaml:"rate_window"`
}

type CacheConfig struct {
	ProfileTTL time.Duration `yaml:"profile_ttl"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Payment  PaymentConfig  `yaml:"payment"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Checkout CheckoutConfig `yaml:"checkout"`
	Cache    CacheConfig    `yaml:"cache"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the yaml file at path, expanding ${VAR} references from the
// environment so secrets can stay out of the file.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse decodes, defaults and validates raw yaml.
func Parse(raw []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = 1 << 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	if c.Payment.Currency == "" {
		c.Payment.Currency = "INR"
	}
	c.Payment.PayU.Mode = strings.ToLower(strings.TrimSpace(c.Payment.PayU.Mode))
	if c.Payment.PayU.ReverseHash == "" {
		c.Payment.PayU.ReverseHash = PayUReverseHashHMACSHA512
	}
	if c.Webhook.ReplayTTL <= 0 {
		c.Webhook.ReplayTTL = 72 * time.Hour
	}
	if c.Checkout.RateLimit > 0 && c.Checkout.RateWindow <= 0 {
		c.Checkout.RateWindow = time.Minute
	}
	if c.Cache.ProfileTTL <= 0 {
		c.Cache.ProfileTTL = 10 * time.Minute
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// validate checks structure only. Provider secrets are checked when a request
// needs them so that a missing secret fails that request closed.
func (c *Config) validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Payment.PayU.Mode {
	case PayUModeTest, PayUModeLive:
	default:
		return errors.New("payment.payu.mode must be set to \"test\" or \"live\"")
	}
	if c.Checkout.RateLimit < 0 {
		return fmt.Errorf("checkout.rate_limit must not be negative: %d", c.Checkout.RateLimit)
	}
	switch c.Payment.PayU.ReverseHash {
	case PayUReverseHashSHA512, PayUReverseHashHMACSHA512:
	default:
		return fmt.Errorf("payment.payu.reverse_hash: unsupported scheme %q", c.Payment.PayU.ReverseHash)
	}
	if c.Runtime.Dev {
		return nil
	}
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if c.Auth.JWTSecret == "" && !c.Auth.Disabled {
		return errors.New("auth.jwt_secret is required (or set auth.disabled)")
	}
	return nil
}
