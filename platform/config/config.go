// Package config loads process settings from the environment (and a .env file
// in development). Consumers depend on the narrow interfaces below rather than
// on *Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// PublicIngestConfig provides rate limits for the unauthenticated telemetry endpoint.
type PublicIngestConfig interface {
	GetPublicRatePerMinute() float64
	GetPublicRateBurst() int
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// LockConfig selects the per-deal lock implementation.
type LockConfig interface {
	GetLockBackend() string
	GetLockTTL() time.Duration
	GetRedisURL() string
}

// SweepConfig tunes the periodic overdue-task sweep.
type SweepConfig interface {
	GetOverdueSweepInterval() time.Duration
	GetOverdueSweepBatch() int
}

// EngagementConfig provides the location of the optional scoring policy override.
type EngagementConfig interface {
	GetEngagementPolicyFile() string
}

// AlertConfig provides settings for agent alert e-mails.
type AlertConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetAlertInbox() string
}

// NotificationConfig provides settings for the notification module.
type NotificationConfig interface {
	GetAppBaseURL() string
}

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	DatabaseURL          string
	JWTAccessSecret      string
	CORSAllowAll         bool
	CORSOrigins          []string
	CORSAllowCreds       bool
	AppBaseURL           string
	PublicRatePerMinute  float64
	PublicRateBurst      int
	RedisURL             string
	RedisTLSInsecure     bool
	AsynqQueueName       string
	AsynqConcurrency     int
	LockBackend          string
	LockTTL              time.Duration
	OverdueSweepInterval time.Duration
	OverdueSweepBatch    int
	EngagementPolicyFile string
	EmailEnabled         bool
	SMTPHost             string
	SMTPPort             int
	SMTPUsername         string
	SMTPPassword         string
	EmailFromName        string
	EmailFromAddress     string
	AlertInbox           string
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// PublicIngestConfig implementation
func (c *Config) GetPublicRatePerMinute() float64 { return c.PublicRatePerMinute }
func (c *Config) GetPublicRateBurst() int         { return c.PublicRateBurst }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }
func (c *Config) IsSchedulerEnabled() bool  { return c.RedisURL != "" }

// LockConfig implementation
func (c *Config) GetLockBackend() string    { return c.LockBackend }
func (c *Config) GetLockTTL() time.Duration { return c.LockTTL }

// SweepConfig implementation
func (c *Config) GetOverdueSweepInterval() time.Duration { return c.OverdueSweepInterval }
func (c *Config) GetOverdueSweepBatch() int              { return c.OverdueSweepBatch }

// EngagementConfig implementation
func (c *Config) GetEngagementPolicyFile() string { return c.EngagementPolicyFile }

// AlertConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetAlertInbox() string       { return c.AlertInbox }

// NotificationConfig implementation
func (c *Config) GetAppBaseURL() string { return c.AppBaseURL }

// Load reads the environment, applies defaults and validates the result.
// Malformed numbers and durations are reported together.
func Load() (*Config, error) {
	_ = godotenv.Load()

	e := &env{}
	origins := splitCSV(e.str("CORS_ORIGINS", "http://localhost:4200"))
	smtpHost := e.str("SMTP_HOST", "")

	cfg := &Config{
		Env:                  e.str("APP_ENV", "development"),
		HTTPAddr:             e.str("HTTP_ADDR", ":8080"),
		DatabaseURL:          e.str("DATABASE_URL", ""),
		JWTAccessSecret:      e.str("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:         e.boolean("CORS_ALLOW_ALL", false) || containsWildcard(origins),
		CORSOrigins:          origins,
		CORSAllowCreds:       e.boolean("CORS_ALLOW_CREDENTIALS", true),
		AppBaseURL:           e.str("APP_BASE_URL", "http://localhost:4200"),
		PublicRatePerMinute:  e.float("PUBLIC_RATE_PER_MINUTE", 60),
		PublicRateBurst:      e.integer("PUBLIC_RATE_BURST", 20),
		RedisURL:             e.str("REDIS_URL", ""),
		RedisTLSInsecure:     e.boolean("REDIS_TLS_INSECURE", false),
		AsynqQueueName:       e.str("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:     e.integer("ASYNQ_CONCURRENCY", 5),
		LockBackend:          strings.ToLower(e.str("LOCK_BACKEND", "memory")),
		LockTTL:              e.duration("LOCK_TTL", 10*time.Second),
		OverdueSweepInterval: e.duration("OVERDUE_SWEEP_INTERVAL", 5*time.Minute),
		OverdueSweepBatch:    e.integer("OVERDUE_SWEEP_BATCH", 500),
		EngagementPolicyFile: e.str("ENGAGEMENT_POLICY_FILE", ""),
		EmailEnabled:         e.boolean("EMAIL_ENABLED", true) && smtpHost != "",
		SMTPHost:             smtpHost,
		SMTPPort:             e.integer("SMTP_PORT", 587),
		SMTPUsername:         e.str("SMTP_USERNAME", ""),
		SMTPPassword:         e.str("SMTP_PASSWORD", ""),
		EmailFromName:        e.str("EMAIL_FROM_NAME", "Dealflow"),
		EmailFromAddress:     e.str("EMAIL_FROM_ADDRESS", ""),
		AlertInbox:           e.str("ALERT_INBOX", ""),
	}

	if err := errors.Join(append(e.errs, cfg.validate()...)...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error
	require := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	require(c.DatabaseURL != "", "DATABASE_URL is required")
	require(c.JWTAccessSecret != "", "JWT_ACCESS_SECRET is required")
	require(!c.EmailEnabled || c.EmailFromAddress != "", "EMAIL_FROM_ADDRESS is required when email is enabled")
	require(!(c.CORSAllowAll && c.CORSAllowCreds), "CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	require(c.LockTTL > 0, "LOCK_TTL must be a positive duration")
	require(c.OverdueSweepInterval > 0, "OVERDUE_SWEEP_INTERVAL must be a positive duration")
	require(c.OverdueSweepBatch > 0, "OVERDUE_SWEEP_BATCH must be positive")
	require(c.PublicRatePerMinute > 0 && c.PublicRateBurst > 0, "PUBLIC_RATE_PER_MINUTE and PUBLIC_RATE_BURST must be positive")

	switch c.LockBackend {
	case "memory":
	case "redis":
		require(c.RedisURL != "", "REDIS_URL is required when LOCK_BACKEND is redis")
	default:
		errs = append(errs, fmt.Errorf("LOCK_BACKEND must be memory or redis, got %q", c.LockBackend))
	}
	return errs
}

// env reads typed variables and remembers every value it could not parse.
type env struct {
	errs []error
}

func (e *env) str(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func (e *env) raw(key string) (string, bool) {
	val, ok := os.LookupEnv(key)
	val = strings.TrimSpace(val)
	return val, ok && val != ""
}

func (e *env) fail(key, val string, err error) {
	e.errs = append(e.errs, fmt.Errorf("%s=%q: %w", key, val, err))
}

func (e *env) integer(key string, fallback int) int {
	val, ok := e.raw(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		e.fail(key, val, err)
		return fallback
	}
	return n
}

func (e *env) float(key string, fallback float64) float64 {
	val, ok := e.raw(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		e.fail(key, val, err)
		return fallback
	}
	return f
}

func (e *env) duration(key string, fallback time.Duration) time.Duration {
	val, ok := e.raw(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		e.fail(key, val, err)
		return fallback
	}
	return d
}

func (e *env) boolean(key string, fallback bool) bool {
	val, ok := e.raw(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		e.fail(key, val, err)
		return fallback
	}
	return b
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsWildcard(values []string) bool {
	for _, v := range values {
		if v == "*" {
			return true
		}
	}
	return false
}
