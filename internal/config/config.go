// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/aquadose/aquadose/internal/auth"
	"github.com/aquadose/aquadose/internal/database"
	"github.com/aquadose/aquadose/internal/dosing"
	"github.com/aquadose/aquadose/internal/telemetry"
)

// Calibration store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// DevSigningKey is used when JWT_SIGNING_KEY is unset outside production.
const DevSigningKey = "local-dev-signing-key-change-in-production"

// PubSubConfig holds Pub/Sub settings. Empty ProjectID disables messaging.
type PubSubConfig struct {
	ProjectID    string
	Topic        string
	Subscription string
}

// Enabled reports whether Pub/Sub is configured.
func (c PubSubConfig) Enabled() bool {
	return c.ProjectID != ""
}

// Config holds configuration shared by the API and worker processes.
type Config struct {
	Port          string
	Environment   string
	DefaultLocale string
	RequireTLS    bool

	OTelEnabled     bool
	OTLPEndpoint    string
	OTelSampleRatio float64

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	CalibrationFile     string
	CalibrationStore    string
	CalibrationCacheTTL time.Duration
	FlagCacheTTL        time.Duration

	AuditInterval    time.Duration
	AuditConcurrency int

	RateLimitPerMinute int

	PubSub   PubSubConfig
	Database database.Config
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var result *multierror.Error

	cfg := Config{
		Port:             getEnvOrDefault("APP_PORT", "8080"),
		Environment:      getEnvOrDefault("APP_ENV", "development"),
		DefaultLocale:    getEnvOrDefault("APP_DEFAULT_LOCALE", string(dosing.DefaultLocale)),
		OTLPEndpoint:     getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		JWTSigningKey:    os.Getenv("JWT_SIGNING_KEY"),
		JWTIssuer:        getEnvOrDefault("JWT_ISSUER", "https://api.aquadose.example"),
		JWTAudience:      getEnvOrDefault("JWT_AUDIENCE", "aquadose-admin"),
		CalibrationFile:  os.Getenv("CALIBRATION_FILE"),
		CalibrationStore: getEnvOrDefault("CALIBRATION_STORE", StoreMemory),
		PubSub: PubSubConfig{
			ProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
			Topic:        getEnvOrDefault("PUBSUB_TOPIC", "aquadose-jobs"),
			Subscription: getEnvOrDefault("PUBSUB_SUBSCRIPTION", "aquadose-jobs-sub"),
		},
		Database: database.ConfigFromEnv(),
	}

	var err error
	if cfg.RequireTLS, err = parseBool("REQUIRE_TLS", false); err != nil {
		result = multierror.Append(result, err)
	}
	if cfg.OTelEnabled, err = parseBool("OTEL_ENABLED", false); err != nil {
		result = multierror.Append(result, err)
	}
	if cfg.OTelSampleRatio, err = parseFloat("OTEL_SAMPLE_RATIO", 1); err != nil {
		result = multierror.Append(result, err)
	}
	if cfg.CalibrationCacheTTL, err = parseDuration("CALIBRATION_CACHE_TTL", 5*time.Minute); err != nil {
		result = multierror.Append(result, err)
	}
	if cfg.FlagCacheTTL, err = parseDuration("FLAG_CACHE_TTL", time.Minute); err != nil {
		result = multierror.Append(result, err)
	}
	if cfg.AuditInterval, err = parseDuration("AUDIT_INTERVAL", time.Hour); err != nil {
		result = multierror.Append(result, err)
	}
	if cfg.AuditConcurrency, err = parseInt("AUDIT_CONCURRENCY", 3); err != nil {
		result = multierror.Append(result, err)
	}
	if cfg.RateLimitPerMinute, err = parseInt("RATE_LIMIT_PER_MINUTE", 120); err != nil {
		result = multierror.Append(result, err)
	}

	if cfg.JWTSigningKey == "" && !cfg.IsProduction() {
		cfg.JWTSigningKey = DevSigningKey
	}

	if err := cfg.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	return cfg, result.ErrorOrNil()
}

// Validate checks cross-field rules.
func (c Config) Validate() error {
	var result *multierror.Error

	if _, ok := dosing.LookupLocale(c.DefaultLocale); !ok {
		result = multierror.Append(result, fmt.Errorf("APP_DEFAULT_LOCALE: unsupported locale %q", c.DefaultLocale))
	}
	if c.CalibrationStore != StoreMemory && c.CalibrationStore != StorePostgres {
		result = multierror.Append(result, fmt.Errorf("CALIBRATION_STORE: must be %q or %q, got %q",
			StoreMemory, StorePostgres, c.CalibrationStore))
	}
	if c.OTelSampleRatio < 0 || c.OTelSampleRatio > 1 {
		result = multierror.Append(result, fmt.Errorf("OTEL_SAMPLE_RATIO: must be between 0 and 1, got %g", c.OTelSampleRatio))
	}
	if c.IsProduction() && c.JWTSigningKey == "" {
		result = multierror.Append(result, fmt.Errorf("JWT_SIGNING_KEY: required in production"))
	}
	if c.AuditInterval <= 0 {
		result = multierror.Append(result, fmt.Errorf("AUDIT_INTERVAL: must be positive"))
	}
	if c.AuditConcurrency < 1 {
		result = multierror.Append(result, fmt.Errorf("AUDIT_CONCURRENCY: must be at least 1"))
	}
	if c.RateLimitPerMinute < 1 {
		result = multierror.Append(result, fmt.Errorf("RATE_LIMIT_PER_MINUTE: must be at least 1"))
	}

	return result.ErrorOrNil()
}

// IsProduction reports whether APP_ENV is production.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsesDevSigningKey reports whether the insecure development key is in use.
func (c Config) UsesDevSigningKey() bool {
	return c.JWTSigningKey == DevSigningKey
}

// Telemetry returns the telemetry configuration for a service.
func (c Config) Telemetry(serviceName, version string) telemetry.Config {
	return telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Environment:    c.Environment,
		OTLPEndpoint:   c.OTLPEndpoint,
		Enabled:        c.OTelEnabled,
		SampleRatio:    c.OTelSampleRatio,
	}
}

// JWT returns the operator token configuration.
func (c Config) JWT() auth.JWTConfig {
	return auth.JWTConfig{
		SigningKey: c.JWTSigningKey,
		Issuer:     c.JWTIssuer,
		Audience:   c.JWTAudience,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func parseInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func parseFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
