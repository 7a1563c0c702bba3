package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/noah-isme/backend-fundraise/internal/pricing"
)

// Ledger backends.
const (
	LedgerMemory = "memory"
	LedgerRedis  = "redis"
)

// Order recorder backends.
const (
	RecorderNone     = "none"
	RecorderPostgres = "postgres"
	RecorderSQLite   = "sqlite"
	RecorderHTTP     = "http"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	CatalogPath  string
	FundingGoal  pricing.Money
	LedgerStore  string
	LedgerKey    string
	LockTTL      time.Duration
	Recorder     string
	SQLitePath   string
	RecorderURL  string
	RecorderWait time.Duration

	BreakerMinRequests  int
	BreakerFailureRatio float64
	BreakerOpenFor      time.Duration

	AMQPURL      string
	AMQPExchange string
	EventJournal int

	IdempotencyTTL  time.Duration
	RateLimitWindow time.Duration
	RateLimitMax    int
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration

	LogFormat        string
	LogLevel         string
	MetricsEnabled   bool
	MetricsNamespace string
	MetricsBuckets   string
	TracingEnabled   bool
	TracingExporter  string
	OTLPEndpoint     string
	TracingSampling  float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	goal, err := pricing.ParseMoney(valueOrDefault(k.String("FUNDING_GOAL"), "1000.00"))
	if err != nil {
		return nil, fmt.Errorf("FUNDING_GOAL: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        strings.TrimSpace(k.String("DATABASE_URL")),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		CatalogPath:  strings.TrimSpace(k.String("CATALOG_PATH")),
		FundingGoal:  goal,
		LedgerStore:  strings.ToLower(valueOrDefault(k.String("LEDGER_BACKEND"), LedgerMemory)),
		LedgerKey:    valueOrDefault(k.String("LEDGER_REDIS_KEY"), "fundraise:ledger"),
		LockTTL:      parseDuration(k.String("LEDGER_LOCK_TTL"), "10s"),
		Recorder:     strings.ToLower(valueOrDefault(k.String("ORDER_RECORDER"), RecorderNone)),
		SQLitePath:   valueOrDefault(k.String("SQLITE_PATH"), "fundraise.db"),
		RecorderURL:  strings.TrimSpace(k.String("RECORDER_URL")),
		RecorderWait: parseDuration(k.String("RECORDER_TIMEOUT"), "5s"),

		BreakerMinRequests:  parseInt(k.String("RECORDER_BREAKER_MIN_REQUESTS"), 5),
		BreakerFailureRatio: parseFloat(k.String("RECORDER_BREAKER_FAILURE_RATIO"), 0.5),
		BreakerOpenFor:      parseDuration(k.String("RECORDER_BREAKER_OPEN_FOR"), "30s"),

		AMQPURL:      strings.TrimSpace(k.String("AMQP_URL")),
		AMQPExchange: valueOrDefault(k.String("AMQP_EXCHANGE"), "fundraise.events"),
		EventJournal: parseInt(k.String("EVENT_JOURNAL_SIZE"), 1000),

		IdempotencyTTL:  parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		RateLimitWindow: parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMax:    parseInt(k.String("RATE_LIMIT_MAX"), 60),
		MaxBodyBytes:    int64(parseInt(k.String("MAX_BODY_BYTES"), 1<<20)),
		ShutdownTimeout: parseDuration(k.String("SHUTDOWN_TIMEOUT"), "15s"),

		LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		MetricsEnabled:   parseBool(k.String("OBS_ENABLE_PROMETHEUS"), true),
		MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "fundraise"),
		MetricsBuckets:   strings.TrimSpace(k.String("OBS_METRICS_BUCKETS_MS")),
		TracingEnabled:   parseBool(k.String("OBS_ENABLE_TRACING"), false),
		TracingExporter:  valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
		OTLPEndpoint:     strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
		TracingSampling:  parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.FundingGoal < 0 {
		return errors.New("FUNDING_GOAL must not be negative")
	}
	switch c.LedgerStore {
	case LedgerMemory:
	case LedgerRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when LEDGER_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unsupported LEDGER_BACKEND %q", c.LedgerStore)
	}
	switch c.Recorder {
	case RecorderNone:
	case RecorderPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when ORDER_RECORDER=postgres")
		}
	case RecorderSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("SQLITE_PATH is required when ORDER_RECORDER=sqlite")
		}
	case RecorderHTTP:
		if c.RecorderURL == "" {
			return errors.New("RECORDER_URL is required when ORDER_RECORDER=http")
		}
	default:
		return fmt.Errorf("unsupported ORDER_RECORDER %q", c.Recorder)
	}
	if c.RateLimitMax < 0 {
		return errors.New("RATE_LIMIT_MAX must not be negative")
	}
	return nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

// MustLoad behaves like Load but panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
