package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. FromEnv builds it from
// environment variables so main stays lean.
type Config struct {
	Addr        string
	MetricsAddr string

	DatabaseURL string
	Redis       RedisConfig

	Registry RegistryConfig

	KafkaBrokers  []string
	AuditTopic    string
	JWTSigningKey string

	AdminLogin        string
	AdminPasswordHash string

	// DefaultRegion is the region hint used when parsing phone-looking
	// identifiers that carry no country prefix.
	DefaultRegion string

	// FreshnessWindow bounds how long a persisted organization record is
	// served without a registry refresh.
	FreshnessWindow time.Duration

	// RateLimit caps anonymous requests per client IP per RateLimitWindow.
	RateLimit       int
	RateLimitWindow time.Duration
}

// RedisConfig mirrors the subset of go-redis options we tune.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RegistryConfig points at the external tax registry.
type RegistryConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// FromEnv reads configuration with development-friendly defaults.
func FromEnv() Config {
	return Config{
		Addr:        envOr("VERITEL_ADDR", ":8080"),
		MetricsAddr: envOr("VERITEL_METRICS_ADDR", ":9090"),
		DatabaseURL: os.Getenv("VERITEL_DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("VERITEL_REDIS_URL"),
			PoolSize:     envIntOr("VERITEL_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("VERITEL_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDurationOr("VERITEL_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("VERITEL_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("VERITEL_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Registry: RegistryConfig{
			BaseURL: envOr("VERITEL_REGISTRY_URL", "http://localhost:8580"),
			APIKey:  os.Getenv("VERITEL_REGISTRY_API_KEY"),
			Timeout: envDurationOr("VERITEL_REGISTRY_TIMEOUT", 10*time.Second),
		},
		KafkaBrokers:      splitNonEmpty(os.Getenv("VERITEL_KAFKA_BROKERS")),
		AuditTopic:        envOr("VERITEL_AUDIT_TOPIC", "veritel.audit"),
		JWTSigningKey:     envOr("VERITEL_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AdminLogin:        envOr("VERITEL_ADMIN_LOGIN", "admin"),
		AdminPasswordHash: os.Getenv("VERITEL_ADMIN_PASSWORD_HASH"),
		DefaultRegion:     envOr("VERITEL_DEFAULT_REGION", "PL"),
		FreshnessWindow:   envDurationOr("VERITEL_FRESHNESS_WINDOW", 24*time.Hour),
		RateLimit:         envIntOr("VERITEL_RATE_LIMIT", 60),
		RateLimitWindow:   envDurationOr("VERITEL_RATE_LIMIT_WINDOW", time.Minute),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
