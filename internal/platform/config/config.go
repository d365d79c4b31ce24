package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pkgstrings "lexwatch/pkg/platform/strings"
)

// Config captures everything the server needs from the environment so main
// stays lean. Development defaults keep the service runnable with an empty
// environment and the mock upstream client.
type Config struct {
	Addr string

	// Upstream registry source.
	UpstreamURL     string
	UpstreamTimeout time.Duration

	// Outbound politeness throttle toward the upstream source.
	RateLimitMaxRequests int
	RateLimitWindow      time.Duration

	// Background scan scheduling. Zero disables the scheduler.
	ScanInterval time.Duration

	// Persistence. Empty PostgresDSN selects the in-memory stores.
	PostgresDSN string
	RedisURL    string

	// Notification dispatch. Empty broker list disables Kafka dispatch.
	KafkaBrokers []string
	KafkaTopic   string

	JWTSigningKey string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:                 envOr("LEXWATCH_ADDR", ":8080"),
		UpstreamURL:          os.Getenv("LEXWATCH_UPSTREAM_URL"),
		UpstreamTimeout:      envDuration("LEXWATCH_UPSTREAM_TIMEOUT", 30*time.Second),
		RateLimitMaxRequests: envInt("LEXWATCH_RATE_LIMIT_MAX", 30),
		RateLimitWindow:      envDuration("LEXWATCH_RATE_LIMIT_WINDOW", time.Minute),
		ScanInterval:         envDuration("LEXWATCH_SCAN_INTERVAL", 0),
		PostgresDSN:          os.Getenv("LEXWATCH_POSTGRES_DSN"),
		RedisURL:             os.Getenv("LEXWATCH_REDIS_URL"),
		KafkaTopic:           envOr("LEXWATCH_KAFKA_TOPIC", "lexwatch.notifications"),
		JWTSigningKey:        envOr("LEXWATCH_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
	}
	if brokers := os.Getenv("LEXWATCH_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = pkgstrings.DedupeAndTrim(strings.Split(brokers, ","))
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
