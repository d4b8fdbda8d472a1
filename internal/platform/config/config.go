// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr        string
	PostgresDSN string
	RedisURL    string

	KafkaBrokers []string
	KafkaTopic   string

	SessionTTL time.Duration
	CodeTTL    time.Duration

	// DevMode exposes the issued verification code in the /vcode response
	// for local development. Never enable in production: it defeats the
	// human-verification challenge.
	DevMode bool
}

// FromEnv reads configuration from the environment, applying defaults
// suitable for local development.
func FromEnv() Server {
	return Server{
		Addr:         envOr("PASSPORT_ADDR", ":8080"),
		PostgresDSN:  os.Getenv("PASSPORT_POSTGRES_DSN"),
		RedisURL:     os.Getenv("PASSPORT_REDIS_URL"),
		KafkaBrokers: splitNonEmpty(os.Getenv("PASSPORT_KAFKA_BROKERS")),
		KafkaTopic:   envOr("PASSPORT_KAFKA_TOPIC", "passport.audit"),
		SessionTTL:   durationOr("PASSPORT_SESSION_TTL", 30*24*time.Hour),
		CodeTTL:      durationOr("PASSPORT_VCODE_TTL", 5*time.Minute),
		DevMode:      os.Getenv("PASSPORT_DEV_MODE") == "true",
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
