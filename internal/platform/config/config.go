package config

import (
	"os"
	"strings"
)

// Config captures process-level configuration. Values come from the
// environment so main stays lean.
type Config struct {
	Addr          string
	PostgresDSN   string
	RedisURL      string
	KafkaBrokers  []string
	KafkaTopic    string
	JWTSigningKey string

	// PlatformAddress is granted the operator roles at startup so a fresh
	// single-node deployment has a working administrative identity.
	PlatformAddress string

	// Settlement execution defaults; the platform can retoggle at runtime.
	EnableOnChainTransfer  bool
	EnableAutoLedgerUpdate bool
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:                   getenv("AURUM_ADDR", ":8080"),
		PostgresDSN:            os.Getenv("AURUM_POSTGRES_DSN"),
		RedisURL:               os.Getenv("AURUM_REDIS_URL"),
		KafkaTopic:             getenv("AURUM_KAFKA_TOPIC", "aurum.audit.events"),
		JWTSigningKey:          getenv("AURUM_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PlatformAddress:        os.Getenv("AURUM_PLATFORM_ADDRESS"),
		EnableOnChainTransfer:  os.Getenv("AURUM_DISABLE_TOKEN_TRANSFER") != "true",
		EnableAutoLedgerUpdate: os.Getenv("AURUM_DISABLE_LEDGER_UPDATE") != "true",
	}
	if brokers := os.Getenv("AURUM_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
