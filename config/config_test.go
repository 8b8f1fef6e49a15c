package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvDefaults(t *testing.T) {
	cfg := LoadEnv()

	assert.Equal(t, "dev", cfg.Server.AppEnv)
	assert.Equal(t, ":8080", cfg.Server.HTTPPort)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, "storefront", cfg.Postgres.DBName)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "storefront.events", cfg.Kafka.Topic)

	assert.Equal(t, 5, cfg.Stock.LockTTLSeconds)
	assert.Equal(t, 3, cfg.Stock.LockAttempts)
	assert.Equal(t, 100, cfg.Stock.LockRetryWaitMS)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("POSTGRES_MAX_OPEN_CONNS", "25")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("STOCK_LOCK_ATTEMPTS", "5")

	cfg := LoadEnv()

	assert.Equal(t, "production", cfg.Server.AppEnv)
	assert.Equal(t, 25, cfg.Postgres.MaxOpenConns)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5, cfg.Stock.LockAttempts)
}

func TestLoadEnvIgnoresUnparsableValues(t *testing.T) {
	t.Setenv("STOCK_LOCK_TTL_SECONDS", "not-a-number")
	t.Setenv("LOGGER_DISABLE_CALLER", "not-a-bool")

	cfg := LoadEnv()

	assert.Equal(t, 5, cfg.Stock.LockTTLSeconds)
	assert.False(t, cfg.Logger.DisableCaller)
}
