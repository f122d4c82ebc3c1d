package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "@RocketShoes:cart", cfg.CartKey)
	assert.Equal(t, "file", cfg.Storage)
	assert.Equal(t, 5*time.Second, cfg.CatalogTimeout)
	assert.Equal(t, 5, cfg.BreakerFailures)
	assert.Equal(t, 10000, cfg.SessionCapacity)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORAGE", "redis")
	t.Setenv("CATALOG_TIMEOUT", "250ms")
	t.Setenv("CATALOG_BREAKER_FAILURES", "3")
	t.Setenv("NOTIFY_KAFKA_BROKERS", "kafka-1:9092, ,kafka-2:9092")

	cfg := Load()

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "redis", cfg.Storage)
	assert.Equal(t, 250*time.Millisecond, cfg.CatalogTimeout)
	assert.Equal(t, 3, cfg.BreakerFailures)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("CATALOG_TIMEOUT", "soon")
	t.Setenv("CATALOG_BREAKER_FAILURES", "many")

	cfg := Load()

	assert.Equal(t, 5*time.Second, cfg.CatalogTimeout)
	assert.Equal(t, 5, cfg.BreakerFailures)
}
