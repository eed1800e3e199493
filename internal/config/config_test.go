package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"PORT", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
		"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB",
		"PAYMENT_BASE_URL", "PAYMENT_TIMEOUT", "PAYMENT_ALLOW_OFFLINE_FALLBACK",
		"CLAIM_CLEANUP_INTERVAL", "CLAIM_TTL",
	}
	for _, env := range envVars {
		os.Unsetenv(env)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	// Server defaults
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)

	// Database defaults
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "ticket_sales", cfg.Database.DBName)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	// Redis defaults
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, "6379", cfg.Redis.Port)
	assert.Equal(t, 0, cfg.Redis.DB)

	// Payment defaults
	assert.Equal(t, "http://localhost:9090", cfg.Payment.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Payment.Timeout)
	assert.False(t, cfg.Payment.AllowOfflineFallback)

	// Worker defaults
	assert.Equal(t, 1*time.Minute, cfg.Worker.CleanupInterval)
	assert.Equal(t, 10*time.Minute, cfg.Worker.ClaimTTL)
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9191")
	t.Setenv("DB_HOST", "db.example.com")
	t.Setenv("DB_NAME", "testdb")
	t.Setenv("PAYMENT_BASE_URL", "http://payments.internal:8080")
	t.Setenv("PAYMENT_TIMEOUT", "2s")
	t.Setenv("PAYMENT_ALLOW_OFFLINE_FALLBACK", "true")
	t.Setenv("CLAIM_TTL", "5m")

	cfg := Load()

	assert.Equal(t, "9191", cfg.Server.Port)
	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.Equal(t, "testdb", cfg.Database.DBName)
	assert.Equal(t, "http://payments.internal:8080", cfg.Payment.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Payment.Timeout)
	assert.True(t, cfg.Payment.AllowOfflineFallback)
	assert.Equal(t, 5*time.Minute, cfg.Worker.ClaimTTL)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("PAYMENT_TIMEOUT", "not-a-duration")
	t.Setenv("PAYMENT_ALLOW_OFFLINE_FALLBACK", "not-a-bool")

	cfg := Load()

	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, 5*time.Second, cfg.Payment.Timeout)
	assert.False(t, cfg.Payment.AllowOfflineFallback)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "localhost", Port: "5432",
		User: "postgres", Password: "secret",
		DBName: "ticket_sales", SSLMode: "disable",
	}

	dsn := cfg.DSN()
	assert.Equal(t, "host=localhost port=5432 user=postgres password=secret dbname=ticket_sales sslmode=disable", dsn)
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "localhost", Port: "6379"}
	assert.Equal(t, "localhost:6379", cfg.Addr())
}
