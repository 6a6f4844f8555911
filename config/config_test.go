package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("PORT", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("REDIS_HOST", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Mail.ResetTokenTTL)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenExpiry)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "@hourly", cfg.Scheduler.TokenPurgeSpec)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ALLOWED_ORIGINS", "https://shop.example.com, https://admin.example.com ,")
	t.Setenv("RESET_TOKEN_TTL", "30m")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 30*time.Minute, cfg.Mail.ResetTokenTTL)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 0, cfg.Redis.DB)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("MAIL_USER", "shop@example.com")
	t.Setenv("MAIL_PASS", "app-password")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "a-real-secret")
	_, err = Load()
	assert.NoError(t, err)
}

func TestLoad_ProductionRequiresMailCredentials(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "a-real-secret")
	t.Setenv("MAIL_USER", "shop@example.com")
	t.Setenv("MAIL_PASS", "")

	_, err := Load()
	assert.ErrorContains(t, err, "MAIL_PASS")

	t.Setenv("MAIL_PASS", "app-password")
	_, err = Load()
	assert.NoError(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "shop", SSLMode: "require"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=shop sslmode=require", c.DSN())
}
