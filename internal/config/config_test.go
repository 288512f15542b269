package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg := Load()

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 24*time.Hour, cfg.TokenExpires)
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 10*time.Minute, cfg.PasswordResetTTL)
	assert.Equal(t, 10*time.Second, cfg.ExternalTimeout)
	assert.Equal(t, "ETB", cfg.PaymentCurrency)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("OTP_TTL_SECONDS", "120")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("JWT_TTL_HOURS", "not-a-number")

	cfg := Load()

	assert.Equal(t, 2*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 24*time.Hour, cfg.TokenExpires)
}
