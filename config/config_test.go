package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SALT_ROUND", "12")
	t.Setenv("CRYPTO_INVOICE_TTL", "2h")
	t.Setenv("GATEWAY_TIMEOUT", "soon")

	cfg := LoadConfig()
	assert.Same(t, AppConfig, cfg)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 12, cfg.SaltRound)
	assert.Equal(t, 2*time.Hour, cfg.CryptoInvoiceTTL)
	assert.Equal(t, 15*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, "https://plisio.net/api/v1", cfg.PlisioApiURL)
}

func TestGetEnvIntFallsBack(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	assert.Equal(t, 7, getEnvInt("SOME_INT", 7))
}
