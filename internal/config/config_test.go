package config_test

import (
	"testing"
	"time"

	"storefront/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load(viper.New())

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "http", cfg.GatewayDriver)
	assert.Equal(t, 30*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 5*time.Second, cfg.CatalogRefreshInterval)
	assert.True(t, cfg.GatewayVerifyPrices)
	assert.Empty(t, cfg.RabbitMQURL)
	assert.Equal(t, "http://localhost:8080/api/v1/checkout/cancel", cfg.CheckoutCancelURL)
	assert.Empty(t, cfg.CheckoutReturnURL)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_PORT", ":9999")
	t.Setenv("GATEWAY_DRIVER", "stripe")
	t.Setenv("GATEWAY_TIMEOUT", "2s")
	t.Setenv("GATEWAY_VERIFY_PRICES", "false")
	t.Setenv("SESSION_IDLE_TTL", "15m")

	cfg := config.Load(viper.New())

	assert.Equal(t, ":9999", cfg.AppPort)
	assert.Equal(t, "stripe", cfg.GatewayDriver)
	assert.Equal(t, 2*time.Second, cfg.GatewayTimeout)
	assert.False(t, cfg.GatewayVerifyPrices)
	assert.Equal(t, 15*time.Minute, cfg.SessionIdleTTL)
}
