package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the storefront configuration, read from the environment through Viper.
type Config struct {
	AppPort string

	DatabaseDriver         string // sqlite, postgres or memory
	DatabaseDSN            string
	CatalogRefreshInterval time.Duration
	SeedCatalog            bool

	GatewayDriver       string // http or stripe
	GatewayURL          string
	GatewayAPIKey       string
	GatewayTimeout      time.Duration
	GatewayVerifyPrices bool

	StripeSecretKey    string
	StripeAPIURL       string
	StripeCurrency     string
	CheckoutSuccessURL string
	CheckoutCancelURL  string
	CheckoutReturnURL  string

	RabbitMQURL      string
	RabbitMQExchange string

	IdentityJWTSecret string
	SessionIdleTTL    time.Duration
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:storefront.db?cache=shared")
	v.SetDefault("CATALOG_REFRESH_INTERVAL", "5s")
	v.SetDefault("SEED_CATALOG", true)
	v.SetDefault("GATEWAY_DRIVER", "http")
	v.SetDefault("GATEWAY_URL", "http://localhost:9090/api/pay")
	v.SetDefault("GATEWAY_API_KEY", "")
	v.SetDefault("GATEWAY_TIMEOUT", "30s")
	v.SetDefault("GATEWAY_VERIFY_PRICES", true)
	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("STRIPE_API_URL", "")
	v.SetDefault("STRIPE_CURRENCY", "usd")
	v.SetDefault("CHECKOUT_SUCCESS_URL", "http://localhost:8080/?checkout=success")
	v.SetDefault("CHECKOUT_CANCEL_URL", "http://localhost:8080/api/v1/checkout/cancel")
	v.SetDefault("CHECKOUT_RETURN_URL", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "storefront")
	v.SetDefault("IDENTITY_JWT_SECRET", "")
	v.SetDefault("SESSION_IDLE_TTL", "2h")
}

// Load reads the configuration from v after registering defaults and environment lookup.
func Load(v *viper.Viper) Config {
	SetDefaults(v)
	v.AutomaticEnv()

	return Config{
		AppPort:                v.GetString("APP_PORT"),
		DatabaseDriver:         v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:            v.GetString("DATABASE_DSN"),
		CatalogRefreshInterval: v.GetDuration("CATALOG_REFRESH_INTERVAL"),
		SeedCatalog:            v.GetBool("SEED_CATALOG"),
		GatewayDriver:          v.GetString("GATEWAY_DRIVER"),
		GatewayURL:             v.GetString("GATEWAY_URL"),
		GatewayAPIKey:          v.GetString("GATEWAY_API_KEY"),
		GatewayTimeout:         v.GetDuration("GATEWAY_TIMEOUT"),
		GatewayVerifyPrices:    v.GetBool("GATEWAY_VERIFY_PRICES"),
		StripeSecretKey:        v.GetString("STRIPE_SECRET_KEY"),
		StripeAPIURL:           v.GetString("STRIPE_API_URL"),
		StripeCurrency:         v.GetString("STRIPE_CURRENCY"),
		CheckoutSuccessURL:     v.GetString("CHECKOUT_SUCCESS_URL"),
		CheckoutCancelURL:      v.GetString("CHECKOUT_CANCEL_URL"),
		CheckoutReturnURL:      v.GetString("CHECKOUT_RETURN_URL"),
		RabbitMQURL:            v.GetString("RABBITMQ_URL"),
		RabbitMQExchange:       v.GetString("RABBITMQ_EXCHANGE"),
		IdentityJWTSecret:      v.GetString("IDENTITY_JWT_SECRET"),
		SessionIdleTTL:         v.GetDuration("SESSION_IDLE_TTL"),
	}
}
