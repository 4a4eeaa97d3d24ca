package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/gateway"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestSeedProductsOnlyFillsEmptyCatalog(t *testing.T) {
	repo := repositories.NewMockProductRepository()

	seedProducts(repo)
	seedProducts(repo)

	products, err := repo.GetAll()
	require.NoError(t, err)
	assert.Len(t, products, 3)
	for _, p := range products {
		assert.True(t, p.Price.IsPositive())
	}
}

func TestNewPaymentGateway(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	cfg := config.Load(viper.New())

	assert.IsType(t, &gateway.PriceVerifier{}, newPaymentGateway(cfg, repo))

	cfg.GatewayVerifyPrices = false
	assert.IsType(t, &gateway.HTTPClient{}, newPaymentGateway(cfg, repo))

	cfg.GatewayDriver = "stripe"
	assert.IsType(t, &gateway.StripeClient{}, newPaymentGateway(cfg, repo))
}

func TestHealthReportsCatalogState(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	seedProducts(repo)
	catalog := services.NewCatalogSource(repo, time.Minute)
	sessions := services.NewSessionRegistry(nil, nil)
	app := newApp(catalog, sessions, "", "")

	health := func() map[string]interface{} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return body
	}

	body := health()
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["catalog"])

	require.NoError(t, catalog.Refresh())
	assert.Equal(t, true, health()["catalog"])
}

func TestAPIIssuesCartSessionCookie(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	catalog := services.NewCatalogSource(repo, time.Minute)
	sessions := services.NewSessionRegistry(nil, nil)
	app := newApp(catalog, sessions, "", "")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == "cart_session" {
			found = true
			assert.True(t, c.HttpOnly)
		}
	}
	assert.True(t, found)
	assert.Equal(t, 1, sessions.Len())
}
