package gateway_test

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"storefront/internal/gateway"
	"storefront/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startFakeGateway serves handler on a random local port and returns its base URL.
func startFakeGateway(t *testing.T, handler fiber.Handler) string {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Post("/pay", handler)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "http://" + ln.Addr().String() + "/pay"
}

func checkoutRequest() models.CheckoutRequest {
	item := models.CheckoutLineItem{
		ProductID: "p1",
		Title:     "A",
		UnitPrice: decimal.RequireFromString("10.00"),
		Quantity:  1,
	}
	return models.CheckoutRequest{
		ClientReference: "session-1",
		LineItems:       []models.CheckoutLineItem{item, item},
	}
}

func TestHTTPClient_SendsLineItemsAndReturnsURL(t *testing.T) {
	var received map[string]interface{}
	var auth string
	url := startFakeGateway(t, func(c *fiber.Ctx) error {
		auth = c.Get(fiber.HeaderAuthorization)
		if err := json.Unmarshal(c.Body(), &received); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"id": "sess_1", "url": "https://pay.example.com/sess_1"})
	})

	client := gateway.NewHTTPClient(gateway.HTTPConfig{URL: url, APIKey: "secret", Timeout: 2 * time.Second})
	session, err := client.CreateSession(context.Background(), checkoutRequest())

	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/sess_1", session.RedirectURL)
	assert.Equal(t, "sess_1", session.ID)
	assert.Equal(t, "Bearer secret", auth)

	items, ok := received["lineItems"].([]interface{})
	require.True(t, ok)
	require.Len(t, items, 2)
	for _, raw := range items {
		item := raw.(map[string]interface{})
		assert.Equal(t, "p1", item["id"])
		assert.Equal(t, "A", item["title"])
		assert.Equal(t, 10.0, item["price"])
		assert.Equal(t, 1.0, item["quantity"])
	}
}

func TestHTTPClient_NullURLIsNotAnError(t *testing.T) {
	url := startFakeGateway(t, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"url": nil})
	})

	client := gateway.NewHTTPClient(gateway.HTTPConfig{URL: url, Timeout: 2 * time.Second})
	session, err := client.CreateSession(context.Background(), checkoutRequest())

	require.NoError(t, err)
	assert.Empty(t, session.RedirectURL)
}

func TestHTTPClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler fiber.Handler
		want    error
	}{
		{
			name: "rejected",
			handler: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusUnprocessableEntity).SendString("bad price")
			},
			want: gateway.ErrRejected,
		},
		{
			name: "not json",
			handler: func(c *fiber.Ctx) error {
				return c.SendString("<html>oops</html>")
			},
			want: gateway.ErrMalformedResponse,
		},
		{
			name: "invalid url",
			handler: func(c *fiber.Ctx) error {
				return c.JSON(fiber.Map{"url": "not a url"})
			},
			want: gateway.ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := startFakeGateway(t, tt.handler)
			client := gateway.NewHTTPClient(gateway.HTTPConfig{URL: url, Timeout: 2 * time.Second})

			_, err := client.CreateSession(context.Background(), checkoutRequest())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHTTPClient_TransportError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	client := gateway.NewHTTPClient(gateway.HTTPConfig{URL: "http://" + addr + "/pay", Timeout: time.Second})
	_, err = client.CreateSession(context.Background(), checkoutRequest())

	assert.ErrorIs(t, err, gateway.ErrTransport)
}

func TestHTTPClient_RejectsInvalidRequestBeforeCalling(t *testing.T) {
	called := false
	url := startFakeGateway(t, func(c *fiber.Ctx) error {
		called = true
		return c.JSON(fiber.Map{"url": "https://pay.example.com"})
	})
	client := gateway.NewHTTPClient(gateway.HTTPConfig{URL: url, Timeout: time.Second})

	_, err := client.CreateSession(context.Background(), models.CheckoutRequest{})
	assert.ErrorIs(t, err, gateway.ErrInvalidRequest)

	bad := checkoutRequest()
	bad.LineItems[0].Quantity = 2
	_, err = client.CreateSession(context.Background(), bad)
	assert.ErrorIs(t, err, gateway.ErrInvalidRequest)
	assert.False(t, called)
}
