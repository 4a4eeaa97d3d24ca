package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

// StripeConfig configures Stripe Checkout session creation.
type StripeConfig struct {
	SecretKey  string
	Currency   string
	SuccessURL string
	CancelURL  string
	// APIURL overrides the Stripe API base URL; empty means the default.
	APIURL string
}

// StripeClient creates Stripe Checkout sessions, one Stripe line item per cart entry.
type StripeClient struct {
	cfg      StripeConfig
	sessions session.Client
	validate *validator.Validate
}

// NewStripeClient creates a StripeClient. Network retries are disabled.
func NewStripeClient(cfg StripeConfig) *StripeClient {
	backendCfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(cfg.APIURL)
	}
	if cfg.Currency == "" {
		cfg.Currency = string(stripe.CurrencyUSD)
	}

	return &StripeClient{
		cfg: cfg,
		sessions: session.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
			Key: cfg.SecretKey,
		},
		validate: validator.New(),
	}
}

// CreateSession creates a Checkout Session in payment mode and returns its hosted URL.
func (c *StripeClient) CreateSession(ctx context.Context, req models.CheckoutRequest) (models.GatewaySession, error) {
	if err := c.validate.Struct(req); err != nil {
		return models.GatewaySession{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := ctx.Err(); err != nil {
		return models.GatewaySession{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(c.cfg.SuccessURL),
		CancelURL:  stripe.String(c.cfg.CancelURL),
	}
	if req.ClientReference != "" {
		params.ClientReferenceID = stripe.String(req.ClientReference)
	}
	for _, item := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(c.cfg.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:     stripe.String(item.Title),
					Metadata: map[string]string{"product_id": item.ProductID},
				},
				UnitAmount: stripe.Int64(minorUnits(item.UnitPrice, c.cfg.Currency)),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	s, err := c.sessions.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500 {
			return models.GatewaySession{}, fmt.Errorf("%w: %s", ErrRejected, stripeErr.Msg)
		}
		return models.GatewaySession{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if s == nil {
		return models.GatewaySession{}, fmt.Errorf("%w: empty session", ErrMalformedResponse)
	}
	return models.GatewaySession{ID: s.ID, RedirectURL: s.URL}, nil
}

// Currencies Stripe charges in whole units.
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// minorUnits converts a price to the currency's smallest unit, rounding half away from zero.
// Prices in zero-decimal currencies are already in that unit.
func minorUnits(price decimal.Decimal, currency string) int64 {
	exp := int32(2)
	if zeroDecimalCurrencies[strings.ToLower(currency)] {
		exp = 0
	}
	return price.Round(exp).Shift(exp).IntPart()
}
