package gateway

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

// PriceVerifier re-validates every line item against the authoritative catalog before
// delegating to the wrapped gateway, so a stale or tampered price never reaches payment.
type PriceVerifier struct {
	next    services.PaymentGateway
	catalog repositories.ProductRepository
}

// NewPriceVerifier wraps next with catalog price verification.
func NewPriceVerifier(next services.PaymentGateway, catalog repositories.ProductRepository) *PriceVerifier {
	return &PriceVerifier{
		next:    next,
		catalog: catalog,
	}
}

// CreateSession verifies prices and then calls the wrapped gateway.
func (v *PriceVerifier) CreateSession(ctx context.Context, req models.CheckoutRequest) (models.GatewaySession, error) {
	for _, item := range req.LineItems {
		product, err := v.catalog.GetByID(item.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrProductNotFound) {
				return models.GatewaySession{}, fmt.Errorf("%w: product %s is no longer available", ErrPriceMismatch, item.ProductID)
			}
			return models.GatewaySession{}, fmt.Errorf("failed to verify price of %s: %w", item.ProductID, err)
		}
		if !product.Price.Equal(item.UnitPrice) {
			return models.GatewaySession{}, fmt.Errorf("%w: %s is %s, cart holds %s",
				ErrPriceMismatch, item.ProductID, product.Price.StringFixed(2), item.UnitPrice.StringFixed(2))
		}
	}
	return v.next.CreateSession(ctx, req)
}
