package services

import "errors"

var (
	ErrCatalogLoading        = errors.New("catalog is still loading")
	ErrProductNotFound       = errors.New("product not found in catalog")
	ErrEmptyCart             = errors.New("cart is empty, nothing to checkout")
	ErrCheckoutInProgress    = errors.New("a checkout attempt is already in progress")
	ErrGatewayUnavailable    = errors.New("payment gateway call failed")
	ErrMissingRedirectTarget = errors.New("payment gateway returned no redirect target")
)

// User-facing messages recorded on the checkout session.
const (
	msgGatewayFailure  = "We could not start the payment. Your cart is unchanged, please try again."
	msgMissingRedirect = "The payment provider did not return a payment page. Your cart is unchanged, please try again."
)
