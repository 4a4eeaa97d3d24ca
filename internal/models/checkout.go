package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutLineItem is a single flattened entry of a CheckoutRequest.
type CheckoutLineItem struct {
	ProductID string          `json:"id" validate:"required"`
	Title     string          `json:"title" validate:"required"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity" validate:"eq=1"`
}

// CheckoutRequest is a value snapshot of the cart taken when checkout begins.
type CheckoutRequest struct {
	// ClientReference identifies the cart session the request was built from.
	ClientReference string             `json:"client_reference,omitempty"`
	LineItems       []CheckoutLineItem `json:"line_items" validate:"required,min=1,dive"`
}

// Total sums the unit prices of every line item.
func (r CheckoutRequest) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.LineItems {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// GatewaySession is what the payment gateway hands back.
// RedirectURL is empty when the gateway answered without a usable url.
type GatewaySession struct {
	ID          string `json:"id,omitempty"`
	RedirectURL string `json:"url"`
}

// CheckoutStatus is the state of the checkout state machine.
type CheckoutStatus string

const (
	CheckoutStatusIdle             CheckoutStatus = "idle"
	CheckoutStatusBuilding         CheckoutStatus = "building"
	CheckoutStatusAwaitingRedirect CheckoutStatus = "awaiting_redirect"
	CheckoutStatusFailed           CheckoutStatus = "failed"
)

// InFlight reports whether a checkout attempt currently owns the state machine.
func (s CheckoutStatus) InFlight() bool {
	return s == CheckoutStatusBuilding || s == CheckoutStatusAwaitingRedirect
}

func (s CheckoutStatus) String() string {
	return string(s)
}

// CheckoutSession is a point-in-time view of the orchestration state.
type CheckoutSession struct {
	AttemptID   string         `json:"attempt_id,omitempty"`
	Status      CheckoutStatus `json:"status"`
	LastError   string         `json:"last_error,omitempty"`
	RedirectURL string         `json:"redirect_url,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
