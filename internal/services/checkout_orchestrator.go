package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
)

// PaymentGateway creates a payment session for a checkout request.
// A GatewaySession with an empty RedirectURL means the gateway answered without a usable target.
type PaymentGateway interface {
	CreateSession(ctx context.Context, req models.CheckoutRequest) (models.GatewaySession, error)
}

// Navigator receives the one-way handoff to the gateway's payment page.
type Navigator interface {
	Navigate(url string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(url string)

// Navigate calls f(url).
func (f NavigatorFunc) Navigate(url string) { f(url) }

// EventPublisher publishes checkout lifecycle events. It is optional.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// Routing keys of published checkout events.
const (
	EventCheckoutStarted    = "checkout.started"
	EventCheckoutRedirected = "checkout.redirected"
	EventCheckoutFailed     = "checkout.failed"
)

// CheckoutEvent is the body of a published checkout event.
type CheckoutEvent struct {
	AttemptID       string                `json:"attempt_id"`
	ClientReference string                `json:"client_reference,omitempty"`
	Status          models.CheckoutStatus `json:"status"`
	ItemCount       int                   `json:"item_count"`
	Total           string                `json:"total"`
	Error           string                `json:"error,omitempty"`
	OccurredAt      time.Time             `json:"occurred_at"`
}

// CheckoutOrchestrator drives the checkout state machine of one cart session:
// Idle -> Building -> AwaitingRedirect, or Idle -> Building -> Failed, after which
// the next attempt starts over. Only one attempt may be in flight at a time.
// An AwaitingRedirect session whose cart was edited after the snapshot counts as
// abandoned, so the next attempt replaces it.
type CheckoutOrchestrator struct {
	gateway   PaymentGateway
	publisher EventPublisher
	reference string

	mu    sync.Mutex
	state models.CheckoutSession
	// cart revision the current attempt was built from
	cartRevision uint64
}

// NewCheckoutOrchestrator creates an orchestrator in the Idle state.
// reference is attached to every request as its ClientReference; publisher may be nil.
func NewCheckoutOrchestrator(gateway PaymentGateway, publisher EventPublisher, reference string) *CheckoutOrchestrator {
	return &CheckoutOrchestrator{
		gateway:   gateway,
		publisher: publisher,
		reference: reference,
		state: models.CheckoutSession{
			Status:    models.CheckoutStatusIdle,
			UpdatedAt: time.Now(),
		},
	}
}

// State returns a copy of the current checkout session.
func (o *CheckoutOrchestrator) State() models.CheckoutSession {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Checkout snapshots cart and asks the gateway for a payment session. On success the
// redirect target is handed to nav and the session stays in AwaitingRedirect.
// The cart is never modified, whatever the outcome.
func (o *CheckoutOrchestrator) Checkout(ctx context.Context, cart *CartStore, nav Navigator) error {
	req, attemptID, err := o.begin(cart)
	if err != nil {
		return err
	}
	o.publish(EventCheckoutStarted, attemptID, req, models.CheckoutStatusBuilding, "")

	session, err := o.gateway.CreateSession(ctx, req)
	if err != nil {
		log.Printf("Checkout %s: gateway call failed: %v", attemptID, err)
		o.finish(models.CheckoutStatusFailed, msgGatewayFailure, "")
		o.publish(EventCheckoutFailed, attemptID, req, models.CheckoutStatusFailed, err.Error())
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	if session.RedirectURL == "" {
		log.Printf("Checkout %s: gateway returned no redirect target", attemptID)
		o.finish(models.CheckoutStatusIdle, msgMissingRedirect, "")
		o.publish(EventCheckoutFailed, attemptID, req, models.CheckoutStatusIdle, ErrMissingRedirectTarget.Error())
		return ErrMissingRedirectTarget
	}

	o.finish(models.CheckoutStatusAwaitingRedirect, "", session.RedirectURL)
	o.publish(EventCheckoutRedirected, attemptID, req, models.CheckoutStatusAwaitingRedirect, "")
	log.Printf("Checkout %s: redirecting to payment page", attemptID)
	nav.Navigate(session.RedirectURL)
	return nil
}

// Reset returns a finished session to Idle, e.g. when the user comes back from the
// payment page. An attempt that is still Building is left alone.
func (o *CheckoutOrchestrator) Reset() models.CheckoutSession {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.Status != models.CheckoutStatusBuilding {
		o.state = models.CheckoutSession{
			Status:    models.CheckoutStatusIdle,
			UpdatedAt: time.Now(),
		}
	}
	return o.state
}

// begin claims the state machine and snapshots the cart in one critical section.
func (o *CheckoutOrchestrator) begin(cart *CartStore) (models.CheckoutRequest, string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	req, revision := cart.snapshot()
	if o.state.Status.InFlight() {
		if o.state.Status != models.CheckoutStatusAwaitingRedirect || revision == o.cartRevision {
			return models.CheckoutRequest{}, "", ErrCheckoutInProgress
		}
		log.Printf("Checkout %s: cart changed after redirect, abandoning attempt", o.state.AttemptID)
	}

	if len(req.LineItems) == 0 {
		o.state = models.CheckoutSession{
			Status:    models.CheckoutStatusIdle,
			UpdatedAt: time.Now(),
		}
		return models.CheckoutRequest{}, "", ErrEmptyCart
	}
	req.ClientReference = o.reference
	o.cartRevision = revision

	o.state = models.CheckoutSession{
		AttemptID: uuid.New().String(),
		Status:    models.CheckoutStatusBuilding,
		UpdatedAt: time.Now(),
	}
	return req, o.state.AttemptID, nil
}

func (o *CheckoutOrchestrator) finish(status models.CheckoutStatus, message, redirectURL string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.state.Status = status
	o.state.LastError = message
	o.state.RedirectURL = redirectURL
	o.state.UpdatedAt = time.Now()
}

func (o *CheckoutOrchestrator) publish(routingKey, attemptID string, req models.CheckoutRequest, status models.CheckoutStatus, errMsg string) {
	if o.publisher == nil {
		return
	}

	event := CheckoutEvent{
		AttemptID:       attemptID,
		ClientReference: req.ClientReference,
		Status:          status,
		ItemCount:       len(req.LineItems),
		Total:           req.Total().StringFixed(2),
		Error:           errMsg,
		OccurredAt:      time.Now().UTC(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal checkout event: %v", err)
		return
	}
	if err := o.publisher.Publish(routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event for attempt %s: %v", routingKey, event.AttemptID, err)
	}
}
