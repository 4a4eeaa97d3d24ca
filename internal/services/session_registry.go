package services

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"storefront/internal/models"
)

// ShopSession is the ephemeral state of one browser session.
type ShopSession struct {
	ID       string
	Cart     *CartStore
	Checkout *CheckoutOrchestrator

	lastSeen time.Time
}

// SessionRegistry keeps one cart and checkout orchestrator per session id, in memory only.
type SessionRegistry struct {
	gateway   PaymentGateway
	publisher EventPublisher

	mu       sync.Mutex
	sessions map[string]*ShopSession
	now      func() time.Time
}

// NewSessionRegistry creates an empty registry whose orchestrators use gateway and publisher.
func NewSessionRegistry(gateway PaymentGateway, publisher EventPublisher) *SessionRegistry {
	return &SessionRegistry{
		gateway:   gateway,
		publisher: publisher,
		sessions:  make(map[string]*ShopSession),
		now:       time.Now,
	}
}

// Get returns the session for id, creating it on first use.
func (r *SessionRegistry) Get(id string) *ShopSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		s = &ShopSession{
			ID:       id,
			Cart:     NewCartStore(),
			Checkout: NewCheckoutOrchestrator(r.gateway, r.publisher, id),
		}
		r.sessions[id] = s
	}
	s.lastSeen = r.now()
	return s
}

// ConfirmPurchase clears the cart of a session whose payment was confirmed and resets
// its checkout. It reports whether the session was known.
func (r *SessionRegistry) ConfirmPurchase(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return false
	}

	s.Cart.Clear()
	s.Checkout.Reset()
	return true
}

// Sweep drops sessions idle for longer than maxIdle, skipping any with a checkout in flight.
func (r *SessionRegistry) Sweep(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxIdle)
	dropped := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) && s.Checkout.State().Status != models.CheckoutStatusBuilding {
			delete(r.sessions, id)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// PaymentConfirmation is the message announcing that a session's payment went through.
type PaymentConfirmation struct {
	SessionID string `json:"session_id"`
	PaymentID string `json:"payment_id,omitempty"`
}

// HandleConfirmation decodes a PaymentConfirmation and confirms the purchase.
// Confirmations for unknown sessions are logged and dropped.
func (r *SessionRegistry) HandleConfirmation(body []byte) error {
	var msg PaymentConfirmation
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("failed to decode payment confirmation: %w", err)
	}
	if msg.SessionID == "" {
		return fmt.Errorf("payment confirmation without session_id")
	}

	if !r.ConfirmPurchase(msg.SessionID) {
		log.Printf("Payment confirmation for unknown session %s ignored", msg.SessionID)
		return nil
	}
	log.Printf("Payment %s confirmed, cart of session %s cleared", msg.PaymentID, msg.SessionID)
	return nil
}
