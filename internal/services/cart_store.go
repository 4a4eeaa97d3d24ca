package services

import (
	"sync"

	"storefront/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartStore holds the in-memory cart of one browser session.
// Line items form an ordered multiset: adding a product twice yields two entries.
type CartStore struct {
	mu    sync.RWMutex
	items []models.CartLineItem
	// revision changes on every mutation.
	revision uint64
}

// NewCartStore creates an empty cart.
func NewCartStore() *CartStore {
	return &CartStore{}
}

// Add appends a line item built from the product's current id, title and price.
func (c *CartStore) Add(product models.Product) models.CartLineItem {
	item := models.CartLineItem{
		EntryID:   uuid.New().String(),
		ProductID: product.ID,
		Title:     product.Title,
		UnitPrice: product.Price,
		Quantity:  1,
	}

	c.mu.Lock()
	c.items = append(c.items, item)
	c.revision++
	c.mu.Unlock()
	return item
}

// Remove deletes every line item for productID and returns how many were removed.
func (c *CartStore) Remove(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := make([]models.CartLineItem, 0, len(c.items))
	for _, item := range c.items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	removed := len(c.items) - len(kept)
	if removed > 0 {
		c.items = kept
		c.revision++
	}
	return removed
}

// RemoveEntry deletes the single line item with the given entry id.
func (c *CartStore) RemoveEntry(entryID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, item := range c.items {
		if item.EntryID == entryID {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			c.revision++
			return true
		}
	}
	return false
}

// Contains reports whether any line item matches productID.
func (c *CartStore) Contains(productID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, item := range c.items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// Total sums the unit prices of the current line items. It is recomputed on every call.
func (c *CartStore) Total() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total()
}

// Summary returns a copy of the line items together with their total, read atomically.
func (c *CartStore) Summary() ([]models.CartLineItem, decimal.Decimal) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items := make([]models.CartLineItem, len(c.items))
	copy(items, c.items)
	return items, c.total()
}

func (c *CartStore) total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.UnitPrice)
	}
	return total
}

// Len returns the number of line items.
func (c *CartStore) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Items returns a copy of the line items in insertion order.
func (c *CartStore) Items() []models.CartLineItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items := make([]models.CartLineItem, len(c.items))
	copy(items, c.items)
	return items
}

// Clear empties the cart.
func (c *CartStore) Clear() {
	c.mu.Lock()
	if len(c.items) > 0 {
		c.items = nil
		c.revision++
	}
	c.mu.Unlock()
}

// CheckoutRequest flattens the cart into an independent snapshot, one line item per entry.
func (c *CartStore) CheckoutRequest() models.CheckoutRequest {
	req, _ := c.snapshot()
	return req
}

// snapshot returns the checkout request and the revision it was taken at.
func (c *CartStore) snapshot() (models.CheckoutRequest, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	lineItems := make([]models.CheckoutLineItem, 0, len(c.items))
	for _, item := range c.items {
		lineItems = append(lineItems, models.CheckoutLineItem{
			ProductID: item.ProductID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice,
			Quantity:  1,
		})
	}
	return models.CheckoutRequest{LineItems: lineItems}, c.revision
}
