package models

import "github.com/shopspring/decimal"

// CartLineItem is one selected product instance.
// UnitPrice is captured when the item is added and is never refreshed from the catalog.
type CartLineItem struct {
	EntryID   string          `json:"entry_id"`
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"` // always 1
}
