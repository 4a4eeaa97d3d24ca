package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the store catalog.
// The cart never mutates a Product; it copies the fields it needs when an item is selected.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"required"`
	Title       string          `json:"title" gorm:"type:varchar(100)" validate:"required,min=1,max=100"`
	Description string          `json:"description" validate:"omitempty,max=500"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2)"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
