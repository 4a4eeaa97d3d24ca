package repositories

import (
	"errors"

	"storefront/internal/models"
)

// ErrProductNotFound is returned when a product id has no catalog entry.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository defines the interface for catalog data access.
// The storefront only reads the catalog; Create exists for seeding.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
}
