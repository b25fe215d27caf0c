package repositories

import (
	"labella/internal/models"
)

// ProductFilter narrows, orders and paginates product listings.
type ProductFilter struct {
	CategoryID *string
	Featured   *bool
	IsActive   *bool
	Search     string
	SortBy     string
	SortOrder  string
	Page       int
	PerPage    int
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(filter ProductFilter) ([]models.Product, int64, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	// DecrementStock atomically reduces the stock of a product by quantity.
	// The check and the decrement are one step: when fewer than quantity
	// units remain the call fails with an insufficient-stock error and the
	// stored quantity is untouched.
	DecrementStock(id string, quantity int) error
	// CountByCategory reports how many products reference a category.
	CountByCategory(categoryID string) (int64, error)
}
