package repositories

import (
	"labella/internal/models"
)

// OrderFilter narrows, orders and paginates order listings.
type OrderFilter struct {
	Status        *models.OrderStatus
	PaymentStatus *models.PaymentStatus
	Search        string
	SortBy        string
	SortOrder     string
	Page          int
	PerPage       int
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetAll(filter OrderFilter) ([]models.Order, int64, error)
	GetByID(id string) (*models.Order, error)
	GetByOrderNumber(orderNumber string) (*models.Order, error)
	// Create persists the order, its item snapshots and the matching stock
	// decrements as one atomic unit. If any product no longer holds enough
	// stock, nothing is written: no order row, no item rows, no stock change.
	Create(order *models.Order) error
	Update(order *models.Order) error
	// Delete removes the order and its items. Status rules are enforced by
	// the service layer.
	Delete(id string) error
}
