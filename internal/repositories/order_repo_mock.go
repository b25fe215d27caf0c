package repositories

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"labella/internal/models"
	"labella/pkg/apperrors"
)

// MockOrderRepository is an in-memory implementation of OrderRepository. It
// reserves stock through a MockProductRepository with the same all-or-nothing
// guarantee as the GORM implementation's transaction.
type MockOrderRepository struct {
	orders   map[string]models.Order
	products *MockProductRepository
	mu       sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository backed
// by the given product store for stock reservation.
func NewMockOrderRepository(products *MockProductRepository) *MockOrderRepository {
	return &MockOrderRepository{
		orders:   make(map[string]models.Order),
		products: products,
	}
}

// GetAll returns orders matching the filter. Sorting is not simulated.
func (r *MockOrderRepository) GetAll(filter OrderFilter) ([]models.Order, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		if filter.PaymentStatus != nil && order.PaymentStatus != *filter.PaymentStatus {
			continue
		}
		if filter.Search != "" {
			search := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(order.OrderNumber), search) &&
				!strings.Contains(strings.ToLower(order.CustomerName), search) &&
				!strings.Contains(strings.ToLower(order.CustomerEmail), search) {
				continue
			}
		}
		orderList = append(orderList, order)
	}
	return orderList, int64(len(orderList)), nil
}

// GetByID returns an order by its ID with item product references resolved.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, apperrors.NewNotFound("order", id)
	}
	r.attachProducts(&order)
	return &order, nil
}

// GetByOrderNumber returns an order by its human-facing number.
func (r *MockOrderRepository) GetByOrderNumber(orderNumber string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.orders {
		if order.OrderNumber == orderNumber {
			r.attachProducts(&order)
			return &order, nil
		}
	}
	return nil, apperrors.NewNotFound("order", orderNumber)
}

// Create stores the order after reserving stock for every item. The product
// store's lock is held across all decrements, and decrements already applied
// are returned when a later item fails, so a failed placement leaves both
// stores exactly as they were.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}

	r.products.mu.Lock()
	for i, item := range order.Items {
		if err := r.products.decrementLocked(item.ProductID, item.Quantity); err != nil {
			for _, applied := range order.Items[:i] {
				r.products.restockLocked(applied.ProductID, applied.Quantity)
			}
			r.products.mu.Unlock()
			return err
		}
	}
	r.products.mu.Unlock()

	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// Update replaces the stored order row. Items are left as they were.
func (r *MockOrderRepository) Update(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.orders[order.ID]
	if !ok {
		return apperrors.NewNotFound("order", order.ID)
	}
	order.Items = existing.Items
	order.CreatedAt = existing.CreatedAt
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// Delete removes an order and, implicitly, its items.
func (r *MockOrderRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return apperrors.NewNotFound("order", id)
	}
	delete(r.orders, id)
	return nil
}

// attachProducts mirrors the GORM Items.Product preload. Deleted products
// stay nil; the item snapshots carry the order history regardless.
func (r *MockOrderRepository) attachProducts(order *models.Order) {
	for i := range order.Items {
		if product, err := r.products.GetByID(order.Items[i].ProductID); err == nil {
			order.Items[i].Product = product
		}
	}
}
