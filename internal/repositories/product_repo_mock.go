package repositories

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"labella/internal/models"
	"labella/pkg/apperrors"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
type MockProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
	}
}

// GetAll returns products matching the filter. Sorting is not simulated.
func (r *MockProductRepository) GetAll(filter ProductFilter) ([]models.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if filter.IsActive != nil && p.IsActive != *filter.IsActive {
			continue
		}
		if filter.Featured != nil && p.IsFeatured != *filter.Featured {
			continue
		}
		if filter.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *filter.CategoryID) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		productList = append(productList, p)
	}
	return productList, int64(len(productList)), nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, apperrors.NewNotFound("product", id)
	}
	return &product, nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()
	r.products[product.ID] = *product
	return nil
}

// Update modifies an existing product.
func (r *MockProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.products[product.ID]
	if !ok {
		return apperrors.NewNotFound("product", product.ID)
	}
	product.UpdatedAt = time.Now()
	r.products[product.ID] = *product
	return nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.products[id]
	if !ok {
		return apperrors.NewNotFound("product", id)
	}
	delete(r.products, id)
	return nil
}

// DecrementStock checks and reduces the stored quantity under one lock, so
// concurrent callers cannot both pass the check against the same units.
func (r *MockProductRepository) DecrementStock(id string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.decrementLocked(id, quantity)
}

// decrementLocked applies the conditional decrement. Callers must hold mu.
func (r *MockProductRepository) decrementLocked(id string, quantity int) error {
	product, ok := r.products[id]
	if !ok {
		return apperrors.NewNotFound("product", id)
	}
	if product.Quantity < quantity {
		return apperrors.NewInsufficientStock(product.Name, product.Quantity, quantity)
	}
	product.Quantity -= quantity
	r.products[id] = product
	return nil
}

// restockLocked returns previously reserved units. Callers must hold mu.
func (r *MockProductRepository) restockLocked(id string, quantity int) {
	if product, ok := r.products[id]; ok {
		product.Quantity += quantity
		r.products[id] = product
	}
}

// CountByCategory reports how many products reference a category.
func (r *MockProductRepository) CountByCategory(categoryID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, p := range r.products {
		if p.CategoryID != nil && *p.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}
