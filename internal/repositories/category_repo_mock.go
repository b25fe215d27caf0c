package repositories

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"labella/internal/models"
	"labella/pkg/apperrors"
)

// MockCategoryRepository is an in-memory implementation of CategoryRepository.
type MockCategoryRepository struct {
	categories map[string]models.Category
	mu         sync.RWMutex
}

// NewMockCategoryRepository creates a new instance of MockCategoryRepository.
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		categories: make(map[string]models.Category),
	}
}

// GetAll returns categories ordered by sort order and name.
func (r *MockCategoryRepository) GetAll(activeOnly bool) ([]models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	categoryList := make([]models.Category, 0, len(r.categories))
	for _, c := range r.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		categoryList = append(categoryList, c)
	}
	sort.Slice(categoryList, func(i, j int) bool {
		if categoryList[i].SortOrder != categoryList[j].SortOrder {
			return categoryList[i].SortOrder < categoryList[j].SortOrder
		}
		return categoryList[i].Name < categoryList[j].Name
	})
	return categoryList, nil
}

// GetByID returns a category by its ID.
func (r *MockCategoryRepository) GetByID(id string) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	category, ok := r.categories[id]
	if !ok {
		return nil, apperrors.NewNotFound("category", id)
	}
	return &category, nil
}

// Create adds a new category.
func (r *MockCategoryRepository) Create(category *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	category.CreatedAt = time.Now()
	category.UpdatedAt = time.Now()
	r.categories[category.ID] = *category
	return nil
}

// Update modifies an existing category.
func (r *MockCategoryRepository) Update(category *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[category.ID]; !ok {
		return apperrors.NewNotFound("category", category.ID)
	}
	category.UpdatedAt = time.Now()
	r.categories[category.ID] = *category
	return nil
}

// Delete removes a category by its ID.
func (r *MockCategoryRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[id]; !ok {
		return apperrors.NewNotFound("category", id)
	}
	delete(r.categories, id)
	return nil
}
