package repositories

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"labella/internal/models"
	"labella/pkg/apperrors"
)

// GORMCategoryRepository is a GORM implementation of CategoryRepository.
type GORMCategoryRepository struct {
	db *gorm.DB
}

// NewGORMCategoryRepository creates a new instance of GORMCategoryRepository.
func NewGORMCategoryRepository(db *gorm.DB) *GORMCategoryRepository {
	return &GORMCategoryRepository{
		db: db,
	}
}

// GetAll retrieves all categories ordered by sort order, then name.
func (r *GORMCategoryRepository) GetAll(activeOnly bool) ([]models.Category, error) {
	query := r.db.Order("sort_order").Order("name")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var categories []models.Category
	if err := query.Find(&categories).Error; err != nil {
		return nil, apperrors.NewInternal("failed to list categories", err)
	}
	return categories, nil
}

// GetByID retrieves a single category by its ID.
func (r *GORMCategoryRepository) GetByID(id string) (*models.Category, error) {
	var category models.Category
	if err := r.db.First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("category", id)
		}
		return nil, apperrors.NewInternal("failed to get category", err)
	}
	return &category, nil
}

// Create creates a new category.
func (r *GORMCategoryRepository) Create(category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	if err := r.db.Create(category).Error; err != nil {
		return apperrors.NewInternal("failed to create category", err)
	}
	return nil
}

// Update updates an existing category.
func (r *GORMCategoryRepository) Update(category *models.Category) error {
	res := r.db.Save(category)
	if res.Error != nil {
		return apperrors.NewInternal("failed to update category", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFound("category", category.ID)
	}
	return nil
}

// Delete soft-deletes a category by its ID.
func (r *GORMCategoryRepository) Delete(id string) error {
	res := r.db.Delete(&models.Category{}, "id = ?", id)
	if res.Error != nil {
		return apperrors.NewInternal("failed to delete category", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFound("category", id)
	}
	return nil
}
