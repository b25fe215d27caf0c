package services

import (
	"fmt"

	"github.com/gosimple/slug"

	"labella/internal/models"
	"labella/internal/repositories"
	"labella/pkg/apperrors"
)

// CategoryService handles business logic related to categories.
type CategoryService struct {
	repo        repositories.CategoryRepository
	productRepo repositories.ProductRepository
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(repo repositories.CategoryRepository, productRepo repositories.ProductRepository) *CategoryService {
	return &CategoryService{
		repo:        repo,
		productRepo: productRepo,
	}
}

// GetAllCategories retrieves categories, optionally only active ones.
func (s *CategoryService) GetAllCategories(activeOnly bool) ([]models.Category, error) {
	return s.repo.GetAll(activeOnly)
}

// GetCategoryByID retrieves a single category by its ID.
func (s *CategoryService) GetCategoryByID(id string) (*models.Category, error) {
	return s.repo.GetByID(id)
}

// CreateCategory creates a new category, deriving the slug from the name when
// none is supplied.
func (s *CategoryService) CreateCategory(category *models.Category) error {
	if category.Slug == "" {
		category.Slug = slug.Make(category.Name)
	}
	return s.repo.Create(category)
}

// UpdateCategoryInput is a partial category update. Nil fields are left
// unchanged.
type UpdateCategoryInput struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	IsActive    *bool   `json:"is_active"`
	SortOrder   *int    `json:"sort_order"`
}

// UpdateCategory applies a partial update. When the name changes and no
// explicit slug was supplied, the slug is recomputed from the new name.
func (s *CategoryService) UpdateCategory(id string, input UpdateCategoryInput) (*models.Category, error) {
	category, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	nameChanged := false
	if input.Name != nil && *input.Name != category.Name {
		category.Name = *input.Name
		nameChanged = true
	}
	if input.Description != nil {
		category.Description = *input.Description
	}
	if input.Image != nil {
		category.Image = *input.Image
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	if input.SortOrder != nil {
		category.SortOrder = *input.SortOrder
	}

	switch {
	case input.Slug != nil && *input.Slug != "":
		category.Slug = *input.Slug
	case nameChanged:
		category.Slug = slug.Make(category.Name)
	}

	if err := s.repo.Update(category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a category. A category still referenced by products
// cannot be deleted.
func (s *CategoryService) DeleteCategory(id string) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return err
	}
	count, err := s.productRepo.CountByCategory(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewConflict(fmt.Sprintf("cannot delete category with %d products", count))
	}
	return s.repo.Delete(id)
}
