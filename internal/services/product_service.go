package services

import (
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"

	"labella/internal/models"
	"labella/internal/repositories"
	"labella/pkg/apperrors"
)

// ProductService handles business logic related to products.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// GetAllProducts retrieves products matching the filter.
func (s *ProductService) GetAllProducts(filter repositories.ProductFilter) ([]models.Product, int64, error) {
	return s.repo.GetAll(filter)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct creates a new product, deriving the slug from the name when
// none is supplied.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if product.Price.IsNegative() {
		return apperrors.NewValidation("price must not be negative", nil)
	}
	if product.ComparePrice != nil && product.ComparePrice.IsNegative() {
		return apperrors.NewValidation("compare_price must not be negative", nil)
	}
	if product.Quantity < 0 {
		return apperrors.NewValidation("quantity must not be negative", nil)
	}
	if product.Slug == "" {
		product.Slug = slug.Make(product.Name)
	}
	return s.repo.Create(product)
}

// UpdateProductInput is a partial product update. Nil fields are left
// unchanged.
type UpdateProductInput struct {
	Name             *string          `json:"name"`
	Slug             *string          `json:"slug"`
	CategoryID       *string          `json:"category_id"`
	Description      *string          `json:"description"`
	ShortDescription *string          `json:"short_description"`
	Price            *decimal.Decimal `json:"price"`
	ComparePrice     *decimal.Decimal `json:"compare_price"`
	SKU              *string          `json:"sku"`
	Barcode          *string          `json:"barcode"`
	Quantity         *int             `json:"quantity"`
	IsActive         *bool            `json:"is_active"`
	IsFeatured       *bool            `json:"is_featured"`
	Images           *[]string        `json:"images"`
	Sizes            *[]string        `json:"sizes"`
	Colors           *[]string        `json:"colors"`
	SortOrder        *int             `json:"sort_order"`
}

// UpdateProduct applies a partial update. When the name changes and no
// explicit slug was supplied, the slug is recomputed from the new name.
func (s *ProductService) UpdateProduct(id string, input UpdateProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	nameChanged := false
	if input.Name != nil && *input.Name != product.Name {
		product.Name = *input.Name
		nameChanged = true
	}
	if input.CategoryID != nil {
		product.CategoryID = input.CategoryID
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.ShortDescription != nil {
		product.ShortDescription = *input.ShortDescription
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, apperrors.NewValidation("price must not be negative", nil)
		}
		product.Price = *input.Price
	}
	if input.ComparePrice != nil {
		if input.ComparePrice.IsNegative() {
			return nil, apperrors.NewValidation("compare_price must not be negative", nil)
		}
		product.ComparePrice = input.ComparePrice
	}
	if input.SKU != nil {
		product.SKU = *input.SKU
	}
	if input.Barcode != nil {
		product.Barcode = *input.Barcode
	}
	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return nil, apperrors.NewValidation("quantity must not be negative", nil)
		}
		product.Quantity = *input.Quantity
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}
	if input.Images != nil {
		product.Images = *input.Images
	}
	if input.Sizes != nil {
		product.Sizes = *input.Sizes
	}
	if input.Colors != nil {
		product.Colors = *input.Colors
	}
	if input.SortOrder != nil {
		product.SortOrder = *input.SortOrder
	}

	switch {
	case input.Slug != nil && *input.Slug != "":
		product.Slug = *input.Slug
	case nameChanged:
		product.Slug = slug.Make(product.Name)
	}

	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct soft-deletes a product by its ID. Snapshots on existing order
// items are unaffected.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}
