package repositories

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"labella/internal/models"
	"labella/pkg/apperrors"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// Sortable columns for product listings. Anything else falls back to
// sort_order to keep user input out of the ORDER BY clause.
var productSortColumns = map[string]bool{
	"name":       true,
	"price":      true,
	"quantity":   true,
	"sort_order": true,
	"created_at": true,
}

// GetAll retrieves products matching the filter, returning the page of
// results and the total match count.
func (r *GORMProductRepository) GetAll(filter ProductFilter) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{}).Preload("Category")

	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Featured != nil {
		query = query.Where("is_featured = ?", *filter.Featured)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR sku LIKE ? OR description LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.NewInternal("failed to count products", err)
	}

	sortBy := filter.SortBy
	if !productSortColumns[sortBy] {
		sortBy = "sort_order"
	}
	direction := "asc"
	if filter.SortOrder == "desc" {
		direction = "desc"
	}
	query = query.Order(sortBy + " " + direction)

	if filter.PerPage > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PerPage).Limit(filter.PerPage)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, apperrors.NewInternal("failed to list products", err)
	}
	return products, total, nil
}

// GetByID retrieves a single product by its ID.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("product", id)
		}
		return nil, apperrors.NewInternal("failed to get product", err)
	}
	return &product, nil
}

// Create creates a new product.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.Create(product).Error; err != nil {
		return apperrors.NewInternal("failed to create product", err)
	}
	return nil
}

// Update updates an existing product.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Omit("Category").Save(product)
	if res.Error != nil {
		return apperrors.NewInternal("failed to update product", res.Error)
	}
	if res.RowsAffected == 0 {
		// Save does not return ErrRecordNotFound for a missing row, so we
		// check RowsAffected, as with the other repositories.
		return apperrors.NewNotFound("product", product.ID)
	}
	return nil
}

// Delete soft-deletes a product by its ID. Order item snapshots referencing
// the product are untouched.
func (r *GORMProductRepository) Delete(id string) error {
	res := r.db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return apperrors.NewInternal("failed to delete product", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFound("product", id)
	}
	return nil
}

// DecrementStock atomically reduces the stock of a product.
func (r *GORMProductRepository) DecrementStock(id string, quantity int) error {
	product, err := r.GetByID(id)
	if err != nil {
		return err
	}
	return decrementStock(r.db, id, product.Name, quantity)
}

// CountByCategory reports how many products reference a category.
func (r *GORMProductRepository) CountByCategory(categoryID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Product{}).Where("category_id = ?", categoryID).Count(&count).Error
	if err != nil {
		return 0, apperrors.NewInternal("failed to count products by category", err)
	}
	return count, nil
}

// decrementStock runs the conditional decrement on the given handle so the
// order placement transaction can apply it inside its own tx. The WHERE
// clause makes check and decrement a single statement; a concurrent order
// that already consumed the stock leaves zero affected rows instead of a
// negative quantity.
func decrementStock(db *gorm.DB, productID, productName string, quantity int) error {
	res := db.Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", productID, quantity).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", quantity))
	if res.Error != nil {
		return apperrors.NewInternal("failed to decrement stock", res.Error)
	}
	if res.RowsAffected == 0 {
		var current models.Product
		if err := db.Select("quantity").First(&current, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewNotFound("product", productID)
			}
			return apperrors.NewInternal("failed to read stock", err)
		}
		return apperrors.NewInsufficientStock(productName, current.Quantity, quantity)
	}
	return nil
}
