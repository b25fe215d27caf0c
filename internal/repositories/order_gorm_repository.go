package repositories

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"labella/internal/models"
	"labella/pkg/apperrors"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

var orderSortColumns = map[string]bool{
	"order_number": true,
	"total":        true,
	"status":       true,
	"created_at":   true,
}

// GetAll retrieves orders matching the filter, returning the page of results
// and the total match count.
func (r *GORMOrderRepository) GetAll(filter OrderFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{}).Preload("Items.Product")

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filter.PaymentStatus)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("order_number LIKE ? OR customer_name LIKE ? OR customer_email LIKE ?",
			pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.NewInternal("failed to count orders", err)
	}

	sortBy := filter.SortBy
	if !orderSortColumns[sortBy] {
		sortBy = "created_at"
	}
	direction := "desc"
	if filter.SortOrder == "asc" {
		direction = "asc"
	}
	query = query.Order(sortBy + " " + direction)

	if filter.PerPage > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PerPage).Limit(filter.PerPage)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, apperrors.NewInternal("failed to list orders", err)
	}
	return orders, total, nil
}

// GetByID retrieves a single order with its items and each item's product.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items.Product").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("order", id)
		}
		return nil, apperrors.NewInternal("failed to get order", err)
	}
	return &order, nil
}

// GetByOrderNumber retrieves a single order by its human-facing number.
func (r *GORMOrderRepository) GetByOrderNumber(orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items.Product").First(&order, "order_number = ?", orderNumber).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("order", orderNumber)
		}
		return nil, apperrors.NewInternal("failed to get order", err)
	}
	return &order, nil
}

// Create persists the order, its item snapshots and the matching stock
// decrements in one transaction. A failing decrement rolls the whole unit
// back: the order and item rows staged inside the transaction never become
// visible and every product's quantity stays as it was before the call.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items.Product").Create(order).Error; err != nil {
			return apperrors.NewInternal("failed to create order", err)
		}
		for _, item := range order.Items {
			if err := decrementStock(tx, item.ProductID, item.ProductName, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update persists changes to the order row. Items are immutable and are
// never written through this path.
func (r *GORMOrderRepository) Update(order *models.Order) error {
	res := r.db.Omit("Items").Save(order)
	if res.Error != nil {
		return apperrors.NewInternal("failed to update order", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFound("order", order.ID)
	}
	return nil
}

// Delete removes the order and its items in one transaction.
func (r *GORMOrderRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return apperrors.NewInternal("failed to delete order items", err)
		}
		res := tx.Delete(&models.Order{}, "id = ?", id)
		if res.Error != nil {
			return apperrors.NewInternal("failed to delete order", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NewNotFound("order", id)
		}
		return nil
	})
}
