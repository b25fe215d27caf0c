package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"labella/internal/models"
	"labella/internal/repositories"
	"labella/pkg/apperrors"
	"labella/pkg/logger"
)

// EventPublisher publishes order lifecycle events to the message broker.
type EventPublisher interface {
	PublishOrderCreated(event map[string]interface{}) error
}

// OrderService handles business logic related to orders. Order placement is
// the one critical path: it must validate stock, snapshot prices, write the
// order with its items and decrement inventory with no partial effect on
// failure.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	publisher   EventPublisher
	log         *logger.Logger
}

// NewOrderService creates a new OrderService. publisher may be nil, in which
// case no events are emitted.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	publisher EventPublisher,
	log *logger.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		publisher:   publisher,
		log:         log,
	}
}

// PlaceOrderItem is one requested line within a placement.
type PlaceOrderItem struct {
	ProductID string  `json:"product_id" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,gte=1"`
	Size      *string `json:"size"`
	Color     *string `json:"color"`
}

// PlaceOrderInput carries everything needed to place an order. PlacedByUserID
// is explicit attribution; there is no ambient current-user state.
type PlaceOrderInput struct {
	CustomerName    string           `json:"customer_name" validate:"required,max=255"`
	CustomerEmail   string           `json:"customer_email" validate:"required,email,max=255"`
	CustomerPhone   string           `json:"customer_phone" validate:"omitempty,max=20"`
	ShippingAddress string           `json:"shipping_address" validate:"required"`
	ShippingCity    string           `json:"shipping_city" validate:"required,max=255"`
	ShippingState   string           `json:"shipping_state" validate:"required,max=255"`
	ShippingZip     string           `json:"shipping_zip" validate:"required,max=20"`
	ShippingCountry string           `json:"shipping_country" validate:"omitempty,len=2"`
	Items           []PlaceOrderItem `json:"items" validate:"required,min=1,dive"`
	ShippingCost    *decimal.Decimal `json:"shipping_cost"`
	Discount        *decimal.Decimal `json:"discount"`
	PaymentMethod   string           `json:"payment_method" validate:"omitempty,max=255"`
	Notes           string           `json:"notes"`
	PlacedByUserID  *string          `json:"user_id" validate:"omitempty,uuid"`
}

// PlaceOrder validates every requested line against the catalog, snapshots
// unit prices, computes totals and persists the order, its items and the
// stock decrements as one atomic unit. If stock for any line was consumed by
// a concurrent order between validation and the final decrement, the
// repository rolls the whole write back and the insufficient-stock error is
// returned; nothing is persisted.
func (s *OrderService) PlaceOrder(input PlaceOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, apperrors.NewValidation("order must contain at least one item", nil)
	}

	shippingCost := decimal.Zero
	if input.ShippingCost != nil {
		shippingCost = *input.ShippingCost
	}
	discount := decimal.Zero
	if input.Discount != nil {
		discount = *input.Discount
	}
	if shippingCost.IsNegative() {
		return nil, apperrors.NewValidation("shipping_cost must not be negative", nil)
	}
	if discount.IsNegative() {
		return nil, apperrors.NewValidation("discount must not be negative", nil)
	}

	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(input.Items))
	for _, line := range input.Items {
		if line.Quantity < 1 {
			return nil, apperrors.NewValidation("item quantity must be at least 1", map[string]interface{}{
				"product_id": line.ProductID,
			})
		}

		product, err := s.productRepo.GetByID(line.ProductID)
		if err != nil {
			if apperrors.Is(err, apperrors.CodeNotFound) {
				return nil, apperrors.NewValidation(
					fmt.Sprintf("product %s does not exist", line.ProductID), nil)
			}
			return nil, err
		}
		if !product.IsActive {
			return nil, apperrors.NewProductUnavailable(product.Name)
		}
		if product.Quantity < line.Quantity {
			return nil, apperrors.NewInsufficientStock(product.Name, product.Quantity, line.Quantity)
		}

		unitPrice := product.Price
		lineSubtotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(lineSubtotal)

		items = append(items, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			ProductSKU:  product.SKU,
			UnitPrice:   unitPrice,
			Quantity:    line.Quantity,
			Subtotal:    lineSubtotal,
			Size:        line.Size,
			Color:       line.Color,
		})
	}

	country := input.ShippingCountry
	if country == "" {
		country = "BR"
	}

	order := &models.Order{
		ID:              uuid.New().String(),
		OrderNumber:     generateOrderNumber(),
		UserID:          input.PlacedByUserID,
		CustomerName:    input.CustomerName,
		CustomerEmail:   input.CustomerEmail,
		CustomerPhone:   input.CustomerPhone,
		ShippingAddress: input.ShippingAddress,
		ShippingCity:    input.ShippingCity,
		ShippingState:   input.ShippingState,
		ShippingZip:     input.ShippingZip,
		ShippingCountry: country,
		Subtotal:        subtotal,
		ShippingCost:    shippingCost,
		Discount:        discount,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		PaymentMethod:   input.PaymentMethod,
		Notes:           input.Notes,
		Items:           items,
	}
	order.RecalculateTotal()

	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}

	created, err := s.orderRepo.GetByID(order.ID)
	if err != nil {
		return nil, err
	}

	s.publishOrderCreated(created)
	return created, nil
}

// GetAllOrders retrieves orders matching the filter.
func (s *OrderService) GetAllOrders(filter repositories.OrderFilter) ([]models.Order, int64, error) {
	return s.orderRepo.GetAll(filter)
}

// GetOrderByID retrieves a single order with items and product references.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// GetOrderByOrderNumber retrieves a single order by its human-facing number.
func (s *OrderService) GetOrderByOrderNumber(orderNumber string) (*models.Order, error) {
	return s.orderRepo.GetByOrderNumber(orderNumber)
}

// UpdateOrderInput is a partial administrative update. Nil fields are left
// unchanged.
type UpdateOrderInput struct {
	Status        *string          `json:"status"`
	PaymentStatus *string          `json:"payment_status"`
	ShippingCost  *decimal.Decimal `json:"shipping_cost"`
	Discount      *decimal.Decimal `json:"discount"`
	PaymentMethod *string          `json:"payment_method"`
	Notes         *string          `json:"notes"`
}

// UpdateOrder applies an administrative partial update. When shipping cost or
// discount changes, the total is recomputed from the stored subtotal, falling
// back to the stored value for whichever of the two was not supplied.
func (s *OrderService) UpdateOrder(id string, input UpdateOrderInput) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if input.Status != nil {
		status := models.OrderStatus(*input.Status)
		if !status.Valid() {
			return nil, apperrors.NewValidation(fmt.Sprintf("invalid order status: %s", *input.Status), nil)
		}
		order.Status = status
	}
	if input.PaymentStatus != nil {
		paymentStatus := models.PaymentStatus(*input.PaymentStatus)
		if !paymentStatus.Valid() {
			return nil, apperrors.NewValidation(fmt.Sprintf("invalid payment status: %s", *input.PaymentStatus), nil)
		}
		order.PaymentStatus = paymentStatus
	}
	if input.ShippingCost != nil {
		if input.ShippingCost.IsNegative() {
			return nil, apperrors.NewValidation("shipping_cost must not be negative", nil)
		}
		order.ShippingCost = *input.ShippingCost
	}
	if input.Discount != nil {
		if input.Discount.IsNegative() {
			return nil, apperrors.NewValidation("discount must not be negative", nil)
		}
		order.Discount = *input.Discount
	}
	if input.PaymentMethod != nil {
		order.PaymentMethod = *input.PaymentMethod
	}
	if input.Notes != nil {
		order.Notes = *input.Notes
	}

	if input.ShippingCost != nil || input.Discount != nil {
		order.RecalculateTotal()
	}

	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}
	return s.orderRepo.GetByID(id)
}

// DeleteOrder removes an order. Only pending or cancelled orders may be
// deleted.
func (s *OrderService) DeleteOrder(id string) error {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return err
	}
	if !order.Deletable() {
		return apperrors.NewConflict(fmt.Sprintf("cannot delete order with status: %s", order.Status))
	}
	return s.orderRepo.Delete(id)
}

// publishOrderCreated emits the order.created event. Publication is best
// effort: a broker failure is logged and never surfaces to the caller, the
// order is already committed.
func (s *OrderService) publishOrderCreated(order *models.Order) {
	if s.publisher == nil {
		return
	}
	event := map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"status":       order.Status,
		"total":        order.Total,
		"item_count":   len(order.Items),
	}
	if err := s.publisher.PublishOrderCreated(event); err != nil {
		s.log.Warn("failed to publish order created event",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
	}
}

// generateOrderNumber returns an opaque unique order token, e.g. LB-9F2C41D07A1B.
func generateOrderNumber() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "LB-" + raw[:12]
}
