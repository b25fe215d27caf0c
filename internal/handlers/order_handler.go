package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"labella/internal/models"
	"labella/internal/repositories"
	"labella/internal/services"
	"labella/pkg/apperrors"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterPublicRoutes registers the storefront order routes.
func (h *OrderHandler) RegisterPublicRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/number/:orderNumber", h.HandleGetOrderByNumber)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
}

// RegisterAdminRoutes registers the back-office order routes.
func (h *OrderHandler) RegisterAdminRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleListOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Put("/:id", h.HandleUpdateOrder)
	orderRoutes.Delete("/:id", h.HandleDeleteOrder)
}

// HandleCreateOrder places a new order. Malformed input fails with 422 and
// field errors; business failures (inactive product, insufficient stock)
// fail with 500 and a message describing the cause.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var input services.PlaceOrderInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  formatValidationErrors(err),
		})
	}

	order, err := h.service.PlaceOrder(input)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeValidation) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message": "Validation error",
				"error":   apperrors.Message(err),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Error creating order",
			"error":   apperrors.Message(err),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order created successfully",
		"order":   order,
	})
}

// HandleGetOrderByID retrieves a single order with its items.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrderByID(c.Params("id"))
	if err != nil {
		return errorResponse(c, err, "Could not retrieve order")
	}
	return c.JSON(order)
}

// HandleGetOrderByNumber retrieves a single order by its order number.
func (h *OrderHandler) HandleGetOrderByNumber(c *fiber.Ctx) error {
	order, err := h.service.GetOrderByOrderNumber(c.Params("orderNumber"))
	if err != nil {
		return errorResponse(c, err, "Could not retrieve order")
	}
	return c.JSON(order)
}

// HandleListOrders lists orders for the back office with filters.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	filter := repositories.OrderFilter{
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by", "created_at"),
		SortOrder: c.Query("sort_order", "desc"),
		Page:      c.QueryInt("page", 1),
		PerPage:   c.QueryInt("per_page", 15),
	}
	if v := c.Query("status"); v != "" {
		status := models.OrderStatus(v)
		filter.Status = &status
	}
	if v := c.Query("payment_status"); v != "" {
		paymentStatus := models.PaymentStatus(v)
		filter.PaymentStatus = &paymentStatus
	}

	orders, total, err := h.service.GetAllOrders(filter)
	if err != nil {
		return errorResponse(c, err, "Could not retrieve orders")
	}
	return c.JSON(fiber.Map{
		"data":     orders,
		"total":    total,
		"page":     filter.Page,
		"per_page": filter.PerPage,
	})
}

// HandleUpdateOrder applies an administrative partial update.
func (h *OrderHandler) HandleUpdateOrder(c *fiber.Ctx) error {
	var input services.UpdateOrderInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	order, err := h.service.UpdateOrder(c.Params("id"), input)
	if err != nil {
		return errorResponse(c, err, "Could not update order")
	}
	return c.JSON(fiber.Map{
		"message": "Order updated successfully",
		"order":   order,
	})
}

// HandleDeleteOrder removes an order. Orders past pending (unless cancelled)
// are refused with 422, as the storefront has always done.
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	if err := h.service.DeleteOrder(c.Params("id")); err != nil {
		if apperrors.Is(err, apperrors.CodeConflict) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message": apperrors.Message(err),
			})
		}
		return errorResponse(c, err, "Could not delete order")
	}
	return c.JSON(fiber.Map{
		"message": "Order deleted successfully",
	})
}
