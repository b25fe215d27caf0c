package handlers

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"labella/internal/models"
	"labella/internal/repositories"
	"labella/internal/services"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterPublicRoutes registers the storefront product routes. Only active
// products are visible here.
func (h *ProductHandler) RegisterPublicRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/:id", h.HandleGetProduct)
}

// RegisterAdminRoutes registers the back-office product routes.
func (h *ProductHandler) RegisterAdminRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleAdminListProducts)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Get("/:id", h.HandleAdminGetProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleListProducts lists active products for the storefront.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	active := true
	filter := repositories.ProductFilter{
		IsActive:  &active,
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by", "sort_order"),
		SortOrder: c.Query("sort_order", "asc"),
		Page:      c.QueryInt("page", 1),
		PerPage:   c.QueryInt("per_page", 12),
	}
	if v := c.Query("category_id"); v != "" {
		filter.CategoryID = &v
	}
	if c.Query("featured") != "" && c.QueryBool("featured") {
		featured := true
		filter.Featured = &featured
	}

	products, total, err := h.service.GetAllProducts(filter)
	if err != nil {
		return errorResponse(c, err, "Could not retrieve products")
	}
	return c.JSON(fiber.Map{
		"data":     products,
		"total":    total,
		"page":     filter.Page,
		"per_page": filter.PerPage,
	})
}

// HandleGetProduct retrieves a single active product for the storefront.
// Inactive products are indistinguishable from missing ones.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.service.GetProductByID(productID)
	if err != nil {
		return errorResponse(c, err, "Could not retrieve product")
	}
	if !product.IsActive {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Product with ID %s not found", productID),
		})
	}
	return c.JSON(product)
}

// HandleAdminListProducts lists products for the back office with filters.
func (h *ProductHandler) HandleAdminListProducts(c *fiber.Ctx) error {
	filter := repositories.ProductFilter{
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by", "created_at"),
		SortOrder: c.Query("sort_order", "desc"),
		Page:      c.QueryInt("page", 1),
		PerPage:   c.QueryInt("per_page", 15),
	}
	if v := c.Query("category_id"); v != "" {
		filter.CategoryID = &v
	}
	if c.Query("is_active") != "" {
		isActive := c.QueryBool("is_active")
		filter.IsActive = &isActive
	}

	products, total, err := h.service.GetAllProducts(filter)
	if err != nil {
		return errorResponse(c, err, "Could not retrieve products")
	}
	return c.JSON(fiber.Map{
		"data":     products,
		"total":    total,
		"page":     filter.Page,
		"per_page": filter.PerPage,
	})
}

// HandleAdminGetProduct retrieves a single product, active or not.
func (h *ProductHandler) HandleAdminGetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.Params("id"))
	if err != nil {
		return errorResponse(c, err, "Could not retrieve product")
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(product); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  formatValidationErrors(err),
		})
	}

	if err := h.service.CreateProduct(&product); err != nil {
		return errorResponse(c, err, "Could not create product")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product created successfully",
		"product": product,
	})
}

// HandleUpdateProduct applies a partial product update.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var input services.UpdateProductInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	product, err := h.service.UpdateProduct(c.Params("id"), input)
	if err != nil {
		return errorResponse(c, err, "Could not update product")
	}
	return c.JSON(fiber.Map{
		"message": "Product updated successfully",
		"product": product,
	})
}

// HandleDeleteProduct soft-deletes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.Params("id")); err != nil {
		return errorResponse(c, err, "Could not delete product")
	}
	return c.JSON(fiber.Map{
		"message": "Product deleted successfully",
	})
}
