package handlers

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"labella/internal/models"
	"labella/internal/services"
)

// CategoryHandler handles HTTP requests for categories.
type CategoryHandler struct {
	service  *services.CategoryService
	validate *validator.Validate
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(service *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterPublicRoutes registers the storefront category routes. Only active
// categories are visible here.
func (h *CategoryHandler) RegisterPublicRoutes(router fiber.Router) {
	categoryRoutes := router.Group("/categories")
	categoryRoutes.Get("/", h.HandleListCategories)
	categoryRoutes.Get("/:id", h.HandleGetCategory)
}

// RegisterAdminRoutes registers the back-office category routes.
func (h *CategoryHandler) RegisterAdminRoutes(router fiber.Router) {
	categoryRoutes := router.Group("/categories")
	categoryRoutes.Get("/", h.HandleAdminListCategories)
	categoryRoutes.Post("/", h.HandleCreateCategory)
	categoryRoutes.Get("/:id", h.HandleAdminGetCategory)
	categoryRoutes.Put("/:id", h.HandleUpdateCategory)
	categoryRoutes.Delete("/:id", h.HandleDeleteCategory)
}

// HandleListCategories lists active categories for the storefront.
func (h *CategoryHandler) HandleListCategories(c *fiber.Ctx) error {
	categories, err := h.service.GetAllCategories(true)
	if err != nil {
		return errorResponse(c, err, "Could not retrieve categories")
	}
	return c.JSON(categories)
}

// HandleGetCategory retrieves a single active category for the storefront.
func (h *CategoryHandler) HandleGetCategory(c *fiber.Ctx) error {
	categoryID := c.Params("id")
	category, err := h.service.GetCategoryByID(categoryID)
	if err != nil {
		return errorResponse(c, err, "Could not retrieve category")
	}
	if !category.IsActive {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Category with ID %s not found", categoryID),
		})
	}
	return c.JSON(category)
}

// HandleAdminListCategories lists all categories for the back office.
func (h *CategoryHandler) HandleAdminListCategories(c *fiber.Ctx) error {
	categories, err := h.service.GetAllCategories(false)
	if err != nil {
		return errorResponse(c, err, "Could not retrieve categories")
	}
	return c.JSON(categories)
}

// HandleAdminGetCategory retrieves a single category, active or not.
func (h *CategoryHandler) HandleAdminGetCategory(c *fiber.Ctx) error {
	category, err := h.service.GetCategoryByID(c.Params("id"))
	if err != nil {
		return errorResponse(c, err, "Could not retrieve category")
	}
	return c.JSON(category)
}

// HandleCreateCategory creates a new category.
func (h *CategoryHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var category models.Category
	if err := c.BodyParser(&category); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(category); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  formatValidationErrors(err),
		})
	}

	if err := h.service.CreateCategory(&category); err != nil {
		return errorResponse(c, err, "Could not create category")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Category created successfully",
		"category": category,
	})
}

// HandleUpdateCategory applies a partial category update.
func (h *CategoryHandler) HandleUpdateCategory(c *fiber.Ctx) error {
	var input services.UpdateCategoryInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	category, err := h.service.UpdateCategory(c.Params("id"), input)
	if err != nil {
		return errorResponse(c, err, "Could not update category")
	}
	return c.JSON(fiber.Map{
		"message":  "Category updated successfully",
		"category": category,
	})
}

// HandleDeleteCategory removes a category unless products still reference it.
func (h *CategoryHandler) HandleDeleteCategory(c *fiber.Ctx) error {
	if err := h.service.DeleteCategory(c.Params("id")); err != nil {
		return errorResponse(c, err, "Could not delete category")
	}
	return c.JSON(fiber.Map{
		"message": "Category deleted successfully",
	})
}
