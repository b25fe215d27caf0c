package handlers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"labella/pkg/apperrors"
)

// formatValidationErrors flattens validator errors into a field -> message map
// for a 422 response body.
func formatValidationErrors(err error) map[string]string {
	messages := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			messages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	return messages
}

// errorResponse writes the standard error payload for a service failure,
// mapping the error code to a status.
func errorResponse(c *fiber.Ctx, err error, fallback string) error {
	return c.Status(apperrors.HTTPStatus(err)).JSON(fiber.Map{
		"message": fallback,
		"error":   apperrors.Message(err),
	})
}
