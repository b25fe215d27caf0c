package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeProductUnavailable = "PRODUCT_UNAVAILABLE"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL_ERROR"
)

// AppError is the application error type carried from the services up to
// the HTTP boundary.
type AppError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code for an error. Business failures
// inside order placement (unavailable product, insufficient stock) map to
// 500, matching the behavior of the original back office.
func HTTPStatus(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}

	switch appErr.Code {
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the human-readable message for an error, without the code
// prefix added by Error.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// Is checks if an error carries a specific code.
func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// NewValidation creates a validation error.
func NewValidation(message string, details interface{}) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Details: details}
}

// NewNotFound creates a not found error.
func NewNotFound(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with id '%v' not found", resource, id),
	}
}

// NewProductUnavailable creates an error for an inactive product.
func NewProductUnavailable(productName string) *AppError {
	return &AppError{
		Code:    CodeProductUnavailable,
		Message: fmt.Sprintf("product %s is not available", productName),
	}
}

// NewInsufficientStock creates an error for a stock shortage.
func NewInsufficientStock(productName string, available, requested int) *AppError {
	return &AppError{
		Code:    CodeInsufficientStock,
		Message: fmt.Sprintf("insufficient stock for product %s", productName),
		Details: map[string]interface{}{
			"available": available,
			"requested": requested,
		},
	}
}

// NewConflict creates a conflict error.
func NewConflict(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

// NewInternal creates an internal error.
func NewInternal(message string, err error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Err: err}
}

// Wrap wraps an error with additional context, preserving its code.
func Wrap(err error, message string) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message + ": " + appErr.Message,
			Details: appErr.Details,
			Err:     err,
		}
	}
	return NewInternal(message, err)
}
