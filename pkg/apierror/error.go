package apierror

import (
	"encoding/json"
	"net/http"
)

// Error represents a structured API error response.
type Error struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// ToJSON converts the error to JSON bytes.
func (e *Error) ToJSON() []byte {
	response := map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"code":    e.Code,
			"message": e.Message,
		},
	}

	data, _ := json.Marshal(response)
	return data
}

// BadRequest creates a 400 Bad Request error.
func BadRequest(message string) *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
	}
}

// InvalidQuantity creates a 400 error for non-positive reserve quantities.
func InvalidQuantity(message string) *Error {
	if message == "" {
		message = "Quantity must be a positive integer"
	}
	return &Error{
		StatusCode: http.StatusBadRequest,
		Code:       "INVALID_QUANTITY",
		Message:    message,
	}
}

// Unauthorized creates a 401 Unauthorized error.
func Unauthorized(message string) *Error {
	if message == "" {
		message = "Authentication required"
	}
	return &Error{
		StatusCode: http.StatusUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
	}
}

// Forbidden creates a 403 Forbidden error.
func Forbidden(message string) *Error {
	if message == "" {
		message = "Access denied"
	}
	return &Error{
		StatusCode: http.StatusForbidden,
		Code:       "FORBIDDEN",
		Message:    message,
	}
}

// NotFound creates a 404 Not Found error.
func NotFound(message string) *Error {
	if message == "" {
		message = "Resource not found"
	}
	return &Error{
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    message,
	}
}

// ProductNotFound creates a 404 error for unknown products.
func ProductNotFound(message string) *Error {
	if message == "" {
		message = "Product not found"
	}
	return &Error{
		StatusCode: http.StatusNotFound,
		Code:       "PRODUCT_NOT_FOUND",
		Message:    message,
	}
}

// ReservationNotFound creates a 404 error for unknown reservations.
func ReservationNotFound(message string) *Error {
	if message == "" {
		message = "Reservation not found"
	}
	return &Error{
		StatusCode: http.StatusNotFound,
		Code:       "RESERVATION_NOT_FOUND",
		Message:    message,
	}
}

// InsufficientStock creates a 409 error for reserve requests that
// exceed available stock.
func InsufficientStock(message string) *Error {
	if message == "" {
		message = "Not enough available stock"
	}
	return &Error{
		StatusCode: http.StatusConflict,
		Code:       "INSUFFICIENT_STOCK",
		Message:    message,
	}
}

// InternalError creates a 500 Internal Server Error.
func InternalError(message string) *Error {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return &Error{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    message,
	}
}

// ServiceUnavailable creates a 503 Service Unavailable error.
func ServiceUnavailable(message string) *Error {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	return &Error{
		StatusCode: http.StatusServiceUnavailable,
		Code:       "SERVICE_UNAVAILABLE",
		Message:    message,
	}
}
