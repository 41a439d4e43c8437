package models

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the standardized error response body
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error code constants
const (
	// General errors
	ErrBadRequest       = "BAD_REQUEST"
	ErrUnauthorized     = "UNAUTHORIZED"
	ErrForbidden        = "FORBIDDEN"
	ErrNotFound         = "NOT_FOUND"
	ErrConflict         = "CONFLICT"
	ErrInternalServer   = "INTERNAL_SERVER_ERROR"
	ErrValidationFailed = "VALIDATION_FAILED"

	// Order workflow errors
	ErrOutOfStock        = "OUT_OF_STOCK"
	ErrInvalidSelection  = "INVALID_SELECTION"
	ErrInvalidTransition = "INVALID_TRANSITION"

	// OAuth errors (RFC 6749 compatibility)
	ErrInvalidRequest       = "invalid_request"
	ErrInvalidClient        = "invalid_client"
	ErrInvalidGrant         = "invalid_grant"
	ErrUnsupportedGrantType = "unsupported_grant_type"
	ErrInvalidScope         = "invalid_scope"
)

// DomainError is a business-rule violation detected close to the data. It is
// returned synchronously and never retried: these conditions are not
// transient.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
}

func (e *DomainError) Error() string {
	return e.Message
}

// AsDomainError unwraps a DomainError from an error chain
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	ok := errors.As(err, &de)
	return de, ok
}

// NewOutOfStock names the specific ingredient the caller cannot have
func NewOutOfStock(kind IngredientKind, name string) *DomainError {
	if name == "" {
		name = "unknown"
	}
	return &DomainError{
		Code:       ErrOutOfStock,
		Message:    fmt.Sprintf("insufficient stock for %s: %s", kind, name),
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidSelection flags a missing or unknown required pizza component
func NewInvalidSelection(message string) *DomainError {
	return &DomainError{
		Code:       ErrInvalidSelection,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewValidationError flags malformed or incomplete request data
func NewValidationError(message string) *DomainError {
	return &DomainError{
		Code:       ErrValidationFailed,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidTransition flags a status change outside the transition table
func NewInvalidTransition(from, to OrderStatus) *DomainError {
	return &DomainError{
		Code:       ErrInvalidTransition,
		Message:    fmt.Sprintf("cannot transition order from %s to %s", from, to),
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewForbidden flags an ownership or role check failure
func NewForbidden(message string) *DomainError {
	return &DomainError{
		Code:       ErrForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewNotFound flags a missing order or ingredient
func NewNotFound(message string) *DomainError {
	return &DomainError{
		Code:       ErrNotFound,
		Message:    message,
		HTTPStatus: http.StatusNotFound,
	}
}

// NewAPIError creates an API error response body
func NewAPIError(code, message string, details ...map[string]interface{}) APIError {
	err := APIError{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}
