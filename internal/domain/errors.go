package domain

import "fmt"

// ValidationError reports input that breaks a business rule.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError returns a ValidationError with the given message.
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// AuthenticationError reports an unknown account or a wrong password.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return e.Message }

// AuthorizationError reports a request outside the caller's scope.
type AuthorizationError struct{}

func (e *AuthorizationError) Error() string { return "access to the resource is not allowed" }

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Entity, e.ID)
}

var (
	ErrAccountNotFound    = &AuthenticationError{Message: "account with this username does not exist"}
	ErrInvalidCredentials = &AuthenticationError{Message: "invalid password"}
	ErrInvalidToken       = &AuthenticationError{Message: "invalid or expired token"}
	ErrUnauthorized       = &AuthorizationError{}
)
