package service

import (
	"errors"
	"fmt"

	"shop-catalog/internal/validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidTokenClaims = fmt.Errorf("%w claims", ErrInvalidToken)
	ErrTokenExpired       = errors.New("token has expired")
	ErrSigningKeyMissing  = errors.New("jwt signing key is not configured")
	ErrForbidden          = errors.New("access denied")
	ErrRoleRequired       = errors.New("role is required")
	ErrInvalidRole        = errors.New("invalid role")
	ErrCategoryIDRequired = errors.New("category id is required")
	ErrFileRequired       = errors.New("file not found")
	ErrNotAnImage         = errors.New("file must be an image")
	ErrFileTooLarge       = errors.New("file is too large")
)

// ValidationError carries the per-field failures of a rejected payload
type ValidationError struct {
	Fields []validation.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("validation failed: %s: %s", e.Fields[0].Field, e.Fields[0].Message)
	}
	return fmt.Sprintf("validation failed on %d fields", len(e.Fields))
}

// validateStruct runs the shared validator and converts its report into a *ValidationError
func validateStruct(v interface{}) error {
	err := validation.Struct(v)
	if err == nil {
		return nil
	}
	if fields := validation.Format(err); len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return fmt.Errorf("failed to validate: %w", err)
}
