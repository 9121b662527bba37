package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Common domain errors
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("resource not found")
	ErrTimeout          = errors.New("operation timed out")
	ErrInternalFailure  = errors.New("internal failure")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrValidationFailed = errors.New("validation failed")
)

// Authentication errors
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountLocked       = errors.New("account is temporarily locked")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// Token errors
var (
	ErrTokenExpired           = errors.New("token expired")
	ErrTokenTypeMismatch      = errors.New("token type mismatch")
	ErrSignatureInvalid       = errors.New("token signature invalid")
	ErrIssuerAudienceMismatch = errors.New("token issuer or audience mismatch")
)

// Transaction errors
var (
	ErrInvalidState        = errors.New("transaction is not in the required state")
	ErrLimitExceeded       = errors.New("amount exceeds verification limit")
	ErrPartialBatchInvalid = errors.New("batch contains transactions that cannot be submitted")
)

// FieldError is an ErrInvalidInput bound to a single request field
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidInput
}

// NewFieldError creates a FieldError
func NewFieldError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}

// BatchError is an ErrPartialBatchInvalid carrying the ids that blocked the batch
type BatchError struct {
	InvalidIDs []string
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s: %s", ErrPartialBatchInvalid.Error(), strings.Join(e.InvalidIDs, ", "))
}

func (e *BatchError) Unwrap() error {
	return ErrPartialBatchInvalid
}

// FromContext maps a context cancellation or deadline to ErrTimeout, otherwise returns nil
func FromContext(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrTimeout
	}
	return nil
}
