package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrLedgerNotFound         = errors.New("ledger not found")
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrAccountNotFound        = errors.New("account not found")
	ErrServiceUnavailable     = errors.New("service unavailable")
	ErrUnhandledAccountStatus = errors.New("unhandled account status")
	ErrAmountMismatch         = errors.New("The amount should be equal to serviceRequest balance")
	ErrAlreadyPaid            = errors.New("The serviceRequest has already been paid")
	ErrIdempotencyConflict    = errors.New("idempotency key already used with a different request")
	ErrRequestInProgress      = errors.New("Too many requests. PBA Payment currently is in progress")
	ErrDuplicateKey           = errors.New("duplicate key")
)

// ValidationError describes a malformed field. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsRetryable reports whether the caller may retry the operation unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}
