package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrForbidden       = errors.New("forbidden")

	// Payment / webhook errors
	ErrConfiguration    = errors.New("payment provider is not configured")
	ErrSignatureInvalid = errors.New("webhook signature invalid")
	ErrUnknownProvider  = errors.New("unknown payment provider")
	ErrAmountMismatch   = errors.New("paid amount does not match order amount")
	ErrPersistence      = errors.New("order reconciliation could not be persisted")

	// Storage errors
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")
)
