package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested record does not exist or has
	// been deactivated.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock is returned when a sale would drive quantity below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidInput      = errors.New("invalid input")
	// ErrInvalidCredentials hides whether the username or the password failed.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrConflict           = errors.New("conflict")
	ErrStorage            = errors.New("storage failure")
)

// NotFoundError names the missing entity. It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StorageError wraps a fault from the storage engine. The cause is for logs
// only and must never reach a client.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// InvalidInputError carries a client-facing reason.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string { return e.Reason }

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func Invalid(format string, args ...any) error {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}
