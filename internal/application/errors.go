package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/equipment-rental/internal/persistence"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrInvalidCredentials is returned when no user matches the supplied e-mail and password.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrNoSession is returned when an operation needs a signed-in user and there is none.
	ErrNoSession = errors.New("application: no active session")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+v.FieldErrors[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// StorageFailureError reports that persisting or loading a collection failed. The in-memory
// snapshot still holds the last successful write.
type StorageFailureError struct {
	Operation string
	Err       error
}

func (e *StorageFailureError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("storage failure during %s: %v", e.Operation, e.Err)
}

func (e *StorageFailureError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// mapStoreError converts repository errors into application errors. operation names the
// service call for the StorageFailureError.
func mapStoreError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	var sErr *persistence.StorageError
	if errors.As(err, &sErr) {
		return &StorageFailureError{Operation: operation, Err: err}
	}
	return err
}
