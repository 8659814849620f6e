package application

import (
	"errors"
	"fmt"
	"testing"

	"github.com/example/equipment-rental/internal/persistence"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	empty := &ValidationError{}
	if got := empty.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for empty error, got %q", got)
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"name": "name is required", "category": "category is required"}}
	want := "validation failed: category: category is required; name: name is required"
	if got := withFields.Error(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestValidationError_AddAndMerge(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	if base.HasErrors() {
		t.Fatalf("expected HasErrors to report false for empty error")
	}
	base.add("first", "value")
	if got := base.FieldErrors["first"]; got != "value" {
		t.Fatalf("expected add to populate map, got %q", got)
	}

	base.merge(&ValidationError{FieldErrors: map[string]string{"second": "another"}})
	base.merge(nil)
	if len(base.FieldErrors) != 2 || !base.HasErrors() {
		t.Fatalf("expected two fields after merge, got %v", base.FieldErrors)
	}
}

func TestMapStoreError(t *testing.T) {
	t.Parallel()

	if err := mapStoreError("op", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if err := mapStoreError("op", fmt.Errorf("wrapped: %w", persistence.ErrNotFound)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	storage := &persistence.StorageError{Op: "write", Key: persistence.KeyRentals, Err: errWriteFailed}
	err := mapStoreError("create rental", storage)
	var failure *StorageFailureError
	if !errors.As(err, &failure) {
		t.Fatalf("expected StorageFailureError, got %T", err)
	}
	if failure.Operation != "create rental" || !errors.Is(err, errWriteFailed) {
		t.Fatalf("unexpected failure %+v", failure)
	}

	plain := errors.New("boom")
	if got := mapStoreError("op", plain); got != plain {
		t.Fatalf("expected unknown errors to pass through, got %v", got)
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	cases := map[string]error{
		"":                    nil,
		"unauthorized":        fmt.Errorf("ctx: %w", ErrUnauthorized),
		"not_found":           ErrNotFound,
		"invalid_credentials": ErrInvalidCredentials,
		"no_session":          ErrNoSession,
		"validation":          &ValidationError{FieldErrors: map[string]string{"a": "b"}},
		"storage_failure":     &StorageFailureError{Operation: "x", Err: errWriteFailed},
		"unexpected":          errors.New("boom"),
	}
	for want, err := range cases {
		if got := ErrorKind(err); got != want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", err, got, want)
		}
	}
}
