// Package errdefs defines the error taxonomy shared by the access-control
// packages. Stores and resolvers return these so that callers (HTTP
// handlers, jobs) can map failures without string matching.
package errdefs

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a referenced entity that does not exist or is outside
// the caller's tenant. Tenant-boundary violations are deliberately
// reported as not-found rather than forbidden, to avoid confirming the
// existence of cross-tenant resources.
var ErrNotFound = errors.New("not found")

// NotFound wraps ErrNotFound with entity context.
func NotFound(entity string, id int64) error {
	return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
}

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ValidationError reports caller-supplied input violating an invariant
// (duplicate NG entry, engineer outside tenant, and so on). Validation
// errors are never retried automatically.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// Validation creates a ValidationError.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Validationf creates a ValidationError with a formatted reason.
func Validationf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
