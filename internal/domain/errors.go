package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrMissingField         = errors.New("missing required field")
	ErrInvalidFormat        = errors.New("invalid format")
	ErrMissingContactMethod = errors.New("email or roll number required")
	ErrDuplicateIdentity    = errors.New("identity already registered")
	ErrConflictingIdentity  = errors.New("identity matches multiple registrations")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrRelayUnavailable     = errors.New("relay unavailable")
)

// IsValidation reports whether err is a request-validation failure that
// should be surfaced to the caller as a 4xx with its message intact.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrMissingContactMethod)
}
