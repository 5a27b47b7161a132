package shared

import "errors"

var (
	// ErrNotFound indicates a lookup by id matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates rejected input.
	ErrValidation = errors.New("validation failed")
	// ErrPersistence wraps any failure reported by the data store.
	ErrPersistence = errors.New("persistence failure")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// ValidationError describes input that failed validation. Message is safe to
// show to the client. Fields carries one message per offending field.
type ValidationError struct {
	Field   string
	Message string
	Fields  map[string]string
}

// NewValidationError returns a single-field validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message, Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrValidation) hold for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// AsValidation unwraps err into a ValidationError when possible.
func AsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// UserSafeMessage returns text that can be shown to end users without leaking
// internal detail.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	if verr, ok := AsValidation(err); ok {
		return verr.Message
	}
	if errors.Is(err, ErrNotFound) {
		return "The requested record could not be found."
	}
	return "Something went wrong while saving. Please try again."
}
