// Package apperrors provides the typed errors services return and handlers map to
// HTTP problem responses.
package apperrors

// ErrNotFound matches any *NotFoundError via errors.Is.
var ErrNotFound = &NotFoundError{}

// NotFoundError reports a missing resource or an empty result set the caller asked to act on.
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a NotFoundError with a custom message.
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Resource != "" {
		return e.Resource + " not found"
	}

	return "resource not found"
}

// Is reports whether target is a *NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)

	return ok
}

// ErrValidation matches any *ValidationError via errors.Is.
var ErrValidation = &ValidationError{}

// ValidationError reports malformed client input, such as a cluster count larger
// than the number of feedback items.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Field != "" {
		return "validation failed for field: " + e.Field
	}

	return "validation error"
}

// Is reports whether target is a *ValidationError.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)

	return ok
}
