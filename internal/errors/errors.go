package errors

import (
	stderrors "errors"
	"fmt"

	"gorm.io/gorm"
)

// APIError is the single typed error every core operation returns.
// The boundary layer turns Code into a status; the core never does.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Details string    `json:"details,omitempty"`
	Status  int       `json:"-"`
	Err     error     `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field: %s)", msg, e.Field)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the underlying store or context error
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches any *APIError carrying the same code, so callers can write
// errors.Is(err, apierrors.NotFound("")).
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func newError(code ErrorCode, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Status:  code.StatusCode(),
	}
}

// NotFound creates a NOT_FOUND error
func NotFound(resource string) *APIError {
	return newError(ErrNotFound, fmt.Sprintf("%s not found", resource))
}

// Unauthorized creates an UNAUTHORIZED error
func Unauthorized(message string) *APIError {
	return newError(ErrUnauthorized, message)
}

// Forbidden creates a FORBIDDEN error
func Forbidden(message string) *APIError {
	return newError(ErrForbidden, message)
}

// Conflict creates a CONFLICT error
func Conflict(message string) *APIError {
	return newError(ErrConflict, message)
}

// ValidationError creates a VALIDATION_ERROR
func ValidationError(field, message string) *APIError {
	e := newError(ErrValidation, message)
	e.Field = field
	return e
}

// TransientStore wraps a store failure (unavailable, timed out, aborted tx)
func TransientStore(operation string, err error) *APIError {
	e := newError(ErrTransientStore, fmt.Sprintf("%s failed: store unavailable", operation))
	e.Err = err
	return e
}

// RateLimited creates a RATE_LIMITED error
func RateLimited(message string) *APIError {
	if message == "" {
		message = "rate limit exceeded"
	}
	return newError(ErrRateLimited, message)
}

// InternalError creates an INTERNAL_ERROR
func InternalError(message string) *APIError {
	return newError(ErrInternalError, message)
}

// WithDetails adds additional details to an error
func (e *APIError) WithDetails(details string) *APIError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first *APIError in err's chain.
// Errors that never passed through this package are internal.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ErrInternalError
}

// Is reports whether err carries the given code
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// FromStore translates a gorm error into the taxonomy. resource names the
// record for NotFound/Conflict messages and the operation for store failures.
func FromStore(err error, resource string) error {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return err
	}

	switch {
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		return NotFound(resource)
	case stderrors.Is(err, gorm.ErrDuplicatedKey):
		e := Conflict(resource + " already exists")
		e.Err = err
		return e
	default:
		// includes context.DeadlineExceeded / context.Canceled from the driver
		return TransientStore(resource, err)
	}
}
