package apperror

import "errors"

// Kind classifies an AppError independently of its HTTP status.
type Kind string

const (
	KindValidation Kind = "validation"
	KindAssembly   Kind = "assembly"
	KindProvider   Kind = "provider"
	KindBooking    Kind = "booking"
	KindCancelled  Kind = "cancelled"
	KindNotFound   Kind = "not_found"
	KindInternal   Kind = "internal"
)

// AppError is a custom error type that includes an HTTP status code, an error kind and an optional cause.
type AppError struct {
	Code    int    // HTTP Status Code (e.g., 400, 404)
	Kind    Kind   // Error family used by callers that are not HTTP aware
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the same sentinel. Wrapped copies created with
// WithCause compare equal to the sentinel they were derived from.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e == t || (e.Code == t.Code && e.Kind == t.Kind && e.Message == t.Message)
}

// New creates a new AppError with a status code, kind and message.
func New(code int, kind Kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, kind Kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// WithCause returns a copy of the sentinel carrying err as its cause.
func (e *AppError) WithCause(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Kind:    e.Kind,
		Message: e.Message,
		Err:     err,
	}
}

// KindOf returns the Kind of the first AppError in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
