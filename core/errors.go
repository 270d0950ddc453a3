package core

import "github.com/pkg/errors"

// ErrorKind classifies a domain failure. The HTTP layer maps kinds to status
// codes; the codes carried by AppError are the stable contract clients rely on.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation_error"
	KindUnauthorized   ErrorKind = "unauthorized"
	KindForbiddenRole  ErrorKind = "forbidden_role"
	KindForbidden      ErrorKind = "forbidden"
	KindNotFound       ErrorKind = "not_found"
	KindConflict       ErrorKind = "conflict"
	KindStateConflict  ErrorKind = "state_conflict"
	KindInfrastructure ErrorKind = "infrastructure_error"
)

// AppError is a domain failure with a machine-readable code and a human-readable message.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

func NewAppError(kind ErrorKind, code, msg string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: msg}
}

// AppErrorCause unwraps err down to an *AppError if one is its cause.
func AppErrorCause(err error) (*AppError, bool) {
	appErr, ok := errors.Cause(err).(*AppError)
	return appErr, ok
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
