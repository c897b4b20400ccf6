package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinel error kinds. Errors built by this package are marked with one of these and
// compared with errors.Is, so callers never depend on message text.
var (
	ErrNotFound         = newInternalError(ErrCodeNotFound, "not found")
	ErrAlreadyExists    = newInternalError(ErrCodeAlreadyExists, "already exists")
	ErrVersionConflict  = newInternalError(ErrCodeVersionConflict, "version conflict")
	ErrValidation       = newInternalError(ErrCodeValidation, "validation error")
	ErrInvalidOperation = newInternalError(ErrCodeInvalidOperation, "invalid operation")
	ErrPermissionDenied = newInternalError(ErrCodePermissionDenied, "permission denied")
	ErrUnauthorized     = newInternalError(ErrCodeUnauthorized, "unauthorized")
	ErrHTTPClient       = newInternalError(ErrCodeHTTPClient, "http client error")
	ErrDatabase         = newInternalError(ErrCodeDatabase, "database error")
	ErrSystem           = newInternalError(ErrCodeSystemError, "system error")
	ErrInternal         = newInternalError(ErrCodeInternalError, "internal error")
)

const (
	ErrCodeNotFound         = "not_found"
	ErrCodeAlreadyExists    = "already_exists"
	ErrCodeVersionConflict  = "version_conflict"
	ErrCodeValidation       = "validation_error"
	ErrCodeInvalidOperation = "invalid_operation"
	ErrCodePermissionDenied = "permission_denied"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeHTTPClient       = "http_client_error"
	ErrCodeDatabase         = "database_error"
	ErrCodeSystemError      = "system_error"
	ErrCodeInternalError    = "internal_error"
)

// InternalError is the sentinel type behind every error kind
type InternalError struct {
	Code    string
	Message string
	Op      string
	Err     error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.DisplayError(), e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is matches on the error code so wrapped copies still compare equal
func (e *InternalError) Is(target error) bool {
	t, ok := target.(*InternalError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newInternalError(code string, msg string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: msg,
	}
}

// ErrorBuilder accumulates a message, hints and reportable details before marking
// the error with one of the sentinel kinds.
type ErrorBuilder struct {
	err error
}

// NewError starts a builder from a plain message
func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{err: errors.New(msg)}
}

// NewErrorf starts a builder from a formatted message
func NewErrorf(format string, args ...interface{}) *ErrorBuilder {
	return &ErrorBuilder{err: errors.Newf(format, args...)}
}

// WithError starts a builder that wraps an existing error
func WithError(err error) *ErrorBuilder {
	if err == nil {
		err = errors.New("unknown error")
	}
	return &ErrorBuilder{err: err}
}

// WithMessage wraps the current error with an additional message
func (b *ErrorBuilder) WithMessage(msg string) *ErrorBuilder {
	b.err = errors.WithMessage(b.err, msg)
	return b
}

// WithMessagef wraps the current error with an additional formatted message
func (b *ErrorBuilder) WithMessagef(format string, args ...interface{}) *ErrorBuilder {
	b.err = errors.WithMessagef(b.err, format, args...)
	return b
}

// WithHint attaches a user facing hint
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

// WithHintf attaches a formatted user facing hint
func (b *ErrorBuilder) WithHintf(format string, args ...interface{}) *ErrorBuilder {
	b.err = errors.WithHintf(b.err, format, args...)
	return b
}

// WithReportableDetails attaches safe details that are returned to API callers
func (b *ErrorBuilder) WithReportableDetails(details map[string]interface{}) *ErrorBuilder {
	b.err = withDetails(b.err, details)
	return b
}

// Mark marks the error with a sentinel kind and returns it
func (b *ErrorBuilder) Mark(kind error) error {
	return errors.Mark(b.err, kind)
}

// Err returns the error without marking it
func (b *ErrorBuilder) Err() error {
	return b.err
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}

func IsHTTPClient(err error) bool {
	return errors.Is(err, ErrHTTPClient)
}

func IsSystem(err error) bool {
	return errors.Is(err, ErrSystem)
}

// Is is re-exported so callers need a single errors import
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is re-exported so callers need a single errors import
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
