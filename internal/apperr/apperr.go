// Package apperr defines the error taxonomy shared by the composition engine,
// the catalog lookup and the API layer.
//
// None of these errors is fatal to a composition session: a validation error
// asks the user to fix input, a search error degrades to zero results and a
// publication error leaves the draft intact so the publish can be retried.
//
//	if errors.Is(err, apperr.ErrValidation) { ... }
//
//	var e *apperr.Error
//	if errors.As(err, &e) {
//	    status := e.HTTPStatus()
//	}
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeValidation  Code = "VALIDATION"
	CodeSearch      Code = "SEARCH_FAILED"
	CodePublication Code = "PUBLICATION_FAILED"
	CodeNotFound    Code = "NOT_FOUND"
	CodeInternal    Code = "INTERNAL"
)

// HTTPStatus returns the HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeSearch, CodePublication:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, a user-facing message and optional
// per-field details.
type Error struct {
	Code    Code              `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// Sentinels for errors.Is.
var (
	ErrValidation  = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrSearch      = &Error{Code: CodeSearch, Message: "search failed"}
	ErrPublication = &Error{Code: CodePublication, Message: "publication failed"}
	ErrNotFound    = &Error{Code: CodeNotFound, Message: "not found"}
	ErrInternal    = &Error{Code: CodeInternal, Message: "internal error"}
)

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithFields creates a validation error listing offending fields.
func ValidationWithFields(msg string, fields map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: msg, Fields: fields}
}

// Search wraps a provider failure.
func Search(err error, msg string) *Error {
	return &Error{Code: CodeSearch, Message: msg, cause: err}
}

// Publication wraps a backend failure during submission.
func Publication(err error, msg string) *Error {
	return &Error{Code: CodePublication, Message: msg, cause: err}
}

// NotFoundf creates a not found error with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// HTTPStatus maps any error onto a status code; unknown errors are 500.
func HTTPStatus(err error) int {
	if e, ok := As(err); ok {
		return e.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
