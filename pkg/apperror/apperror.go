package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the admin user and for HTTP status mapping
type Kind string

const (
	KindValidation   Kind = "validation"
	KindDuplicate    Kind = "duplicate"
	KindUpload       Kind = "upload"
	KindNotFound     Kind = "not_found"
	KindReferential  Kind = "referential"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindUnknown      Kind = "unknown"
)

// Error carries a user-ready message, a machine kind and the underlying cause
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind without an underlying cause
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a user-ready message and kind to a cause
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation is shorthand for a validation failure
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Unknown wraps an unclassified failure with a generic retry message
func Unknown(err error) *Error {
	return Wrap(KindUnknown, err, "Une erreur inattendue est survenue, veuillez réessayer")
}

// KindOf returns the kind of the first *Error in the chain, or KindUnknown
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// Is reports whether err is classified as kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing message of err
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return Unknown(err).Message
}

// HTTPStatus maps a kind to the status code returned by the API
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindUpload:
		return http.StatusBadRequest
	case KindDuplicate, KindReferential, KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
