// Package trusterr defines the error taxonomy shared by the station and the
// gateway: every failure in either process maps to exactly one Kind, which in
// turn maps to one HTTP status code.
package trusterr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is one of the eight error categories handlers must translate into.
type Kind string

const (
	BadRequest      Kind = "BadRequest"
	Unauthenticated Kind = "Unauthenticated"
	CertExpired     Kind = "CertExpired"
	CertInvalid     Kind = "CertInvalid"
	Forbidden       Kind = "Forbidden"
	NotFound        Kind = "NotFound"
	Conflict        Kind = "Conflict"
	Upstream        Kind = "Upstream"
	Internal        Kind = "Internal"
)

// httpStatus maps each Kind to the HTTP status spec.md §7 prescribes.
var httpStatus = map[Kind]int{
	BadRequest:      http.StatusBadRequest,
	Unauthenticated: http.StatusUnauthorized,
	CertExpired:     http.StatusUnauthorized,
	CertInvalid:     http.StatusUnauthorized,
	Forbidden:       http.StatusForbidden,
	NotFound:        http.StatusNotFound,
	Conflict:        http.StatusConflict,
	Upstream:        http.StatusInternalServerError,
	Internal:        http.StatusInternalServerError,
}

// Error is a taxonomy-classified error with a human-readable message safe to
// put on the wire. It never carries a stack trace.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code for this error's Kind.
func (e *Error) Status() int {
	if s, ok := httpStatus[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// New creates an Error of the given Kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given Kind wrapping an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Is reports whether err (or anything it wraps) has the given Kind.
func Is(err error, kind Kind) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind == kind
	}
	return false
}

// Convenience constructors, mirroring the shape of each taxonomy row.

func BadRequestf(format string, a ...any) *Error {
	return New(BadRequest, fmt.Sprintf(format, a...))
}

func Unauthenticatedf(format string, a ...any) *Error {
	return New(Unauthenticated, fmt.Sprintf(format, a...))
}

func Forbiddenf(format string, a ...any) *Error {
	return New(Forbidden, fmt.Sprintf(format, a...))
}

func NotFoundf(format string, a ...any) *Error {
	return New(NotFound, fmt.Sprintf(format, a...))
}

func Conflictf(format string, a ...any) *Error {
	return New(Conflict, fmt.Sprintf(format, a...))
}

func Internalf(err error, format string, a ...any) *Error {
	return Wrap(Internal, fmt.Sprintf(format, a...), err)
}

// AsHTTP translates any error into a Kind + message pair safe to serve.
// Unrecognized errors become Internal with a generic message so internals
// never leak onto the wire.
func AsHTTP(err error) (status int, kind Kind, message string) {
	var te *Error
	if errors.As(err, &te) {
		return te.Status(), te.Kind, te.Message
	}
	return http.StatusInternalServerError, Internal, "internal error"
}
