package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindFailed
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindTooManyRequests
)

// Detail is one validation failure, e.g. {"PasswordTooShort", "Passwords must be at least 6 characters."}.
type Detail struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ErrorResponse is the JSON body written for every failed request.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Details []Detail `json:"details,omitempty"`
}

type Error struct {
	Kind    Kind
	Message string
	Code    string
	Details []Detail
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(message string, details ...Detail) *Error {
	return &Error{Kind: KindValidation, Message: message, Code: "VALIDATION_ERROR", Details: details}
}

// Failed reports an operation the store refused, e.g. "Failed to add to roles".
func Failed(message string, err error) *Error {
	return &Error{Kind: KindFailed, Message: message, Code: "OPERATION_FAILED", Err: err}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message, Code: "NOT_FOUND"}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message, Code: "UNAUTHORIZED"}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message, Code: "FORBIDDEN"}
}

func TooManyRequests(message string) *Error {
	return &Error{Kind: KindTooManyRequests, Message: message, Code: "TOO_MANY_REQUESTS"}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Code: "INTERNAL_ERROR", Err: err}
}

// From returns the *Error in err's chain, wrapping anything else as internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err.Error(), err)
}

// Status maps an error to its HTTP status. Missing records answer 400,
// matching what existing clients already handle.
func Status(err error) int {
	switch From(err).Kind {
	case KindValidation, KindFailed, KindNotFound:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
