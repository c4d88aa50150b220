package apperrors

import (
	"errors"
	"net/http"
)

// Kind tags a failure with the slice of the error taxonomy it belongs to.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuthentication
	KindInvalidToken
	KindDuplicate
	KindNotFound
)

// Error is a tagged failure carried through request processing until the
// central responder turns it into exactly one HTTP response.
type Error struct {
	Kind   Kind
	Msg    string
	Fields any   // optional field-level detail for validation failures
	Err    error // wrapped cause, logged server-side only
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func Validation(msg string, fields any) *Error {
	return &Error{Kind: KindValidation, Msg: msg, Fields: fields}
}

// Authentication failures deliberately share one message so the client
// cannot tell an unknown email from a wrong password.
func Authentication() *Error {
	return &Error{Kind: KindAuthentication, Msg: "Invalid credentials"}
}

func InvalidToken() *Error {
	return &Error{Kind: KindInvalidToken, Msg: "Invalid or expired token"}
}

func Duplicate(msg string) *Error {
	return &Error{Kind: KindDuplicate, Msg: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

// Response is the wire descriptor a tagged error maps to.
type Response struct {
	Status int
	Code   string
	Msg    string
	Fields any
}

// Map is a pure function from any error to its response descriptor.
// Untagged errors collapse to a generic 500 with the cause hidden.
func Map(err error) Response {
	var appErr *Error

	if !errors.As(err, &appErr) {
		return Response{
			Status: http.StatusInternalServerError,
			Code:   "internal_error",
			Msg:    "Something went wrong, please try again later",
		}
	}

	switch appErr.Kind {
	case KindValidation:
		return Response{Status: http.StatusBadRequest, Code: "invalid_request", Msg: appErr.Msg, Fields: appErr.Fields}
	case KindAuthentication:
		return Response{Status: http.StatusUnauthorized, Code: "unauthorized", Msg: appErr.Msg}
	case KindInvalidToken:
		return Response{Status: http.StatusUnauthorized, Code: "invalid_token", Msg: appErr.Msg}
	case KindDuplicate:
		return Response{Status: http.StatusConflict, Code: "duplicate", Msg: appErr.Msg}
	case KindNotFound:
		return Response{Status: http.StatusNotFound, Code: "not_found", Msg: appErr.Msg}
	default:
		return Response{
			Status: http.StatusInternalServerError,
			Code:   "internal_error",
			Msg:    "Something went wrong, please try again later",
		}
	}
}

// Internal reports whether err should be logged with full detail.
func Internal(err error) bool {
	var appErr *Error

	if !errors.As(err, &appErr) {
		return true
	}

	return appErr.Kind == KindUnknown
}
