package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation       = "validation_error"
	CodeNotFound         = "not_found"
	CodeUnauthorized     = "unauthorized"
	CodeConflict         = "conflict"
	CodeDuplicate        = "duplicate"
	CodeStoreUnavailable = "store_unavailable"
	CodeInternal         = "internal_error"
)

// Error carries the HTTP status and machine code a handler should render.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(format string, args ...any) *Error {
	return New(http.StatusBadRequest, CodeValidation, fmt.Errorf(format, args...))
}

func NotFound(what string) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf("%s not found", what))
}

func Unauthorized(msg string) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, errors.New(msg))
}

// Conflict is rendered as 400: the request is well-formed but the resource state rejects it.
func Conflict(code, msg string) *Error {
	if code == "" {
		code = CodeConflict
	}
	return New(http.StatusBadRequest, code, errors.New(msg))
}

// Duplicate is rendered as 409: another account already holds a unique value.
func Duplicate(msg string) *Error {
	return New(http.StatusConflict, CodeDuplicate, errors.New(msg))
}

func StoreUnavailable(err error) *Error {
	return New(http.StatusServiceUnavailable, CodeStoreUnavailable, fmt.Errorf("store temporarily unavailable: %w", err))
}

func Internal(err error) *Error {
	return New(http.StatusInternalServerError, CodeInternal, err)
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae, true
	}
	return nil, false
}

func IsCode(err error, code string) bool {
	ae, ok := As(err)
	return ok && ae.Code == code
}
