package qa

import (
	"errors"
	"fmt"

	"qaforum/internal/db"
)

// Code classifies engine errors. None of them is retryable.
type Code string

const (
	CodeNotFound      Code = "not_found"
	CodeUnauthorized  Code = "unauthorized"
	CodeInvalidState  Code = "invalid_state"
	CodeInvalid       Code = "invalid"
	CodeQuotaExceeded Code = "quota_exceeded"
)

// Error is the engine's error type.
type Error struct {
	Code    Code
	Op      string
	Message string
	Err     error
}

// Sentinels for errors.Is; they match any *Error with the same code.
var (
	ErrNotFound      = &Error{Code: CodeNotFound}
	ErrUnauthorized  = &Error{Code: CodeUnauthorized}
	ErrInvalidState  = &Error{Code: CodeInvalidState}
	ErrInvalid       = &Error{Code: CodeInvalid}
	ErrQuotaExceeded = &Error{Code: CodeQuotaExceeded}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain, or "" for
// errors the engine did not classify.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func newError(code Code, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// storeErr classifies a storage error: missing rows become NotFound,
// anything else is wrapped as is.
func storeErr(op string, what string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, db.ErrNotFound) {
		return &Error{Code: CodeNotFound, Op: op, Message: what + " not found"}
	}
	return fmt.Errorf("%s: %w", op, err)
}
