package rsvp

import (
	"errors"
	"fmt"
)

// Error is returned by every Engine operation that fails.
//
// Codes:
//   - INVALID: missing or malformed input, rejected before any store access
//   - NOT_FOUND: the referenced guest id does not exist
//   - CONFLICT: the duplicate-name check blocked an insert
//   - STORE: the guest store failed; nothing was changed
//   - NOTIFY: the confirmation could not be sent; the response IS recorded
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is safe to show to the guest or admin.
	Message string

	// GuestID is the guest the operation targeted, when known.
	GuestID int64

	// Err is the underlying cause.
	Err error
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	CodeInvalid  ErrorCode = "INVALID"
	CodeNotFound ErrorCode = "NOT_FOUND"
	CodeConflict ErrorCode = "CONFLICT"
	CodeStore    ErrorCode = "STORE"
	CodeNotify   ErrorCode = "NOTIFY"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.GuestID != 0 {
		msg = fmt.Sprintf("%s (guest=%d)", msg, e.GuestID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf returns the code of an engine error, or "" for any other error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// MessageOf returns the user-facing message of an engine error.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "An unexpected error occurred."
}

func IsInvalid(err error) bool      { return CodeOf(err) == CodeInvalid }
func IsNotFound(err error) bool     { return CodeOf(err) == CodeNotFound }
func IsConflict(err error) bool     { return CodeOf(err) == CodeConflict }
func IsStore(err error) bool        { return CodeOf(err) == CodeStore }
func IsNotification(err error) bool { return CodeOf(err) == CodeNotify }

func invalid(message string) *Error {
	return &Error{Code: CodeInvalid, Message: message}
}

func notFound(id int64) *Error {
	return &Error{Code: CodeNotFound, Message: "Guest not found.", GuestID: id}
}

func conflict(name string) *Error {
	return &Error{Code: CodeConflict, Message: "Guest already exists.", Err: fmt.Errorf("name %q matches an existing guest", name)}
}

func storeFailure(message string, id int64, err error) *Error {
	return &Error{Code: CodeStore, Message: message, GuestID: id, Err: err}
}
