// Package domainerrors defines the coded error taxonomy surfaced by the
// account core. Every validation failure carries a stable machine-readable
// code and a human-readable message suitable for direct display; stack traces
// and internal identifiers never leak to callers.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable machine-readable error identifier.
type Code string

// Infrastructure and transport-level codes.
const (
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeInternal     Code = "internal"
)

// Account taxonomy. These codes are part of the public contract: clients
// match on them, so they never change once released.
const (
	CodeVerificationMismatch Code = "verification_mismatch"
	CodeInvalidArgument      Code = "invalid_argument"
	CodeAccountFormat        Code = "account_format"
	CodeNicknameFormat       Code = "nickname_format"
	CodePasswordFormat       Code = "password_format"
	CodeAccountKeyword       Code = "account_keyword"
	CodeNicknameKeyword      Code = "nickname_keyword"
	CodeAccountTaken         Code = "account_taken"
	CodeNicknameTaken        Code = "nickname_taken"
	CodeInvalidCredentials   Code = "invalid_credentials"
	CodeWrongOldPassword     Code = "wrong_old_password"
	CodeAccountAlreadySet    Code = "account_already_set"
	CodeBirthdayInvalid      Code = "birthday_invalid"
)

// Error is a domain error with a stable code. The wrapped cause, if any, is
// preserved for logs but never rendered to clients.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a domain error with the given code and display message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a domain error with a formatted display message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// outside the taxonomy (infrastructure failures stay distinct from domain
// validation failures).
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the display message from err. Non-domain errors render a
// generic message so internals never leak.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput, CodeInvalidArgument,
		CodeAccountFormat, CodeNicknameFormat, CodePasswordFormat,
		CodeAccountKeyword, CodeNicknameKeyword, CodeBirthdayInvalid,
		CodeVerificationMismatch:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeInvalidCredentials, CodeWrongOldPassword:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeAccountTaken, CodeNicknameTaken, CodeAccountAlreadySet:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
