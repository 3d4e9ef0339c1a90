package domain

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable machine readable identifier of a failure.
type ErrorCode string

const (
	CodeBadRequest         ErrorCode = "BAD_REQUEST"
	CodeInvalidPayload     ErrorCode = "INVALID_PAYLOAD"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeBadCredentials     ErrorCode = "BAD_CREDENTIALS"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeCannotSetID        ErrorCode = "CANNOT_SET_ID"
	CodeCannotSetTimestamp ErrorCode = "CANNOT_SET_CREATION_UPDATE_TIME"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeDuplicateEntry     ErrorCode = "DUPLICATE_ENTRY"
	CodeInternal           ErrorCode = "INTERNAL"
)

// FieldError describes a single rejected payload field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned by services for every expected request failure.
type Error struct {
	Code        ErrorCode
	Description string
	Details     []FieldError
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("%s: %s (%d field errors)", e.Code, e.Description, len(e.Details))
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}

func BadRequest(description string) error {
	return &Error{Code: CodeBadRequest, Description: description}
}

func InvalidPayload(description string, details ...FieldError) error {
	return &Error{Code: CodeInvalidPayload, Description: description, Details: details}
}

func Unauthorized(description string) error {
	return &Error{Code: CodeUnauthorized, Description: description}
}

func BadCredentials() error {
	return &Error{Code: CodeBadCredentials, Description: "invalid username or password"}
}

func Forbidden(description string) error {
	return &Error{Code: CodeForbidden, Description: description}
}

func CannotSetID(field string) error {
	return &Error{Code: CodeCannotSetID, Description: fmt.Sprintf("%s is assigned by the server and cannot be set", field)}
}

func CannotSetTimestamp() error {
	return &Error{Code: CodeCannotSetTimestamp, Description: "insert_timestamp and update_timestamp cannot be set"}
}

func NotFound(description string) error {
	return &Error{Code: CodeNotFound, Description: description}
}

func DuplicateEntry(description string) error {
	return &Error{Code: CodeDuplicateEntry, Description: description}
}
