package errors

import (
	stderrors "errors"
	"fmt"
)

const (
	CodeValidation   = "validation_error"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodePathSecurity = "path_outside_allowed_roots"
	CodeExternalTool = "external_tool_error"
	CodeInternal     = "internal_error"
)

type VideoError struct {
	Code    string
	Message string
	Err     error
}

func (e *VideoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *VideoError) Unwrap() error {
	return e.Err
}

var (
	ErrValidation = func(message string, err error) *VideoError {
		return &VideoError{Code: CodeValidation, Message: message, Err: err}
	}
	ErrForbidden = func(message string) *VideoError {
		return &VideoError{Code: CodeForbidden, Message: message}
	}
	ErrNotFound = func(message string, err error) *VideoError {
		return &VideoError{Code: CodeNotFound, Message: message, Err: err}
	}
	ErrPathSecurity = func(message string) *VideoError {
		return &VideoError{Code: CodePathSecurity, Message: message}
	}
	ErrExternalTool = func(message string, err error) *VideoError {
		return &VideoError{Code: CodeExternalTool, Message: message, Err: err}
	}
	ErrInternal = func(message string, err error) *VideoError {
		return &VideoError{Code: CodeInternal, Message: message, Err: err}
	}
)

// CodeOf returns the taxonomy code of err, or CodeInternal when err is not a
// VideoError.
func CodeOf(err error) string {
	var ve *VideoError
	if stderrors.As(err, &ve) {
		return ve.Code
	}
	return CodeInternal
}
