package errors

import (
	"errors"
	"fmt"
)

// Error represents a typed domain error. Message is safe to show to the
// chat user; the wrapped error carries operator detail for logs only.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Predefined errors for every failure class an upload attempt can hit.
var (
	ErrWrongFileType  = New("WRONG_FILE_TYPE", "this file format is not supported")
	ErrDownloadFailed = New("DOWNLOAD_FAILED", "could not download the attached file")
	ErrDuplicateCheck = New("DUPLICATE_CHECK_FAILED", "could not check what is currently published")
	ErrConnectFailed  = New("CONNECT_FAILED", "could not connect to the file server")
	ErrUploadFailed   = New("UPLOAD_FAILED", "could not upload the file to the server")
	ErrIndexWrite     = New("INDEX_WRITE_FAILED", "could not update the published metadata")
	ErrNotFound       = New("NOT_FOUND", "file not found on the server")
	ErrDeleteFailed   = New("DELETE_FAILED", "could not delete the file on the server")
	ErrInternal       = New("INTERNAL_ERROR", "something went wrong")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Message)
}

// Is reports whether err carries the same code as target.
func Is(err error, target *Error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == target.Code
}
