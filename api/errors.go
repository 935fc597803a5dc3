// Package api
// Author: momentics <momentics@gmail.com>
//
// Error taxonomy shared by the codecs, the dispatcher and the multiplexer.

package api

import (
	"errors"
	"fmt"
)

// Failure classes. Every error produced by inkwire matches exactly one of
// these under errors.Is.
var (
	ErrMalformedRequest    = errors.New("malformed request")
	ErrUnsupportedFrame    = errors.New("unsupported frame")
	ErrCommandDecode       = errors.New("command decode failure")
	ErrConnectionIO        = errors.New("connection i/o failure")
	ErrCollaborator        = errors.New("collaborator failure")
	ErrResourceUnavailable = errors.New("resource unavailable")
	ErrNotSupported        = errors.New("operation not supported")
	ErrServerClosed        = errors.New("server closed")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeMalformedRequest
	ErrCodeUnsupportedFrame
	ErrCodeCommandDecode
	ErrCodeConnectionIO
	ErrCodeCollaborator
	ErrCodeResourceUnavailable
	ErrCodeInternal
)

// Sentinel maps the code onto its failure class.
func (c ErrorCode) Sentinel() error {
	switch c {
	case ErrCodeMalformedRequest:
		return ErrMalformedRequest
	case ErrCodeUnsupportedFrame:
		return ErrUnsupportedFrame
	case ErrCodeCommandDecode:
		return ErrCommandDecode
	case ErrCodeConnectionIO:
		return ErrConnectionIO
	case ErrCodeCollaborator:
		return ErrCollaborator
	case ErrCodeResourceUnavailable:
		return ErrResourceUnavailable
	default:
		return nil
	}
}

// Error represents a structured error with code, cause and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the failure class of e.
func (e *Error) Is(target error) bool {
	s := e.Code.Sentinel()
	return s != nil && target == s
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WrapError attaches a code and message to cause.
func WrapError(code ErrorCode, cause error, message string) *Error {
	e := NewError(code, message)
	e.Err = cause
	return e
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
