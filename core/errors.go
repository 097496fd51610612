package core

import (
	"net/http"

	"github.com/pkg/errors"
)

// Backend failure kinds.
var (
	// ErrConnection means the backend could not be reached or did not answer in time.
	ErrConnection = errors.New("connection error")
	// ErrMalformedResponse means the backend answered with a body of unexpected shape.
	ErrMalformedResponse = errors.New("malformed response")
)

// RejectedError is a non-2xx backend response, with its `detail` message when present.
type RejectedError struct {
	Status int
	Detail string
}

func (err *RejectedError) Error() string {
	if err.Detail != "" {
		return err.Detail
	}
	return http.StatusText(err.Status)
}

// UserMessage returns the text to show for a failed backend call:
// connMsg when the backend was unreachable or answered something unreadable,
// the backend detail verbatim for rejections, fallback otherwise.
func UserMessage(err error, connMsg, fallback string) string {
	cause := errors.Cause(err)
	if cause == ErrConnection || cause == ErrMalformedResponse {
		return connMsg
	}
	if rej, ok := cause.(*RejectedError); ok && rej.Detail != "" {
		return rej.Detail
	}
	return fallback
}

// FieldError is used to indicate an error with a specific form field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
