package formfill

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of the fill pipeline. Transport layers map
// kinds onto their own status codes.
type ErrorKind string

const (
	KindInvalidInput   ErrorKind = "INVALID_INPUT"
	KindConfiguration  ErrorKind = "CONFIGURATION_ERROR"
	KindEmptyInput     ErrorKind = "EMPTY_INPUT"
	KindProcessing     ErrorKind = "PROCESSING_ERROR"
	KindNotImplemented ErrorKind = "NOT_IMPLEMENTED"
)

// Sentinels for errors.Is. Every *Error matches the sentinel of its kind.
var (
	ErrInvalidInput   = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrConfiguration  = &Error{Kind: KindConfiguration, Message: "configuration error"}
	ErrEmptyInput     = &Error{Kind: KindEmptyInput, Message: "spreadsheet has no data rows"}
	ErrProcessing     = &Error{Kind: KindProcessing, Message: "processing error"}
	ErrNotImplemented = &Error{Kind: KindNotImplemented, Message: "not implemented"}
)

// Error is a classified pipeline failure.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// NewError builds a classified error wrapping err (which may be nil).
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
// Unclassified errors are reported as KindProcessing.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindProcessing
}
