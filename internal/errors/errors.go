package errors

import (
	"google.golang.org/grpc/status"
)

// Error is a domain error with a machine-readable code and optional
// metadata used to format user-facing messages.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	cause    error
}

// Error returns the developer-facing message.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithMetadata creates a domain error carrying metadata for message
// formatting and client inspection.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// Wrap creates a domain error that preserves the underlying cause for
// errors.Is/As inspection while presenting the domain code to callers.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// ToGRPCStatus converts the error to a gRPC status using the localized
// user-facing message.
func (e *Error) ToGRPCStatus(locale, userMsg string) error {
	if e == nil {
		return nil
	}
	if userMsg == "" {
		userMsg = e.Message
	}
	return status.Error(e.Code.GRPCCode(), userMsg)
}
