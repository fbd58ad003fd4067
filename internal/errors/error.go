package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
	CategoryProtocol Category = "protocol"
	CategoryServer   Category = "server"
)

// Location is a byte offset inside a named input.
type Location struct {
	Source string
	Offset int
}

// String returns the location as "source+0xOFFSET".
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Source == "" {
		return fmt.Sprintf("+0x%x", l.Offset)
	}
	return fmt.Sprintf("%s+0x%x", l.Source, l.Offset)
}

// BridgeError is a structured error with an optional input location and a
// fix suggestion.
type BridgeError struct {
	// Code is a unique error identifier (e.g., "R100").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the byte offset where the error occurred.
	Location *Location

	// Context holds the input bytes surrounding Location, starting at
	// ContextStart.
	Context      []byte
	ContextStart int

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *BridgeError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *BridgeError) Unwrap() error {
	return e.Wrapped
}

// WithLocation records offset inside data and keeps up to 16 bytes on
// either side of it for display.
func (e *BridgeError) WithLocation(source string, data []byte, offset int) *BridgeError {
	e.Location = &Location{Source: source, Offset: offset}
	e.Context, e.ContextStart = contextBytes(data, offset, 16)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *BridgeError) WithSuggestion(s string) *BridgeError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *BridgeError) WithDetail(d string) *BridgeError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *BridgeError) Wrap(err error) *BridgeError {
	e.Wrapped = err
	return e
}

func contextBytes(data []byte, offset, radius int) ([]byte, int) {
	if len(data) == 0 {
		return nil, 0
	}
	start := offset - radius
	if start < 0 {
		start = 0
	}
	start -= start % 16
	end := offset + radius + 1
	if end > len(data) {
		end = len(data)
	}
	if start >= end {
		return nil, 0
	}
	return data[start:end], start
}

// New creates a BridgeError from a registered error code.
func New(code string) *BridgeError {
	template, ok := registry[code]
	if !ok {
		return &BridgeError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &BridgeError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new BridgeError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *BridgeError {
	return &BridgeError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a BridgeError.
func FromError(err error, code string) *BridgeError {
	if err == nil {
		return nil
	}
	if be, ok := err.(*BridgeError); ok {
		return be
	}
	return New(code).Wrap(err)
}
