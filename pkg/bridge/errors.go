package bridge

import (
	"errors"
	"fmt"

	"github.com/vango-dev/renderbridge/pkg/protocol"
)

// Protocol violations. These are caller errors, not data errors: they are
// reported and the channel keeps working.
var (
	ErrUnexpectedStartBatch = errors.New("bridge: startBatch while a batch is open")
	ErrUnexpectedEndBatch   = errors.New("bridge: endBatch with no open batch")
	ErrOutsideBatch         = errors.New("bridge: tree mutation outside a batch")
	ErrUnknownOp            = errors.New("bridge: operation cannot be dispatched")
	ErrChannelClosed        = errors.New("bridge: channel closed")
)

// ErrorKind classifies an Error.
type ErrorKind uint8

const (
	KindMalformedMessage  ErrorKind = iota + 1 // inbound message failed to decode
	KindProtocolViolation                      // batch bracketing or op misuse
	KindDelegateFailure                        // delegate returned an error or panicked
	KindEncodeFailure                          // outbound params could not be encoded
	KindTransportFailure                       // transport rejected an outbound notification
)

// String returns the string representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindMalformedMessage:
		return "MalformedMessage"
	case KindProtocolViolation:
		return "ProtocolViolation"
	case KindDelegateFailure:
		return "DelegateFailure"
	case KindEncodeFailure:
		return "EncodeFailure"
	case KindTransportFailure:
		return "TransportFailure"
	default:
		return "Unknown"
	}
}

// label is the metrics label for the kind.
func (k ErrorKind) label() string {
	switch k {
	case KindMalformedMessage:
		return "malformed_message"
	case KindProtocolViolation:
		return "protocol_violation"
	case KindDelegateFailure:
		return "delegate_failure"
	case KindEncodeFailure:
		return "encode_failure"
	case KindTransportFailure:
		return "transport_failure"
	default:
		return "unknown"
	}
}

// Error is the structured failure routed to the ErrorHandler. Err is one of
// the sentinels above, a *protocol.MalformedMessageError, or the cause raised
// by a collaborator.
type Error struct {
	Op   protocol.Op
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("bridge: %s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a panicking collaborator.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, k ErrorKind) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == k
}
