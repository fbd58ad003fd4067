package protocol

import (
	"errors"
	"fmt"
)

// ErrMalformedMessage matches every *MalformedMessageError via errors.Is.
var ErrMalformedMessage = errors.New("protocol: malformed message")

// Reason says why a message could not be encoded or decoded.
type Reason uint8

const (
	ReasonTruncated       Reason = iota + 1 // buffer ended before a tag's payload
	ReasonBadHeader                         // missing or wrong format marker
	ReasonUnknownTag                        // tag byte not part of the format
	ReasonBadStringIndex                    // reference past the end of the string table
	ReasonUnsupportedTag                    // tag reserved by the format but not carried here
	ReasonUnsupportedKind                   // encode: value kind has no wire form
	ReasonTooLarge                          // length or count beyond limits
	ReasonTooDeep                           // nesting beyond the depth limit
)

// String returns the string representation of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonTruncated:
		return "Truncated"
	case ReasonBadHeader:
		return "BadHeader"
	case ReasonUnknownTag:
		return "UnknownTag"
	case ReasonBadStringIndex:
		return "BadStringIndex"
	case ReasonUnsupportedTag:
		return "UnsupportedTag"
	case ReasonUnsupportedKind:
		return "UnsupportedKind"
	case ReasonTooLarge:
		return "TooLarge"
	case ReasonTooDeep:
		return "TooDeep"
	default:
		return "Unknown"
	}
}

// MalformedMessageError reports a message that violates the wire format.
type MalformedMessageError struct {
	Reason Reason
	Offset int   // byte offset where decoding stopped; 0 on the encode side
	Tag    byte  // offending tag, when Reason is UnknownTag or UnsupportedTag
	Err    error // underlying cause, if any
}

func (e *MalformedMessageError) Error() string {
	msg := fmt.Sprintf("protocol: malformed message: %s at offset %d", e.Reason, e.Offset)
	if e.Reason == ReasonUnknownTag || e.Reason == ReasonUnsupportedTag {
		msg += fmt.Sprintf(" (tag 0x%02x)", e.Tag)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *MalformedMessageError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrMalformedMessage) hold.
func (e *MalformedMessageError) Is(target error) bool {
	return target == ErrMalformedMessage
}

// IsReason reports whether err is a MalformedMessageError with the given reason.
func IsReason(err error, r Reason) bool {
	var me *MalformedMessageError
	return errors.As(err, &me) && me.Reason == r
}
