package protocol

import (
	"errors"
	"io"
)

// Frame constants.
const (
	// FrameHeaderSize is the size of the frame header in bytes.
	FrameHeaderSize = 6

	// MaxPayloadSize caps a single frame payload (16MB).
	MaxPayloadSize = 16 * 1024 * 1024
)

// FrameFlags are optional per-frame flags.
type FrameFlags uint8

const (
	FlagUseCapture FrameFlags = 0x01 // event frames only
	FlagUseBubble  FrameFlags = 0x02 // event frames only
)

// Has reports whether ff contains flag.
func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag != 0
}

// Frame errors.
var (
	ErrFrameTooLarge = errors.New("protocol: frame payload too large")
	ErrInvalidOp     = errors.New("protocol: invalid frame op")
)

// Frame carries one operation over a byte-stream or message transport. The
// payload of an inbound op is exactly one codec message; framing is a
// transport concern and never part of the codec format.
//
// Wire format (6 bytes header + variable payload):
//
//	┌──────────┬──────────┬──────────────────────────────┐
//	│ Op       │ Flags    │ Payload Length               │
//	│ (1 byte) │ (1 byte) │ (4 bytes, big-endian)        │
//	└──────────┴──────────┴──────────────────────────────┘
type Frame struct {
	Op      Op
	Flags   FrameFlags
	Payload []byte
}

// Encode encodes the frame including its header.
func (f *Frame) Encode() []byte {
	e := NewEncoderWithCap(FrameHeaderSize + len(f.Payload))
	f.EncodeTo(e)
	return e.Bytes()
}

// EncodeTo appends the frame to e.
func (f *Frame) EncodeTo(e *Encoder) {
	e.WriteByte(byte(f.Op))
	e.WriteByte(byte(f.Flags))
	e.WriteUint32(uint32(len(f.Payload)))
	e.WriteBytes(f.Payload)
}

// DecodeFrame decodes a frame from a complete message. The payload aliases
// data.
func DecodeFrame(data []byte) (*Frame, error) {
	op, flags, length, err := DecodeFrameHeader(data)
	if err != nil {
		return nil, err
	}
	if length > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	if len(data) < FrameHeaderSize+length {
		return nil, io.ErrUnexpectedEOF
	}
	return &Frame{
		Op:      op,
		Flags:   flags,
		Payload: data[FrameHeaderSize : FrameHeaderSize+length],
	}, nil
}

// DecodeFrameHeader decodes the header, returning op, flags and payload length.
func DecodeFrameHeader(data []byte) (Op, FrameFlags, int, error) {
	if len(data) < FrameHeaderSize {
		return 0, 0, 0, io.ErrUnexpectedEOF
	}
	op := Op(data[0])
	if op.String() == "unknown" {
		return 0, 0, 0, ErrInvalidOp
	}
	length := int(data[2])<<24 | int(data[3])<<16 | int(data[4])<<8 | int(data[5])
	return op, FrameFlags(data[1]), length, nil
}

// ReadFrame reads a complete frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	header := make([]byte, FrameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	op, flags, length, err := DecodeFrameHeader(header)
	if err != nil {
		return nil, err
	}
	if length > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return &Frame{Op: op, Flags: flags, Payload: payload}, nil
}

// WriteFrame writes a complete frame to w.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}
	_, err := w.Write(f.Encode())
	return err
}

// NewFrame creates a frame with no flags.
func NewFrame(op Op, payload []byte) *Frame {
	return &Frame{Op: op, Payload: payload}
}
