package protocol

import (
	"fmt"
	"math"
)

// MeasureMode is the layout constraint kind for one axis. The codec passes it
// through untouched.
type MeasureMode int32

const (
	MeasureUndefined MeasureMode = 0 // unconstrained
	MeasureExactly   MeasureMode = 1
	MeasureAtMost    MeasureMode = 2
)

// String returns the string representation of the mode.
func (m MeasureMode) String() string {
	switch m {
	case MeasureUndefined:
		return "Undefined"
	case MeasureExactly:
		return "Exactly"
	case MeasureAtMost:
		return "AtMost"
	default:
		return fmt.Sprintf("MeasureMode(%d)", int32(m))
	}
}

// MeasureRequest holds the arguments of a measure call.
type MeasureRequest struct {
	NodeID     uint32
	Width      float32
	WidthMode  MeasureMode
	Height     float32
	HeightMode MeasureMode
}

// MeasureResult is a measured size. It is packed into a single int64 only at
// the boundary.
type MeasureResult struct {
	Width  float32
	Height float32
}

// Pack returns the boundary form: the float32 bits of Width in the high 32
// bits and the float32 bits of Height in the low 32 bits.
func (r MeasureResult) Pack() int64 {
	return int64(uint64(math.Float32bits(r.Width))<<32 | uint64(math.Float32bits(r.Height)))
}

// UnpackMeasureResult reverses MeasureResult.Pack.
func UnpackMeasureResult(packed int64) MeasureResult {
	u := uint64(packed)
	return MeasureResult{
		Width:  math.Float32frombits(uint32(u >> 32)),
		Height: math.Float32frombits(uint32(u)),
	}
}

// EncodeMeasureRequestTo writes a measure request.
func EncodeMeasureRequestTo(e *Encoder, r *MeasureRequest) {
	e.WriteUint32(r.NodeID)
	e.WriteFloat32(r.Width)
	e.WriteSvarint(int64(r.WidthMode))
	e.WriteFloat32(r.Height)
	e.WriteSvarint(int64(r.HeightMode))
}

// DecodeMeasureRequest reads a measure request.
func DecodeMeasureRequest(data []byte) (*MeasureRequest, error) {
	d := NewDecoder(data)
	var r MeasureRequest
	var err error
	if r.NodeID, err = d.ReadUint32(); err != nil {
		return nil, err
	}
	if r.Width, err = d.ReadFloat32(); err != nil {
		return nil, err
	}
	wm, err := d.ReadSvarint()
	if err != nil {
		return nil, err
	}
	if r.Height, err = d.ReadFloat32(); err != nil {
		return nil, err
	}
	hm, err := d.ReadSvarint()
	if err != nil {
		return nil, err
	}
	r.WidthMode = MeasureMode(wm)
	r.HeightMode = MeasureMode(hm)
	return &r, nil
}
