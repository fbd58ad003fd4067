package protocol

import "math"

// defaultBufferCap is the initial capacity of a lazily created buffer.
const defaultBufferCap = 256

// Encoder is the write side of a growable buffer. Writes append to a backing
// slice that grows geometrically and is never shrunk by Reset, so one Encoder
// can be reused for every outbound message of a channel.
//
// An Encoder is not safe for concurrent use.
type Encoder struct {
	buf []byte
}

// NewEncoder creates an encoder with the default initial capacity.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, defaultBufferCap)}
}

// NewEncoderWithCap creates an encoder with the specified initial capacity.
func NewEncoderWithCap(cap int) *Encoder {
	return &Encoder{buf: make([]byte, 0, cap)}
}

// Reset clears the logical content, keeping the backing storage.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// Bytes returns the encoded bytes. The slice aliases the backing storage and
// is valid until the next Reset or write.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes written since the last Reset.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Cap returns the capacity of the backing storage.
func (e *Encoder) Cap() int {
	return cap(e.buf)
}

// WriteByte appends a single byte. It never fails; the signature differs from
// io.ByteWriter on purpose.
func (e *Encoder) WriteByte(b byte) {
	e.buf = append(e.buf, b)
}

// WriteBytes appends raw bytes.
func (e *Encoder) WriteBytes(b []byte) {
	e.buf = append(e.buf, b...)
}

// WriteUvarint appends an unsigned varint.
func (e *Encoder) WriteUvarint(v uint64) {
	for v >= 0x80 {
		e.buf = append(e.buf, byte(v)|0x80)
		v >>= 7
	}
	e.buf = append(e.buf, byte(v))
}

// WriteSvarint appends a signed varint using ZigZag encoding.
func (e *Encoder) WriteSvarint(v int64) {
	e.WriteUvarint(zigzag(v))
}

// WriteString appends a varint length followed by the string bytes.
func (e *Encoder) WriteString(s string) {
	e.WriteUvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// WriteLenBytes appends a varint length followed by b.
func (e *Encoder) WriteLenBytes(b []byte) {
	e.WriteUvarint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

// WriteUint32 appends a big-endian uint32.
func (e *Encoder) WriteUint32(v uint32) {
	e.buf = append(e.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// WriteUint64 appends a big-endian uint64.
func (e *Encoder) WriteUint64(v uint64) {
	e.buf = append(e.buf,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// WriteInt64 appends a big-endian int64.
func (e *Encoder) WriteInt64(v int64) {
	e.WriteUint64(uint64(v))
}

// WriteFloat32 appends the IEEE 754 bits of v, big-endian.
func (e *Encoder) WriteFloat32(v float32) {
	e.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 appends the IEEE 754 bits of v, big-endian.
func (e *Encoder) WriteFloat64(v float64) {
	e.WriteUint64(math.Float64bits(v))
}
