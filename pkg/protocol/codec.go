package protocol

import (
	"errors"
	"fmt"
	"io"
	"math"
)

// Message header.
const (
	FormatMarker  byte = 0xFF
	FormatVersion byte = 0x0D
	HeaderSize         = 2
)

// Tag is the one-byte type marker preceding every encoded value.
type Tag byte

const (
	TagNull      Tag = '0'
	TagTrue      Tag = 'T'
	TagFalse     Tag = 'F'
	TagInt32     Tag = 'I' // ZigZag varint
	TagDouble    Tag = 'N' // 8 bytes, big-endian IEEE 754
	TagString    Tag = 'S' // varint length + UTF-8; appended to the table
	TagStringRef Tag = 'R' // varint string table index
	TagArray     Tag = 'A' // varint count + items
	TagMap       Tag = 'M' // varint pair count + key/value items

	// Reserved by the format family, never produced here.
	TagUndefined   Tag = '_'
	TagDate        Tag = 'D'
	TagObject      Tag = 'o'
	TagArrayBuffer Tag = 'B'
)

// maxPrealloc caps the capacity reserved for a collection before its items
// are read. A count is only checked against the bytes left, so nested
// collections could otherwise each reserve the size of the whole message.
const maxPrealloc = 64

// ErrTableReleased is returned when a Codec is used after its string table
// was released.
var ErrTableReleased = errors.New("protocol: string table released")

// Codec encodes and decodes Values against one StringTable. It owns one
// buffer per direction; both are created on first use and reset, not
// reallocated, on every call. The codec alone decides whether a string is
// written raw or by reference, so peers sharing the same call order dedup
// identically.
//
// A Codec is not safe for concurrent use.
type Codec struct {
	table  *StringTable
	limits Limits
	enc    *Encoder
	dec    *Decoder
}

// NewCodec creates a codec with default limits.
func NewCodec(table *StringTable) *Codec {
	return NewCodecWithLimits(table, DefaultLimits())
}

// NewCodecWithLimits creates a codec with custom limits.
func NewCodecWithLimits(table *StringTable, limits Limits) *Codec {
	return &Codec{table: table, limits: limits}
}

// Table returns the codec's string table.
func (c *Codec) Table() *StringTable {
	return c.table
}

// Marshal encodes v behind a message header. The returned slice aliases the
// encode buffer and is valid until the next Marshal. On failure the string
// table is left exactly as it was before the call.
func (c *Codec) Marshal(v Value) ([]byte, error) {
	if c.table.Released() {
		return nil, ErrTableReleased
	}
	if c.enc == nil {
		c.enc = NewEncoder()
	} else {
		c.enc.Reset()
	}
	mark := c.table.Len()
	WriteHeader(c.enc)
	if err := encodeValue(c.enc, c.table, v, 0, c.limits.maxDepth()); err != nil {
		c.table.rollback(mark)
		c.enc.Reset()
		return nil, err
	}
	return c.enc.Bytes(), nil
}

// Mark returns the string table position to pass to Rollback.
func (c *Codec) Mark() int {
	return c.table.Len()
}

// Rollback drops every string interned since mark. A sender calls it when a
// message it encoded never reached the peer, so the strings that message
// introduced are written raw again next time.
func (c *Codec) Rollback(mark int) {
	if c.table.Released() {
		return
	}
	c.table.rollback(mark)
}

// MarshalArgs encodes an argument list as a top-level Array. An empty list
// encodes to an empty buffer.
func (c *Codec) MarshalArgs(args []Value) ([]byte, error) {
	if len(args) == 0 {
		if c.enc != nil {
			c.enc.Reset()
		}
		return nil, nil
	}
	return c.Marshal(Array(args...))
}

// Unmarshal decodes one message. Bytes after the first complete value are
// ignored. On failure the string table is rolled back, so a bad message never
// leaves the table out of step with the peer's.
func (c *Codec) Unmarshal(data []byte) (Value, error) {
	if c.table.Released() {
		return Value{}, ErrTableReleased
	}
	if c.dec == nil {
		c.dec = NewDecoder(data)
	} else {
		c.dec.Reset(data)
	}
	mark := c.table.Len()
	v, err := c.unmarshal()
	if err != nil {
		c.table.rollback(mark)
		return Value{}, err
	}
	return v, nil
}

func (c *Codec) unmarshal() (Value, error) {
	if err := ReadHeader(c.dec); err != nil {
		return Value{}, err
	}
	return decodeValue(c.dec, c.table, 0, c.limits.maxDepth())
}

// UnmarshalArgs decodes an argument list. An empty buffer means no
// arguments; a top-level value that is not an Array is treated the same way.
func (c *Codec) UnmarshalArgs(data []byte) ([]Value, error) {
	if len(data) == 0 {
		return nil, nil
	}
	v, err := c.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	if v.Kind != KindArray {
		return nil, nil
	}
	return v.Items, nil
}

// WriteHeader writes the message header.
func WriteHeader(e *Encoder) {
	e.WriteByte(FormatMarker)
	e.WriteByte(FormatVersion)
}

// ReadHeader validates the message header.
func ReadHeader(d *Decoder) error {
	marker, err := d.ReadByte()
	if err != nil {
		return malformed(d, ReasonTruncated, err)
	}
	if marker != FormatMarker {
		return malformed(d, ReasonBadHeader, fmt.Errorf("marker 0x%02x", marker))
	}
	version, err := d.ReadByte()
	if err != nil {
		return malformed(d, ReasonTruncated, err)
	}
	if version != FormatVersion {
		return malformed(d, ReasonBadHeader, fmt.Errorf("version %d", version))
	}
	return nil
}

func encodeValue(e *Encoder, t *StringTable, v Value, depth, maxDepth int) error {
	switch v.Kind {
	case KindNull:
		e.WriteByte(byte(TagNull))

	case KindBool:
		if v.Bool {
			e.WriteByte(byte(TagTrue))
		} else {
			e.WriteByte(byte(TagFalse))
		}

	case KindInt32:
		e.WriteByte(byte(TagInt32))
		e.WriteSvarint(int64(v.Int))

	case KindDouble:
		e.WriteByte(byte(TagDouble))
		e.WriteFloat64(v.Float)

	case KindString:
		encodeString(e, t, v.Str)

	case KindArray:
		if depth >= maxDepth {
			return &MalformedMessageError{Reason: ReasonTooDeep}
		}
		e.WriteByte(byte(TagArray))
		e.WriteUvarint(uint64(len(v.Items)))
		for _, item := range v.Items {
			if err := encodeValue(e, t, item, depth+1, maxDepth); err != nil {
				return err
			}
		}

	case KindMap:
		if depth >= maxDepth {
			return &MalformedMessageError{Reason: ReasonTooDeep}
		}
		e.WriteByte(byte(TagMap))
		e.WriteUvarint(uint64(len(v.Pairs)))
		for _, p := range v.Pairs {
			if err := encodeValue(e, t, p.Key, depth+1, maxDepth); err != nil {
				return err
			}
			if err := encodeValue(e, t, p.Value, depth+1, maxDepth); err != nil {
				return err
			}
		}

	default:
		return &MalformedMessageError{
			Reason: ReasonUnsupportedKind,
			Err:    fmt.Errorf("kind %s", v.Kind),
		}
	}
	return nil
}

func encodeString(e *Encoder, t *StringTable, s string) {
	idx, seen := t.Intern(s)
	if seen {
		e.WriteByte(byte(TagStringRef))
		e.WriteUvarint(uint64(idx))
		return
	}
	e.WriteByte(byte(TagString))
	e.WriteString(s)
}

func decodeValue(d *Decoder, t *StringTable, depth, maxDepth int) (Value, error) {
	start := d.Position()
	b, err := d.ReadByte()
	if err != nil {
		return Value{}, malformed(d, ReasonTruncated, err)
	}

	switch tag := Tag(b); tag {
	case TagNull:
		return Null(), nil

	case TagTrue:
		return Bool(true), nil

	case TagFalse:
		return Bool(false), nil

	case TagInt32:
		n, err := d.ReadSvarint()
		if err != nil {
			return Value{}, malformed(d, classify(err), err)
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return Value{}, malformed(d, ReasonTooLarge, fmt.Errorf("int32 out of range: %d", n))
		}
		return Int32(int32(n)), nil

	case TagDouble:
		f, err := d.ReadFloat64()
		if err != nil {
			return Value{}, malformed(d, classify(err), err)
		}
		return Double(f), nil

	case TagString:
		s, err := d.ReadString()
		if err != nil {
			return Value{}, malformed(d, classify(err), err)
		}
		t.Intern(s)
		return String(s), nil

	case TagStringRef:
		idx, err := d.ReadUvarint()
		if err != nil {
			return Value{}, malformed(d, classify(err), err)
		}
		s, err := t.Resolve(idx)
		if err != nil {
			return Value{}, malformed(d, ReasonBadStringIndex, err)
		}
		return String(s), nil

	case TagArray:
		if depth >= maxDepth {
			return Value{}, malformed(d, ReasonTooDeep, nil)
		}
		count, err := d.ReadCollectionCount()
		if err != nil {
			return Value{}, malformed(d, classify(err), err)
		}
		items := make([]Value, 0, min(count, maxPrealloc))
		for range count {
			item, err := decodeValue(d, t, depth+1, maxDepth)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return Array(items...), nil

	case TagMap:
		if depth >= maxDepth {
			return Value{}, malformed(d, ReasonTooDeep, nil)
		}
		count, err := d.ReadCollectionCount()
		if err != nil {
			return Value{}, malformed(d, classify(err), err)
		}
		pairs := make([]Pair, 0, min(count, maxPrealloc))
		for range count {
			var p Pair
			if p.Key, err = decodeValue(d, t, depth+1, maxDepth); err != nil {
				return Value{}, err
			}
			if p.Value, err = decodeValue(d, t, depth+1, maxDepth); err != nil {
				return Value{}, err
			}
			pairs = append(pairs, p)
		}
		return Map(pairs...), nil

	case TagUndefined, TagDate, TagObject, TagArrayBuffer:
		return Value{}, &MalformedMessageError{Reason: ReasonUnsupportedTag, Offset: start, Tag: b}

	default:
		return Value{}, &MalformedMessageError{Reason: ReasonUnknownTag, Offset: start, Tag: b}
	}
}

func malformed(d *Decoder, r Reason, err error) *MalformedMessageError {
	return &MalformedMessageError{Reason: r, Offset: d.Position(), Err: err}
}

// classify maps buffer-level read errors onto a Reason.
func classify(err error) Reason {
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		return ReasonTruncated
	case errors.Is(err, ErrAllocationTooLarge),
		errors.Is(err, ErrCollectionTooLarge),
		errors.Is(err, ErrVarintOverflow):
		return ReasonTooLarge
	default:
		return ReasonTruncated
	}
}
