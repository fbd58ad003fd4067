package protocol

import (
	"errors"
	"io"
	"math"
	"testing"
)

func TestEncoderDecoder(t *testing.T) {
	e := NewEncoder()

	e.WriteByte(0x42)
	e.WriteBytes([]byte{0x01, 0x02, 0x03})
	e.WriteUvarint(12345)
	e.WriteSvarint(-9876)
	e.WriteString("hello world")
	e.WriteLenBytes([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	e.WriteUint32(0x12345678)
	e.WriteUint64(0x123456789ABCDEF0)
	e.WriteInt64(-123456789012345)
	e.WriteFloat32(3.14159)
	e.WriteFloat64(2.718281828459045)

	d := NewDecoder(e.Bytes())

	b, err := d.ReadByte()
	if err != nil || b != 0x42 {
		t.Errorf("ReadByte() = %x, %v; want 0x42, nil", b, err)
	}

	bs, err := d.ReadBytes(3)
	if err != nil || string(bs) != "\x01\x02\x03" {
		t.Errorf("ReadBytes(3) = %v, %v; want [1 2 3], nil", bs, err)
	}

	uv, err := d.ReadUvarint()
	if err != nil || uv != 12345 {
		t.Errorf("ReadUvarint() = %d, %v; want 12345, nil", uv, err)
	}

	sv, err := d.ReadSvarint()
	if err != nil || sv != -9876 {
		t.Errorf("ReadSvarint() = %d, %v; want -9876, nil", sv, err)
	}

	s, err := d.ReadString()
	if err != nil || s != "hello world" {
		t.Errorf("ReadString() = %q, %v; want \"hello world\", nil", s, err)
	}

	lb, err := d.ReadLenBytes()
	if err != nil || len(lb) != 4 || lb[0] != 0xDE {
		t.Errorf("ReadLenBytes() = %v, %v; want [DE AD BE EF], nil", lb, err)
	}

	u32, err := d.ReadUint32()
	if err != nil || u32 != 0x12345678 {
		t.Errorf("ReadUint32() = %x, %v; want 0x12345678, nil", u32, err)
	}

	u64, err := d.ReadUint64()
	if err != nil || u64 != 0x123456789ABCDEF0 {
		t.Errorf("ReadUint64() = %x, %v; want 0x123456789ABCDEF0, nil", u64, err)
	}

	i64, err := d.ReadInt64()
	if err != nil || i64 != -123456789012345 {
		t.Errorf("ReadInt64() = %d, %v; want -123456789012345, nil", i64, err)
	}

	f32, err := d.ReadFloat32()
	if err != nil || f32 != 3.14159 {
		t.Errorf("ReadFloat32() = %v, %v; want 3.14159, nil", f32, err)
	}

	f64, err := d.ReadFloat64()
	if err != nil || f64 != 2.718281828459045 {
		t.Errorf("ReadFloat64() = %v, %v; want 2.718281828459045, nil", f64, err)
	}

	if !d.EOF() {
		t.Errorf("Expected EOF, but %d bytes remaining", d.Remaining())
	}
}

func TestEncoderBigEndian(t *testing.T) {
	e := NewEncoder()
	e.WriteUint32(0x01020304)
	e.WriteFloat64(1.0)

	want := []byte{0x01, 0x02, 0x03, 0x04, 0x3F, 0xF0, 0, 0, 0, 0, 0, 0}
	if string(e.Bytes()) != string(want) {
		t.Errorf("Bytes() = % x, want % x", e.Bytes(), want)
	}
}

func TestEncoderReset(t *testing.T) {
	e := NewEncoder()
	e.WriteString("test")
	if e.Len() == 0 {
		t.Error("Encoder should have data after write")
	}
	capBefore := e.Cap()

	e.Reset()
	if e.Len() != 0 {
		t.Error("Encoder should be empty after reset")
	}
	if e.Cap() != capBefore {
		t.Errorf("Cap() after Reset = %d, want %d", e.Cap(), capBefore)
	}

	e.WriteString("new data")
	if e.Len() == 0 {
		t.Error("Encoder should have data after write following reset")
	}
}

func TestEncoderGrows(t *testing.T) {
	e := NewEncoderWithCap(4)
	payload := make([]byte, 1000)
	for i := range payload {
		payload[i] = byte(i)
	}
	e.WriteBytes(payload)
	if e.Len() != 1000 {
		t.Fatalf("Len() = %d, want 1000", e.Len())
	}
	if e.Cap() < 1000 {
		t.Errorf("Cap() = %d, want >= 1000", e.Cap())
	}
	if e.Bytes()[999] != byte(999%256) {
		t.Error("payload corrupted during growth")
	}
}

func TestEncoderWithCap(t *testing.T) {
	e := NewEncoderWithCap(1024)
	if e.Cap() < 1024 {
		t.Errorf("Expected capacity >= 1024, got %d", e.Cap())
	}
}

func TestDecoderErrors(t *testing.T) {
	d := NewDecoder([]byte{})

	reads := []struct {
		name string
		read func() error
	}{
		{"ReadByte", func() error { _, err := d.ReadByte(); return err }},
		{"ReadUint32", func() error { _, err := d.ReadUint32(); return err }},
		{"ReadUint64", func() error { _, err := d.ReadUint64(); return err }},
		{"ReadFloat32", func() error { _, err := d.ReadFloat32(); return err }},
		{"ReadFloat64", func() error { _, err := d.ReadFloat64(); return err }},
		{"ReadUvarint", func() error { _, err := d.ReadUvarint(); return err }},
		{"ReadBytes", func() error { _, err := d.ReadBytes(1); return err }},
	}
	for _, r := range reads {
		if err := r.read(); err != io.ErrUnexpectedEOF {
			t.Errorf("%s on empty = %v, want io.ErrUnexpectedEOF", r.name, err)
		}
	}

	d = NewDecoder([]byte{10}) // length 10, no data
	if _, err := d.ReadString(); err != io.ErrUnexpectedEOF {
		t.Errorf("ReadString on short = %v, want io.ErrUnexpectedEOF", err)
	}

	d = NewDecoder([]byte{0x80, 0x80, 0x80})
	if _, err := d.ReadUvarint(); err != io.ErrUnexpectedEOF {
		t.Errorf("ReadUvarint(incomplete) = %v, want io.ErrUnexpectedEOF", err)
	}

	overflow := make([]byte, 11)
	for i := range overflow {
		overflow[i] = 0x80
	}
	d = NewDecoder(overflow)
	if _, err := d.ReadUvarint(); !errors.Is(err, ErrVarintOverflow) {
		t.Errorf("ReadUvarint(overflow) = %v, want ErrVarintOverflow", err)
	}
}

func TestDecoderCollectionCount(t *testing.T) {
	tests := []struct {
		name    string
		count   uint64
		extra   int
		wantErr error
	}{
		{"fits", 3, 3, nil},
		{"more than remaining", 5, 2, io.ErrUnexpectedEOF},
		{"over limit", MaxCollectionCount + 1, 0, ErrCollectionTooLarge},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := NewEncoder()
			e.WriteUvarint(tc.count)
			e.WriteBytes(make([]byte, tc.extra))

			n, err := NewDecoder(e.Bytes()).ReadCollectionCount()
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("ReadCollectionCount() error = %v, want %v", err, tc.wantErr)
			}
			if err == nil && uint64(n) != tc.count {
				t.Errorf("ReadCollectionCount() = %d, want %d", n, tc.count)
			}
		})
	}
}

func TestDecoderOwnsItsBuffer(t *testing.T) {
	src := []byte{1, 2, 3}
	d := NewDecoder(src)
	src[0] = 9

	b, _ := d.ReadByte()
	if b != 1 {
		t.Errorf("decoder saw caller mutation: got %d, want 1", b)
	}

	d.Reset([]byte{7})
	if d.Len() != 1 || d.Position() != 0 {
		t.Errorf("after Reset: Len=%d Position=%d", d.Len(), d.Position())
	}
}

func TestDecoderRemaining(t *testing.T) {
	d := NewDecoder([]byte{1, 2, 3, 4, 5})

	if d.Remaining() != 5 {
		t.Errorf("Initial Remaining() = %d, want 5", d.Remaining())
	}

	d.ReadByte()
	if d.Remaining() != 4 {
		t.Errorf("Remaining() after ReadByte = %d, want 4", d.Remaining())
	}

	d.ReadBytes(2)
	if d.Remaining() != 2 {
		t.Errorf("Remaining() after ReadBytes(2) = %d, want 2", d.Remaining())
	}
}

func TestEmptyString(t *testing.T) {
	e := NewEncoder()
	e.WriteString("")

	d := NewDecoder(e.Bytes())
	s, err := d.ReadString()
	if err != nil || s != "" {
		t.Errorf("ReadString() = %q, %v; want \"\", nil", s, err)
	}
}

func TestEdgeCases(t *testing.T) {
	e := NewEncoder()
	e.WriteUint32(math.MaxUint32)
	e.WriteUint64(math.MaxUint64)
	e.WriteInt64(math.MaxInt64)
	e.WriteInt64(math.MinInt64)
	e.WriteFloat32(math.MaxFloat32)
	e.WriteFloat32(math.SmallestNonzeroFloat32)
	e.WriteFloat64(math.MaxFloat64)
	e.WriteFloat64(math.SmallestNonzeroFloat64)

	d := NewDecoder(e.Bytes())

	if u32, _ := d.ReadUint32(); u32 != math.MaxUint32 {
		t.Errorf("MaxUint32: got %d", u32)
	}
	if u64, _ := d.ReadUint64(); u64 != math.MaxUint64 {
		t.Errorf("MaxUint64: got %d", u64)
	}
	if i64, _ := d.ReadInt64(); i64 != math.MaxInt64 {
		t.Errorf("MaxInt64: got %d", i64)
	}
	if i64, _ := d.ReadInt64(); i64 != math.MinInt64 {
		t.Errorf("MinInt64: got %d", i64)
	}
	if f32, _ := d.ReadFloat32(); f32 != math.MaxFloat32 {
		t.Errorf("MaxFloat32: got %v", f32)
	}
	if f32, _ := d.ReadFloat32(); f32 != math.SmallestNonzeroFloat32 {
		t.Errorf("SmallestFloat32: got %v", f32)
	}
	if f64, _ := d.ReadFloat64(); f64 != math.MaxFloat64 {
		t.Errorf("MaxFloat64: got %v", f64)
	}
	if f64, _ := d.ReadFloat64(); f64 != math.SmallestNonzeroFloat64 {
		t.Errorf("SmallestFloat64: got %v", f64)
	}
}
