package protocol

import (
	"testing"
)

func FuzzUnmarshal(f *testing.F) {
	seed := NewCodec(NewStringTable())
	for _, v := range []Value{
		Null(),
		Array(String("a"), String("a"), Int32(-1), Double(0.5)),
		Map(Pair{Key: Int32(1), Value: Array(Bool(true))}),
	} {
		data, _ := seed.Marshal(v)
		f.Add(append([]byte(nil), data...))
	}
	f.Add([]byte{0xFF, 0x0D, 'R', 0x05})
	f.Add([]byte{0xFF, 0x0D, 'A', 0xFF, 0xFF, 0x03})

	f.Fuzz(func(t *testing.T, data []byte) {
		c := NewCodec(NewStringTable())
		v, err := c.Unmarshal(data)
		if err != nil {
			if c.Table().Len() != 0 {
				t.Fatalf("table grew to %d on failed decode", c.Table().Len())
			}
			return
		}

		// Anything that decodes re-encodes and decodes to the same value.
		enc := NewCodec(NewStringTable())
		out, err := enc.Marshal(v)
		if err != nil {
			t.Fatalf("Marshal(decoded) error = %v", err)
		}
		back, err := NewCodec(NewStringTable()).Unmarshal(out)
		if err != nil {
			t.Fatalf("Unmarshal(re-encoded) error = %v", err)
		}
		if !back.Equal(v) {
			t.Fatalf("re-encode mismatch: %#v vs %#v", back, v)
		}
	})
}

func FuzzDecodeFrame(f *testing.F) {
	f.Add(NewFrame(OpStartBatch, nil).Encode())
	f.Add((&Frame{Op: OpEvent, Flags: FlagUseCapture, Payload: []byte{1, 2}}).Encode())
	f.Add([]byte{0x09, 0, 0, 0, 0})

	f.Fuzz(func(t *testing.T, data []byte) {
		fr, err := DecodeFrame(data)
		if err != nil {
			return
		}
		if len(fr.Payload) > len(data)-FrameHeaderSize {
			t.Fatalf("payload %d exceeds input %d", len(fr.Payload), len(data))
		}
		if fr.Op.String() == "unknown" {
			t.Fatalf("decoded unknown op %d", fr.Op)
		}
	})
}
