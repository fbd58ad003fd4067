// Package protocol implements the value codec and wire records exchanged
// between a control layer that computes a UI tree and the renderer that
// materializes it.
//
// # Values
//
// Every payload is a Value: Null, Bool, Int32, Double, String, Array or Map.
// Map keys may be any Value and pairs keep their wire order. Integers that
// fit in 32 bits travel as Int32; all other numbers travel as Double, so
// 2^31 and 0.1 round-trip exactly.
//
// # Message Format
//
// A message is a two byte header followed by one recursively encoded value:
//
//	[0xFF][0x0D][tag][payload]
//
// Tags:
//
//   - '0' Null, 'T' true, 'F' false
//   - 'I' Int32 as a ZigZag varint
//   - 'N' Double as 8 big-endian bytes
//   - 'S' raw string: varint length + UTF-8
//   - 'R' string reference: varint index into the StringTable
//   - 'A' array: varint count + items
//   - 'M' map: varint pair count + key, value, key, value...
//
// An inbound operation's arguments are one message whose value is an Array.
// A zero-length buffer means no arguments.
//
// # String Interning
//
// Each channel owns a StringTable. The first time the encoder sees a string it
// writes it raw and appends it to the table; later occurrences are written as
// a reference. The decoder appends every raw string it reads, so both tables
// grow in the same order and an index means the same string on both sides.
// The Codec alone makes interning decisions, and it rolls the table back when
// an encode or decode fails so a rejected message never leaves the tables
// out of step.
//
// # Usage Example
//
//	table := protocol.NewStringTable()
//	codec := protocol.NewCodec(table)
//
//	data, err := codec.MarshalArgs([]protocol.Value{
//	    protocol.Map(protocol.Pair{Key: protocol.String("id"), Value: protocol.Int32(7)}),
//	})
//
//	peer := protocol.NewCodec(protocol.NewStringTable())
//	args, err := peer.UnmarshalArgs(data)
//
// # Framing
//
// Frame wraps a message with an operation code and length for transports
// that need it; the codec format itself carries no framing.
//
// # File Structure
//
//   - encoder.go, decoder.go: growable buffers (write and read side)
//   - varint.go: varint helpers
//   - stringtable.go: string interning table
//   - value.go: the Value union
//   - codec.go: value encoding and decoding
//   - op.go: operation vocabulary
//   - measure.go: measurement request and packed result
//   - event.go: outbound notifications
//   - frame.go: transport framing
//   - error.go: malformed message errors
//   - limits.go: decoding limits
package protocol
