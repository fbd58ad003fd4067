package bridgetest

import (
	"testing"

	"github.com/vango-dev/renderbridge/pkg/protocol"
)

// Peer is the control layer's side of a channel. It keeps one string table
// per direction, like the channel: the table it encodes with tracks the
// channel's inbound table, and the table it decodes events with tracks the
// channel's outbound table, as long as each direction sees the same
// messages in the same order.
type Peer struct {
	enc *protocol.Codec
	dec *protocol.Codec
}

// NewPeer creates a peer with empty string tables.
func NewPeer() *Peer {
	return &Peer{
		enc: protocol.NewCodec(protocol.NewStringTable()),
		dec: protocol.NewCodec(protocol.NewStringTable()),
	}
}

// EncodeTable returns the table inbound messages are encoded against.
func (p *Peer) EncodeTable() *protocol.StringTable {
	return p.enc.Table()
}

// DecodeTable returns the table event params are decoded against.
func (p *Peer) DecodeTable() *protocol.StringTable {
	return p.dec.Table()
}

// Encode encodes args as one inbound message and returns a copy of it.
func (p *Peer) Encode(t testing.TB, args ...protocol.Value) []byte {
	t.Helper()
	data, err := p.enc.MarshalArgs(args)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return append([]byte(nil), data...)
}

// Decode decodes event params sent by the channel.
func (p *Peer) Decode(t testing.TB, data []byte) protocol.Value {
	t.Helper()
	v, err := p.dec.Unmarshal(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}
