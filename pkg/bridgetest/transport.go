package bridgetest

import (
	"sync"

	"github.com/vango-dev/renderbridge/pkg/protocol"
)

// Event is a recorded event notification. Params is a copy of the view the
// channel handed over; Offset and Length are the values the channel set.
type Event struct {
	InstanceID int64
	NodeID     uint32
	Name       string
	Params     []byte
	Offset     int
	Length     int
	UseCapture bool
	UseBubble  bool

	// ViewCap is cap(Params) of the original view, to check that the
	// channel passed its buffer rather than a trimmed copy.
	ViewCap int
}

// Transport is a bridge.Transport that records notifications.
type Transport struct {
	mu     sync.Mutex
	events []Event
	sizes  []protocol.SizeChanged
	err    error
	panic  any
}

// NewTransport creates an empty transport.
func NewTransport() *Transport {
	return &Transport{}
}

// FailWith makes every send return err. A nil err clears it.
func (t *Transport) FailWith(err error) *Transport {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
	return t
}

// PanicWith makes every send panic with v. A nil v clears it.
func (t *Transport) PanicWith(v any) *Transport {
	t.mu.Lock()
	t.panic = v
	t.mu.Unlock()
	return t
}

// SendEvent implements bridge.Transport.
func (t *Transport) SendEvent(n *protocol.EventNotification) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.panic != nil {
		panic(t.panic)
	}
	if t.err != nil {
		return t.err
	}
	t.events = append(t.events, Event{
		InstanceID: n.InstanceID,
		NodeID:     n.NodeID,
		Name:       n.Name,
		Params:     append([]byte(nil), n.Payload()...),
		Offset:     n.Offset,
		Length:     n.Length,
		UseCapture: n.UseCapture,
		UseBubble:  n.UseBubble,
		ViewCap:    cap(n.Params),
	})
	return nil
}

// SendSizeChanged implements bridge.Transport.
func (t *Transport) SendSizeChanged(n *protocol.SizeChanged) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.panic != nil {
		panic(t.panic)
	}
	if t.err != nil {
		return t.err
	}
	t.sizes = append(t.sizes, *n)
	return nil
}

// Events returns a copy of the recorded events.
func (t *Transport) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, len(t.events))
	copy(out, t.events)
	return out
}

// Sizes returns a copy of the recorded size changes.
func (t *Transport) Sizes() []protocol.SizeChanged {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]protocol.SizeChanged, len(t.sizes))
	copy(out, t.sizes)
	return out
}
