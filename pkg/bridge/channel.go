package bridge

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/vango-dev/renderbridge/pkg/protocol"
	"go.opentelemetry.io/otel/trace"
)

// Channel is one instance of the update channel, bound to one rendering
// session. It owns one string table per direction: inbound mutation messages
// are decoded against a mirror of the control layer's encoder table, and
// event params are encoded against a table the control layer mirrors when
// it decodes them. Keeping the directions apart means messages that cross
// on a full-duplex link never claim the same index for different strings.
//
// A Channel has no internal goroutines or locks. Every call on one Channel
// (Dispatch, Measure, DispatchEvent, SizeChanged, Close) must be made from a
// single execution context, or otherwise serialized by the caller.
type Channel struct {
	instanceID int64
	delegate   Delegate
	transport  Transport

	inbound  *protocol.Codec
	outbound *protocol.Codec

	state      State
	batchStart time.Time
	closed     bool

	errors  ErrorHandler
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
	limits  protocol.Limits
	pixels  PixelConverter
}

// NewChannel creates a channel for the given instance. The delegate and
// transport are required.
func NewChannel(instanceID int64, delegate Delegate, transport Transport, opts ...Option) *Channel {
	if delegate == nil {
		panic("bridge: NewChannel requires a delegate")
	}
	if transport == nil {
		panic("bridge: NewChannel requires a transport")
	}

	c := &Channel{
		instanceID: instanceID,
		delegate:   delegate,
		transport:  transport,
		logger:     slog.Default().With("component", "bridge"),
		tracer:     defaultTracer(),
		limits:     protocol.DefaultLimits(),
		pixels:     identityPixels,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("instance_id", instanceID)
	c.inbound = protocol.NewCodecWithLimits(protocol.NewStringTable(), c.limits)
	c.outbound = protocol.NewCodecWithLimits(protocol.NewStringTable(), c.limits)
	c.metrics.channelOpened()
	return c
}

// InstanceID returns the instance this channel is bound to.
func (c *Channel) InstanceID() int64 {
	return c.instanceID
}

// State returns the batch state.
func (c *Channel) State() State {
	return c.state
}

// InboundTableLen returns the number of strings interned from inbound
// messages.
func (c *Channel) InboundTableLen() int {
	if c.closed {
		return 0
	}
	return c.inbound.Table().Len()
}

// OutboundTableLen returns the number of strings interned by event params
// that reached the transport.
func (c *Channel) OutboundTableLen() int {
	if c.closed {
		return 0
	}
	return c.outbound.Table().Len()
}

// Closed reports whether Close has been called.
func (c *Channel) Closed() bool {
	return c.closed
}

// Close releases both string tables. Later calls on the channel report
// ErrChannelClosed. Close is idempotent; the tables are released once.
func (c *Channel) Close() {
	if c.closed {
		return
	}
	c.closed = true
	if c.state == StateBatching {
		c.logger.Warn("channel closed inside a batch")
		c.metrics.batchClosed(time.Since(c.batchStart))
		c.state = StateIdle
	}
	c.inbound.Table().Release()
	c.outbound.Table().Release()
	c.metrics.channelClosed()
}

// report routes err to the error handler, logs it, and counts it.
func (c *Channel) report(err *Error) {
	c.metrics.recordError(err)

	switch err.Kind {
	case KindDelegateFailure, KindTransportFailure:
		c.logger.Error("channel operation failed", "op", err.Op, "kind", err.Kind, "error", err.Err)
	default:
		c.logger.Warn("channel operation rejected", "op", err.Op, "kind", err.Kind, "error", err.Err)
	}

	if c.errors == nil {
		return
	}
	// A panicking error handler must not take the channel down with it.
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("error handler panicked", "panic", r)
		}
	}()
	c.errors.HandleError(err)
}

// guard runs fn and converts a returned error or a panic into an *Error of
// the given kind.
func guard(op protocol.Op, kind ErrorKind, fn func() error) (out *Error) {
	defer func() {
		if r := recover(); r != nil {
			out = &Error{Op: op, Kind: kind, Err: &PanicError{Value: r, Stack: debug.Stack()}}
		}
	}()
	if err := fn(); err != nil {
		return &Error{Op: op, Kind: kind, Err: err}
	}
	return nil
}

// String implements fmt.Stringer for logging.
func (c *Channel) String() string {
	return fmt.Sprintf("Channel(%d, %s)", c.instanceID, c.state)
}
