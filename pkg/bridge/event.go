package bridge

import (
	"context"

	"github.com/vango-dev/renderbridge/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
)

// DispatchEvent encodes params and forwards the event to the transport.
//
// params may be nil, a protocol.Value, or any plain value accepted by
// protocol.FromGo. An event whose params are absent (nil or a Null value) or
// encode to zero bytes is dropped without calling the transport. This is not
// an error.
//
// The transport receives a view into the channel's encode buffer rather than
// a copy. When the transport fails, strings the params introduced are
// dropped from the outbound table again. Failures are reported to the error handler and returned; they
// never propagate as panics to the caller.
func (c *Channel) DispatchEvent(ctx context.Context, nodeID uint32, name string, params any, useCapture, useBubble bool) error {
	op := protocol.OpEvent
	if c.closed {
		err := &Error{Op: op, Kind: KindProtocolViolation, Err: ErrChannelClosed}
		c.report(err)
		return err
	}

	_, span := c.startSpan(ctx, op,
		attribute.Int64("renderbridge.node_id", int64(nodeID)),
		attribute.String("renderbridge.event", name),
	)
	sent, err := c.dispatchEvent(nodeID, name, params, useCapture, useBubble)
	span.SetAttributes(attribute.Bool("renderbridge.sent", sent))
	endSpan(span, err)

	switch {
	case err != nil:
		c.metrics.recordEvent("failed")
		c.report(err)
		return err
	case !sent:
		c.metrics.recordEvent("suppressed")
		c.logger.Debug("event suppressed", "node_id", nodeID, "event", name)
	default:
		c.metrics.recordEvent("sent")
	}
	return nil
}

func (c *Channel) dispatchEvent(nodeID uint32, name string, params any, useCapture, useBubble bool) (sent bool, out *Error) {
	op := protocol.OpEvent
	defer func() {
		if r := recover(); r != nil {
			sent = false
			out = &Error{Op: op, Kind: KindEncodeFailure, Err: &PanicError{Value: r}}
		}
	}()

	if params == nil {
		return false, nil
	}
	v, err := protocol.FromGo(params)
	if err != nil {
		return false, &Error{Op: op, Kind: KindEncodeFailure, Err: err}
	}
	if v.IsNull() {
		return false, nil
	}

	mark := c.outbound.Mark()
	data, err := c.outbound.Marshal(v)
	if err != nil {
		return false, &Error{Op: op, Kind: KindEncodeFailure, Err: err}
	}
	if len(data) == 0 {
		return false, nil
	}

	n := &protocol.EventNotification{
		InstanceID: c.instanceID,
		NodeID:     nodeID,
		Name:       name,
		Params:     data[:cap(data)],
		Offset:     0,
		Length:     len(data),
		UseCapture: useCapture,
		UseBubble:  useBubble,
	}
	if terr := guard(op, KindTransportFailure, func() error { return c.transport.SendEvent(n) }); terr != nil {
		// The control layer never saw these params, so neither did its
		// string table.
		c.outbound.Rollback(mark)
		return false, terr
	}
	return true, nil
}

// SizeChanged notifies the control layer that the host surface was resized.
// width and height are host pixels; they are converted to logical units with
// the channel's PixelConverter.
func (c *Channel) SizeChanged(ctx context.Context, width, height float32) error {
	op := protocol.OpSizeChanged
	if c.closed {
		err := &Error{Op: op, Kind: KindProtocolViolation, Err: ErrChannelClosed}
		c.report(err)
		return err
	}

	_, span := c.startSpan(ctx, op)
	n := &protocol.SizeChanged{
		InstanceID: c.instanceID,
		Width:      c.pixels.PxToDp(width),
		Height:     c.pixels.PxToDp(height),
	}
	err := guard(op, KindTransportFailure, func() error { return c.transport.SendSizeChanged(n) })
	endSpan(span, err)

	if err != nil {
		c.report(err)
		return err
	}
	c.logger.Debug("size changed", "width", n.Width, "height", n.Height)
	return nil
}
