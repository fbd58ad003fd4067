package bridge

import (
	"context"
	"time"

	"github.com/vango-dev/renderbridge/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
)

// Dispatch decodes one inbound message and applies op through the delegate.
//
// Failures are isolated per call: a decode error, a protocol violation, or a
// delegate failure is reported to the error handler and returned, and the
// channel stays usable for the next message. Transports should not act on
// the returned error beyond logging; it has already been reported.
//
// Dispatch handles every inbound op except measure, which is answered
// synchronously by Measure.
func (c *Channel) Dispatch(ctx context.Context, op protocol.Op, data []byte) error {
	if c.closed {
		err := &Error{Op: op, Kind: KindProtocolViolation, Err: ErrChannelClosed}
		c.report(err)
		return err
	}

	start := time.Now()
	ctx, span := c.startSpan(ctx, op, attribute.Int("renderbridge.bytes", len(data)))
	err := c.dispatch(ctx, op, data)
	endSpan(span, err)
	c.metrics.recordMessage(op, len(data), time.Since(start), err)

	if err != nil {
		c.report(err)
		return err
	}
	return nil
}

func (c *Channel) dispatch(ctx context.Context, op protocol.Op, data []byte) *Error {
	if !op.IsInbound() || op == protocol.OpMeasure {
		return &Error{Op: op, Kind: KindProtocolViolation, Err: ErrUnknownOp}
	}

	// Decode before checking the batch state: a message that is about to be
	// rejected still carries raw strings the peer has already interned.
	args, err := c.inbound.UnmarshalArgs(data)
	if err != nil {
		return &Error{Op: op, Kind: KindMalformedMessage, Err: err}
	}

	if verr := c.transition(op); verr != nil {
		if verr.Err == ErrUnexpectedStartBatch {
			c.logger.Warn("open batch abandoned")
			c.abortBatch(ctx)
		}
		return verr
	}

	c.logger.Debug("dispatch", "op", op, "args", len(args))
	return guard(op, KindDelegateFailure, func() error {
		return c.call(ctx, op, args)
	})
}

func (c *Channel) call(ctx context.Context, op protocol.Op, args []protocol.Value) error {
	switch op {
	case protocol.OpStartBatch:
		return c.delegate.StartBatch(ctx)
	case protocol.OpCreateNode:
		return c.delegate.CreateNode(ctx, args)
	case protocol.OpUpdateNode:
		return c.delegate.UpdateNode(ctx, args)
	case protocol.OpDeleteNode:
		return c.delegate.DeleteNode(ctx, args)
	case protocol.OpUpdateLayout:
		return c.delegate.UpdateLayout(ctx, args)
	case protocol.OpUpdateEventListener:
		return c.delegate.UpdateEventListener(ctx, args)
	case protocol.OpUpdateRenderEventListener:
		return c.delegate.UpdateRenderEventListener(ctx, args)
	case protocol.OpEndBatch:
		return c.delegate.EndBatch(ctx)
	}
	return ErrUnknownOp
}

// Measure asks the delegate to measure a node and returns the packed result:
// the float32 bits of the width in the high 32 bits, the height in the low 32
// bits. It is valid in any batch state and does not change it. On failure the
// error is reported and a zero size is returned.
func (c *Channel) Measure(ctx context.Context, nodeID uint32, width float32, widthMode protocol.MeasureMode, height float32, heightMode protocol.MeasureMode) int64 {
	res, _ := c.MeasureNode(ctx, protocol.MeasureRequest{
		NodeID:     nodeID,
		Width:      width,
		WidthMode:  widthMode,
		Height:     height,
		HeightMode: heightMode,
	})
	return res.Pack()
}

// MeasureNode is Measure with an unpacked result.
func (c *Channel) MeasureNode(ctx context.Context, req protocol.MeasureRequest) (protocol.MeasureResult, error) {
	op := protocol.OpMeasure
	if c.closed {
		err := &Error{Op: op, Kind: KindProtocolViolation, Err: ErrChannelClosed}
		c.report(err)
		return protocol.MeasureResult{}, err
	}

	start := time.Now()
	ctx, span := c.startSpan(ctx, op,
		attribute.Int64("renderbridge.node_id", int64(req.NodeID)),
		attribute.String("renderbridge.width_mode", req.WidthMode.String()),
		attribute.String("renderbridge.height_mode", req.HeightMode.String()),
	)

	var res protocol.MeasureResult
	err := guard(op, KindDelegateFailure, func() error {
		var derr error
		res, derr = c.delegate.Measure(ctx, req)
		return derr
	})
	endSpan(span, err)
	c.metrics.recordMessage(op, 0, time.Since(start), err)

	if err != nil {
		c.report(err)
		return protocol.MeasureResult{}, err
	}
	return res, nil
}
