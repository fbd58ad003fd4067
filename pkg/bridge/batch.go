package bridge

import (
	"context"
	"time"

	"github.com/vango-dev/renderbridge/pkg/protocol"
)

// State is the batch protocol state of a channel.
type State uint8

const (
	StateIdle State = iota
	StateBatching
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateBatching:
		return "Batching"
	default:
		return "Unknown"
	}
}

// transition applies the batch bracket rules for op. It returns a protocol
// violation without changing state when op is not allowed in the current
// state. measure never reaches here: it is valid in either state.
//
//	Idle     --startBatch--> Batching
//	Batching --endBatch----> Idle
//	Batching --mutation----> Batching
//	Batching --startBatch--> Idle (error; the open batch is abandoned)
func (c *Channel) transition(op protocol.Op) *Error {
	switch {
	case op == protocol.OpStartBatch:
		if c.state == StateBatching {
			c.state = StateIdle
			c.metrics.batchClosed(time.Since(c.batchStart))
			return &Error{Op: op, Kind: KindProtocolViolation, Err: ErrUnexpectedStartBatch}
		}
		c.state = StateBatching
		c.batchStart = time.Now()
		c.metrics.batchOpened()

	case op == protocol.OpEndBatch:
		if c.state != StateBatching {
			return &Error{Op: op, Kind: KindProtocolViolation, Err: ErrUnexpectedEndBatch}
		}
		c.state = StateIdle
		c.metrics.batchClosed(time.Since(c.batchStart))

	case op.IsMutation():
		if c.state != StateBatching {
			return &Error{Op: op, Kind: KindProtocolViolation, Err: ErrOutsideBatch}
		}

	default:
		return &Error{Op: op, Kind: KindProtocolViolation, Err: ErrUnknownOp}
	}
	return nil
}

// abortBatch tells the delegate that the open batch was abandoned, if it
// asked to know. A failure here is reported on its own; the violation that
// caused the abort is reported by the caller.
func (c *Channel) abortBatch(ctx context.Context) {
	a, ok := c.delegate.(BatchAborter)
	if !ok {
		return
	}
	if err := guard(protocol.OpStartBatch, KindDelegateFailure, func() error {
		return a.AbortBatch(ctx)
	}); err != nil {
		c.report(err)
	}
}
