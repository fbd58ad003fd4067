package protocol

// Op identifies an operation carried across the channel.
type Op uint8

const (
	// Inbound: control layer -> renderer.
	OpStartBatch                Op = 0x01
	OpCreateNode                Op = 0x02
	OpUpdateNode                Op = 0x03
	OpDeleteNode                Op = 0x04
	OpUpdateLayout              Op = 0x05
	OpUpdateEventListener       Op = 0x06
	OpUpdateRenderEventListener Op = 0x07
	OpEndBatch                  Op = 0x08
	OpMeasure                   Op = 0x09

	// Outbound: renderer -> control layer.
	OpMeasureResult Op = 0x20
	OpSizeChanged   Op = 0x21
	OpEvent         Op = 0x22
)

// String returns the operation name as used on the control-layer side.
func (op Op) String() string {
	switch op {
	case OpStartBatch:
		return "startBatch"
	case OpCreateNode:
		return "createNode"
	case OpUpdateNode:
		return "updateNode"
	case OpDeleteNode:
		return "deleteNode"
	case OpUpdateLayout:
		return "updateLayout"
	case OpUpdateEventListener:
		return "updateEventListener"
	case OpUpdateRenderEventListener:
		return "updateRenderEventListener"
	case OpEndBatch:
		return "endBatch"
	case OpMeasure:
		return "measure"
	case OpMeasureResult:
		return "measureResult"
	case OpSizeChanged:
		return "sizeChanged"
	case OpEvent:
		return "event"
	default:
		return "unknown"
	}
}

// IsMutation reports whether op is a tree mutation that is only valid inside
// a batch.
func (op Op) IsMutation() bool {
	switch op {
	case OpCreateNode, OpUpdateNode, OpDeleteNode, OpUpdateLayout,
		OpUpdateEventListener, OpUpdateRenderEventListener:
		return true
	}
	return false
}

// IsInbound reports whether op travels from the control layer to the renderer.
func (op Op) IsInbound() bool {
	return op >= OpStartBatch && op <= OpMeasure
}

// ParseOp returns the Op named s.
func ParseOp(s string) (Op, bool) {
	for op := OpStartBatch; op <= OpMeasure; op++ {
		if op.String() == s {
			return op, true
		}
	}
	for _, op := range []Op{OpMeasureResult, OpSizeChanged, OpEvent} {
		if op.String() == s {
			return op, true
		}
	}
	return 0, false
}
