package bridge

import (
	"context"

	"github.com/vango-dev/renderbridge/pkg/protocol"
)

// Delegate owns the rendered tree. The channel calls it with fully decoded
// arguments, in arrival order, on the caller's goroutine.
type Delegate interface {
	StartBatch(ctx context.Context) error
	CreateNode(ctx context.Context, nodes []protocol.Value) error
	UpdateNode(ctx context.Context, nodes []protocol.Value) error
	DeleteNode(ctx context.Context, ids []protocol.Value) error
	UpdateLayout(ctx context.Context, layouts []protocol.Value) error
	UpdateEventListener(ctx context.Context, changes []protocol.Value) error
	UpdateRenderEventListener(ctx context.Context, changes []protocol.Value) error
	EndBatch(ctx context.Context) error

	// Measure lays out one node under the given constraints. It must not
	// block for long; there is no cancellation.
	Measure(ctx context.Context, req protocol.MeasureRequest) (protocol.MeasureResult, error)
}

// BatchAborter is implemented by delegates that want to know when an open
// batch is abandoned. A startBatch that arrives while a batch is open ends
// that batch without its endBatch; AbortBatch is called in place of it.
type BatchAborter interface {
	AbortBatch(ctx context.Context) error
}

// ErrorHandler receives every failure the channel isolates.
type ErrorHandler interface {
	HandleError(err *Error)
}

// ErrorHandlerFunc adapts a function to ErrorHandler.
type ErrorHandlerFunc func(err *Error)

// HandleError calls f(err).
func (f ErrorHandlerFunc) HandleError(err *Error) {
	f(err)
}

// Transport carries outbound notifications to the control layer. Calls are
// synchronous and made on the channel caller's goroutine.
type Transport interface {
	SendSizeChanged(n *protocol.SizeChanged) error

	// SendEvent receives a view into the channel's encode buffer. The view
	// is only valid for the duration of the call.
	SendEvent(n *protocol.EventNotification) error
}

// PixelConverter converts host pixels to logical units.
type PixelConverter interface {
	PxToDp(px float32) float32
}

// PixelConverterFunc adapts a function to PixelConverter.
type PixelConverterFunc func(px float32) float32

// PxToDp calls f(px).
func (f PixelConverterFunc) PxToDp(px float32) float32 {
	return f(px)
}

// identityPixels is used when no converter is configured.
var identityPixels = PixelConverterFunc(func(px float32) float32 { return px })
