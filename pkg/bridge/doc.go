// Package bridge implements the batch protocol and dispatch side of the
// update channel between a control layer and a renderer.
//
// A Channel decodes inbound messages with its own string table, enforces the
// batch bracket, and forwards decoded arguments to a Delegate in arrival
// order:
//
//	startBatch
//	  createNode | updateNode | deleteNode | updateLayout |
//	  updateEventListener | updateRenderEventListener   (any number)
//	endBatch
//
// measure is answered synchronously in either state. Every failure (a
// malformed message, a bracket violation, a delegate error or panic) is
// isolated to the call that caused it, reported to the ErrorHandler, and the
// channel carries on with the next message.
//
// Outbound, DispatchEvent encodes event params against a second string table
// and hands the transport a view into the encode buffer; events without
// params are dropped. SizeChanged forwards resizes in logical units.
//
// # Usage
//
//	ch := bridge.NewChannel(instanceID, tree, transport,
//	    bridge.WithErrorHandler(bridge.ErrorHandlerFunc(func(err *bridge.Error) {
//	        log.Printf("render error: %v", err)
//	    })),
//	    bridge.WithMetrics(bridge.NewMetrics()),
//	)
//	defer ch.Close()
//
//	ch.Dispatch(ctx, protocol.OpStartBatch, nil)
//	ch.Dispatch(ctx, protocol.OpCreateNode, createBuf)
//	ch.Dispatch(ctx, protocol.OpEndBatch, nil)
//
// A Channel is single-threaded: callers serialize all calls on one instance.
// Separate channels are fully independent.
package bridge
