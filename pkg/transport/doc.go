// Package transport carries bridge channels over WebSocket connections.
//
// Each accepted connection gets its own Session, which owns one
// bridge.Channel. Messages in both directions are binary WebSocket messages
// holding a single protocol.Frame:
//
//	Control layer -> Renderer: startBatch .. endBatch, measure
//	Renderer -> Control layer: measureResult, sizeChanged, event
//
// A measure frame is answered with a measureResult frame before the next
// inbound frame is read.
//
// Usage:
//
//	h := transport.NewHandler(transport.DefaultConfig(),
//	    func(r *http.Request, id int64) bridge.Delegate { return newTree(id) },
//	    bridge.WithMetrics(metrics),
//	)
//	http.Handle("/bridge", h)
package transport
