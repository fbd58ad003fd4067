// Package bridgetest provides test doubles for bridge channels.
//
// Recorder is a Delegate that records every call and can be told to fail or
// panic on chosen ops. Transport records outbound notifications, copying
// event params out of the channel's buffer. Peer plays the control layer:
// it encodes inbound messages and decodes event params with one string table
// per direction, mirroring the channel's two tables.
//
// # Quick Start
//
//	func TestCreate(t *testing.T) {
//	    rec := bridgetest.NewRecorder()
//	    tr := bridgetest.NewTransport()
//	    ch := bridge.NewChannel(1, rec, tr)
//	    peer := bridgetest.NewPeer()
//
//	    ch.Dispatch(ctx, protocol.OpStartBatch, nil)
//	    ch.Dispatch(ctx, protocol.OpCreateNode, peer.Encode(t, node))
//	    ch.Dispatch(ctx, protocol.OpEndBatch, nil)
//
//	    bridgetest.ExpectOps(t, rec,
//	        protocol.OpStartBatch, protocol.OpCreateNode, protocol.OpEndBatch)
//	}
package bridgetest
