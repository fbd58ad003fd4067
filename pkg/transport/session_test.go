package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/renderbridge/pkg/bridge"
	"github.com/vango-dev/renderbridge/pkg/bridgetest"
	"github.com/vango-dev/renderbridge/pkg/protocol"
)

type harness struct {
	handler  *Handler
	server   *httptest.Server
	recorder *bridgetest.Recorder
	errors   *bridgetest.ErrorLog
}

func newHarness(t *testing.T, config *Config, opts ...bridge.Option) *harness {
	t.Helper()
	h := &harness{
		recorder: bridgetest.NewRecorder(),
		errors:   &bridgetest.ErrorLog{},
	}
	opts = append([]bridge.Option{bridge.WithErrorHandler(h.errors)}, opts...)
	h.handler = NewHandler(config,
		func(r *http.Request, id int64) bridge.Delegate { return h.recorder },
		opts...,
	)
	h.server = httptest.NewServer(h.handler)
	t.Cleanup(func() {
		h.handler.Shutdown()
		h.server.Close()
	})
	return h
}

func wsURL(t *testing.T, baseURL string) string {
	t.Helper()
	if !strings.HasPrefix(baseURL, "http") {
		t.Fatalf("unexpected base URL: %q", baseURL)
	}
	return "ws" + strings.TrimPrefix(baseURL, "http")
}

func (h *harness) dial(t *testing.T, header http.Header) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(t, h.server.URL), header)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// session waits for the server side of the first connection.
func (h *harness) session(t *testing.T) *Session {
	t.Helper()
	waitUntil(t, func() bool { return h.handler.SessionCount() == 1 })
	s, ok := h.handler.Session(1)
	if !ok {
		t.Fatal("session 1 not tracked")
	}
	return s
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 2s")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func writeFrame(t *testing.T, conn *websocket.Conn, op protocol.Op, payload []byte) {
	t.Helper()
	if err := conn.WriteMessage(websocket.BinaryMessage, protocol.NewFrame(op, payload).Encode()); err != nil {
		t.Fatalf("write %s failed: %v", op, err)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) *protocol.Frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame failed: %v", err)
	}
	frame, err := protocol.DecodeFrame(msg)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	return frame
}

func viewNode(id int32) protocol.Value {
	return protocol.Map(
		protocol.Pair{Key: protocol.String("id"), Value: protocol.Int32(id)},
		protocol.Pair{Key: protocol.String("type"), Value: protocol.String("View")},
	)
}

func TestSessionDispatchesBatch(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.dial(t, nil)
	peer := bridgetest.NewPeer()

	writeFrame(t, conn, protocol.OpStartBatch, nil)
	writeFrame(t, conn, protocol.OpCreateNode, peer.Encode(t, viewNode(1), viewNode(2)))
	writeFrame(t, conn, protocol.OpUpdateLayout, peer.Encode(t, protocol.Array(protocol.Int32(1), protocol.Double(10.5))))
	writeFrame(t, conn, protocol.OpEndBatch, nil)

	if !h.recorder.WaitFor(4, 2*time.Second) {
		t.Fatalf("recorded %d calls, want 4", h.recorder.Len())
	}
	bridgetest.ExpectOps(t, h.recorder,
		protocol.OpStartBatch, protocol.OpCreateNode, protocol.OpUpdateLayout, protocol.OpEndBatch)
	bridgetest.ExpectNoErrors(t, h.errors)

	created := h.recorder.Calls()[1].Args
	if len(created) != 2 || !created[1].Equal(viewNode(2)) {
		t.Errorf("createNode args = %#v", created)
	}
}

func TestSessionSkipsBadMessages(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.dial(t, nil)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0x7F, 0, 0, 0, 0, 0}); err != nil {
		t.Fatal(err)
	}
	writeFrame(t, conn, protocol.OpStartBatch, nil)

	if !h.recorder.WaitFor(1, 2*time.Second) {
		t.Fatal("startBatch was not dispatched")
	}
	bridgetest.ExpectOps(t, h.recorder, protocol.OpStartBatch)
}

func TestSessionProtocolViolationKeepsSessionOpen(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.dial(t, nil)
	peer := bridgetest.NewPeer()

	writeFrame(t, conn, protocol.OpCreateNode, peer.Encode(t, viewNode(1)))
	writeFrame(t, conn, protocol.OpStartBatch, nil)

	if !h.recorder.WaitFor(1, 2*time.Second) {
		t.Fatal("startBatch was not dispatched")
	}
	bridgetest.ExpectOps(t, h.recorder, protocol.OpStartBatch)
	bridgetest.ExpectKinds(t, h.errors, bridge.KindProtocolViolation)
}

func TestSessionMeasure(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.dial(t, nil)

	e := protocol.NewEncoder()
	protocol.EncodeMeasureRequestTo(e, &protocol.MeasureRequest{
		NodeID:     3,
		Width:      12.5,
		WidthMode:  protocol.MeasureExactly,
		Height:     7.25,
		HeightMode: protocol.MeasureExactly,
	})
	writeFrame(t, conn, protocol.OpMeasure, e.Bytes())

	frame := readFrame(t, conn)
	if frame.Op != protocol.OpMeasureResult {
		t.Fatalf("op = %v, want %v", frame.Op, protocol.OpMeasureResult)
	}
	packed, err := protocol.DecodeMeasureResult(frame.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if got := protocol.UnpackMeasureResult(packed); got.Width != 12.5 || got.Height != 7.25 {
		t.Errorf("measure result = %+v, want 12.5x7.25", got)
	}

	calls := h.recorder.Calls()
	if len(calls) != 1 || calls[0].Measure.NodeID != 3 {
		t.Errorf("recorded calls = %+v", calls)
	}
}

func TestSessionMalformedMeasureRepliesZero(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.dial(t, nil)

	writeFrame(t, conn, protocol.OpMeasure, []byte{0, 0})

	frame := readFrame(t, conn)
	packed, err := protocol.DecodeMeasureResult(frame.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if frame.Op != protocol.OpMeasureResult || packed != 0 {
		t.Errorf("reply = %v %#x, want measureResult 0", frame.Op, packed)
	}
	if h.recorder.Len() != 0 {
		t.Errorf("delegate called %d times, want 0", h.recorder.Len())
	}
}

func TestSessionSendsEvents(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.dial(t, nil)
	peer := bridgetest.NewPeer()

	// The inbound message teaches the inbound tables "View". The event below
	// is encoded against the outbound tables, which have not seen it.
	writeFrame(t, conn, protocol.OpStartBatch, nil)
	writeFrame(t, conn, protocol.OpCreateNode, peer.Encode(t, viewNode(1)))
	writeFrame(t, conn, protocol.OpEndBatch, nil)
	if !h.recorder.WaitFor(3, 2*time.Second) {
		t.Fatal("batch was not dispatched")
	}

	s := h.session(t)
	params := protocol.Map(
		protocol.Pair{Key: protocol.String("type"), Value: protocol.String("View")},
		protocol.Pair{Key: protocol.String("x"), Value: protocol.Double(4.5)},
	)
	if err := s.DispatchEvent(context.Background(), 1, "onPress", params, false, true); err != nil {
		t.Fatalf("DispatchEvent() error = %v", err)
	}

	frame := readFrame(t, conn)
	if frame.Op != protocol.OpEvent || !frame.Flags.Has(protocol.FlagUseBubble) || frame.Flags.Has(protocol.FlagUseCapture) {
		t.Fatalf("frame = %v flags %#x", frame.Op, frame.Flags)
	}
	n, err := protocol.DecodeEventNotification(frame.Payload, frame.Flags)
	if err != nil {
		t.Fatal(err)
	}
	if n.InstanceID != 1 || n.NodeID != 1 || n.Name != "onPress" || !n.UseBubble {
		t.Errorf("notification = %+v", n)
	}
	if got := peer.Decode(t, n.Payload()); !got.Equal(params) {
		t.Errorf("params = %#v, want %#v", got, params)
	}
	if peer.DecodeTable().Len() != s.Channel().OutboundTableLen() {
		t.Errorf("outbound tables diverged: peer %d, channel %d", peer.DecodeTable().Len(), s.Channel().OutboundTableLen())
	}
	if peer.EncodeTable().Len() != s.Channel().InboundTableLen() {
		t.Errorf("inbound tables diverged: peer %d, channel %d", peer.EncodeTable().Len(), s.Channel().InboundTableLen())
	}
}

func TestSessionCrossingMessagesKeepTablesApart(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.dial(t, nil)
	peer := bridgetest.NewPeer()
	s := h.session(t)

	// The event is in flight while the peer, which has not read it yet,
	// introduces a string of its own.
	if err := s.DispatchEvent(context.Background(), 1, "onPress", protocol.String("click"), false, true); err != nil {
		t.Fatal(err)
	}
	writeFrame(t, conn, protocol.OpStartBatch, nil)
	writeFrame(t, conn, protocol.OpCreateNode, peer.Encode(t, protocol.String("div")))

	frame := readFrame(t, conn)
	n, err := protocol.DecodeEventNotification(frame.Payload, frame.Flags)
	if err != nil {
		t.Fatal(err)
	}
	if got := peer.Decode(t, n.Payload()); got.Str != "click" {
		t.Fatalf("event params = %q, want click", got.Str)
	}

	// Sent by reference this time.
	second := peer.Encode(t, protocol.String("div"))
	if protocol.Tag(second[protocol.HeaderSize+2]) != protocol.TagStringRef {
		t.Fatalf("second createNode = % x, want a string reference", second)
	}
	writeFrame(t, conn, protocol.OpCreateNode, second)
	writeFrame(t, conn, protocol.OpEndBatch, nil)

	if !h.recorder.WaitFor(4, 2*time.Second) {
		t.Fatalf("dispatched %v", h.recorder.Ops())
	}
	calls := h.recorder.Calls()
	for _, i := range []int{1, 2} {
		if got := calls[i].Args[0].Str; got != "div" {
			t.Errorf("createNode %d received %q, want div", i, got)
		}
	}
	bridgetest.ExpectNoErrors(t, h.errors)
}

func TestSessionSuppressesEmptyEvents(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.dial(t, nil)
	s := h.session(t)

	if err := s.DispatchEvent(context.Background(), 1, "onLayout", nil, false, false); err != nil {
		t.Fatal(err)
	}
	if err := s.SizeChanged(context.Background(), 320, 240); err != nil {
		t.Fatal(err)
	}

	// The first frame to arrive is the size change; the event was dropped.
	frame := readFrame(t, conn)
	if frame.Op != protocol.OpSizeChanged {
		t.Fatalf("op = %v, want %v", frame.Op, protocol.OpSizeChanged)
	}
	sc, err := protocol.DecodeSizeChanged(frame.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if sc.InstanceID != 1 || sc.Width != 320 || sc.Height != 240 {
		t.Errorf("size = %+v", sc)
	}
}

func TestSessionPixelConverter(t *testing.T) {
	h := newHarness(t, nil,
		bridge.WithPixelConverter(bridge.PixelConverterFunc(func(px float32) float32 { return px / 2 })),
	)
	conn := h.dial(t, nil)
	if err := h.session(t).SizeChanged(context.Background(), 800, 600); err != nil {
		t.Fatal(err)
	}
	sc, err := protocol.DecodeSizeChanged(readFrame(t, conn).Payload)
	if err != nil {
		t.Fatal(err)
	}
	if sc.Width != 400 || sc.Height != 300 {
		t.Errorf("size = %vx%v, want 400x300", sc.Width, sc.Height)
	}
}

func TestSessionCloseReportsToCallers(t *testing.T) {
	h := newHarness(t, nil)
	h.dial(t, nil)
	s := h.session(t)

	s.Close()
	s.Close()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("Done() not closed")
	}
	if !s.Channel().Closed() {
		t.Error("channel not closed with the session")
	}
	if err := s.SizeChanged(context.Background(), 1, 1); !bridge.IsKind(err, bridge.KindProtocolViolation) {
		t.Errorf("SizeChanged after Close = %v, want ProtocolViolation", err)
	}
	waitUntil(t, func() bool { return h.handler.SessionCount() == 0 })
}
