package bridge_test

import (
	"errors"
	"testing"

	"github.com/vango-dev/renderbridge/pkg/bridge"
	"github.com/vango-dev/renderbridge/pkg/bridgetest"
	"github.com/vango-dev/renderbridge/pkg/protocol"
)

func TestDispatchEvent(t *testing.T) {
	f := newFixture(t)

	params := map[string]any{"x": 10, "y": 2.5, "target": "button"}
	if err := f.ch.DispatchEvent(ctx, 42, "press", params, true, false); err != nil {
		t.Fatalf("DispatchEvent = %v", err)
	}

	events := f.tr.Events()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.InstanceID != 7 || ev.NodeID != 42 || ev.Name != "press" {
		t.Errorf("event = %+v", ev)
	}
	if !ev.UseCapture || ev.UseBubble {
		t.Errorf("capture/bubble = %v/%v, want true/false", ev.UseCapture, ev.UseBubble)
	}
	if ev.Offset != 0 {
		t.Errorf("Offset = %d, want 0", ev.Offset)
	}
	if ev.Length != len(ev.Params) || ev.Length == 0 {
		t.Errorf("Length = %d, params %d bytes", ev.Length, len(ev.Params))
	}
	if ev.ViewCap < ev.Length {
		t.Errorf("view cap %d smaller than length %d", ev.ViewCap, ev.Length)
	}

	got := f.peer.Decode(t, ev.Params)
	for key, want := range map[string]protocol.Value{
		"x":      protocol.Int32(10),
		"y":      protocol.Double(2.5),
		"target": protocol.String("button"),
	} {
		v, ok := got.Get(key)
		if !ok || !v.Equal(want) {
			t.Errorf("params[%q] = %v, want %v", key, v.Interface(), want.Interface())
		}
	}
	if f.ch.OutboundTableLen() != f.peer.DecodeTable().Len() {
		t.Errorf("tables diverged: channel %d, peer %d", f.ch.OutboundTableLen(), f.peer.DecodeTable().Len())
	}
	if f.ch.InboundTableLen() != 0 {
		t.Errorf("InboundTableLen() = %d, want 0: events must not touch the inbound table", f.ch.InboundTableLen())
	}
}

func TestDispatchEventSuppressed(t *testing.T) {
	tests := []struct {
		name   string
		params any
	}{
		{"nil params", nil},
		{"null value", protocol.Null()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if err := f.ch.DispatchEvent(ctx, 1, "scroll", tt.params, false, true); err != nil {
				t.Fatalf("DispatchEvent = %v, want nil", err)
			}
			if n := len(f.tr.Events()); n != 0 {
				t.Errorf("transport got %d events, want 0", n)
			}
			bridgetest.ExpectNoErrors(t, f.log)
		})
	}
}

func TestDispatchEventEmptyContainerIsSent(t *testing.T) {
	f := newFixture(t)
	if err := f.ch.DispatchEvent(ctx, 1, "focus", map[string]any{}, false, true); err != nil {
		t.Fatal(err)
	}
	events := f.tr.Events()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if v := f.peer.Decode(t, events[0].Params); v.Kind != protocol.KindMap || v.Len() != 0 {
		t.Errorf("params = %v, want empty map", v.Interface())
	}
}

func TestDispatchEventRepeatedStringsUseReferences(t *testing.T) {
	f := newFixture(t)
	params := protocol.Map(protocol.Pair{Key: protocol.String("target"), Value: protocol.String("button")})

	if err := f.ch.DispatchEvent(ctx, 1, "press", params, false, true); err != nil {
		t.Fatal(err)
	}
	if err := f.ch.DispatchEvent(ctx, 1, "press", params, false, true); err != nil {
		t.Fatal(err)
	}

	events := f.tr.Events()
	if len(events[1].Params) >= len(events[0].Params) {
		t.Errorf("second encoding %d bytes, first %d: expected references to shrink it",
			len(events[1].Params), len(events[0].Params))
	}
	for _, ev := range events {
		v := f.peer.Decode(t, ev.Params)
		if target, _ := v.Get("target"); target.Str != "button" {
			t.Errorf("target = %q, want button", target.Str)
		}
	}
}

func TestDispatchEventEncodeFailure(t *testing.T) {
	f := newFixture(t)

	err := f.ch.DispatchEvent(ctx, 1, "press", struct{}{}, false, true)
	if !bridge.IsKind(err, bridge.KindEncodeFailure) {
		t.Fatalf("DispatchEvent = %v, want EncodeFailure", err)
	}
	if len(f.tr.Events()) != 0 {
		t.Error("transport called for unencodable params")
	}
	if f.ch.OutboundTableLen() != 0 {
		t.Errorf("OutboundTableLen() = %d, want 0", f.ch.OutboundTableLen())
	}
}

func TestDispatchEventTooDeep(t *testing.T) {
	f := newFixture(t, bridge.WithLimits(protocol.Limits{MaxDepth: 2}))

	deep := protocol.Array(protocol.Array(protocol.Array(protocol.String("leaf"))))
	err := f.ch.DispatchEvent(ctx, 1, "press", deep, false, true)
	if !protocol.IsReason(err, protocol.ReasonTooDeep) {
		t.Fatalf("DispatchEvent = %v, want TooDeep", err)
	}
	if f.ch.OutboundTableLen() != 0 {
		t.Errorf("OutboundTableLen() = %d after failed encode, want 0", f.ch.OutboundTableLen())
	}
}

func TestDispatchEventTransportFailure(t *testing.T) {
	boom := errors.New("socket closed")
	f := newFixture(t)
	f.tr.FailWith(boom)

	err := f.ch.DispatchEvent(ctx, 1, "press", map[string]any{"x": 1}, false, true)
	if !errors.Is(err, boom) {
		t.Fatalf("DispatchEvent = %v, want %v", err, boom)
	}
	if !bridge.IsKind(err, bridge.KindTransportFailure) {
		t.Errorf("kind = %v, want TransportFailure", err)
	}
	bridgetest.ExpectKinds(t, f.log, bridge.KindTransportFailure)

	f.tr.FailWith(nil).PanicWith("writer gone")
	err = f.ch.DispatchEvent(ctx, 1, "press", map[string]any{"x": 1}, false, true)
	var pe *bridge.PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("DispatchEvent = %v, want PanicError", err)
	}
}

func TestDispatchEventFailedSendRollsBackTable(t *testing.T) {
	f := newFixture(t)

	f.tr.FailWith(errors.New("link down"))
	if err := f.ch.DispatchEvent(ctx, 1, "press", protocol.String("lost"), false, true); err == nil {
		t.Fatal("DispatchEvent should fail")
	}
	f.tr.PanicWith("writer gone")
	_ = f.ch.DispatchEvent(ctx, 1, "press", protocol.String("also lost"), false, true)
	if f.ch.OutboundTableLen() != 0 {
		t.Fatalf("OutboundTableLen() = %d after failed sends, want 0", f.ch.OutboundTableLen())
	}

	// The strings are sent raw once the link is back, and the peer's table
	// stays in step.
	f.tr.FailWith(nil).PanicWith(nil)
	for _, s := range []string{"lost", "kept", "lost"} {
		if err := f.ch.DispatchEvent(ctx, 1, "press", protocol.String(s), false, true); err != nil {
			t.Fatal(err)
		}
	}
	for i, ev := range f.tr.Events() {
		want := []string{"lost", "kept", "lost"}[i]
		if got := f.peer.Decode(t, ev.Params); got.Str != want {
			t.Errorf("event %d params = %q, want %q", i, got.Str, want)
		}
	}
	if f.ch.OutboundTableLen() != f.peer.DecodeTable().Len() {
		t.Errorf("tables diverged: channel %d, peer %d", f.ch.OutboundTableLen(), f.peer.DecodeTable().Len())
	}
}

func TestSizeChanged(t *testing.T) {
	f := newFixture(t, bridge.WithPixelConverter(bridge.PixelConverterFunc(func(px float32) float32 {
		return px / 2
	})))

	if err := f.ch.SizeChanged(ctx, 1080, 1920); err != nil {
		t.Fatalf("SizeChanged = %v", err)
	}
	sizes := f.tr.Sizes()
	if len(sizes) != 1 {
		t.Fatalf("got %d size changes, want 1", len(sizes))
	}
	want := protocol.SizeChanged{InstanceID: 7, Width: 540, Height: 960}
	if sizes[0] != want {
		t.Errorf("size = %+v, want %+v", sizes[0], want)
	}
}

func TestSizeChangedIdentityByDefault(t *testing.T) {
	f := newFixture(t)
	if err := f.ch.SizeChanged(ctx, 320.5, 480); err != nil {
		t.Fatal(err)
	}
	if s := f.tr.Sizes()[0]; s.Width != 320.5 || s.Height != 480 {
		t.Errorf("size = %+v", s)
	}
}

func TestSizeChangedTransportFailure(t *testing.T) {
	f := newFixture(t)
	f.tr.FailWith(errors.New("down"))

	err := f.ch.SizeChanged(ctx, 1, 1)
	if !bridge.IsKind(err, bridge.KindTransportFailure) {
		t.Fatalf("SizeChanged = %v, want TransportFailure", err)
	}
}
