package transport

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/renderbridge/pkg/bridge"
	"github.com/vango-dev/renderbridge/pkg/protocol"
)

// ErrSessionClosed is returned when writing to a closed session.
var ErrSessionClosed = errors.New("transport: session closed")

// Session binds one WebSocket connection to one bridge.Channel. Inbound
// frames are dispatched in the order they are read; outbound notifications
// are written as frames on the same connection.
//
// The channel is not safe for concurrent use, so every call into it
// (from ReadLoop, SizeChanged or DispatchEvent) holds the session mutex.
type Session struct {
	conn    *websocket.Conn
	channel *bridge.Channel
	config  *Config
	logger  *slog.Logger

	mu     sync.Mutex // serializes channel calls and connection writes
	closed atomic.Bool
	done   chan struct{}
}

// NewSession creates a session on conn and a channel that uses the session
// as its transport.
func NewSession(conn *websocket.Conn, instanceID int64, delegate bridge.Delegate, config *Config, opts ...bridge.Option) *Session {
	s := &Session{
		conn:   conn,
		config: config.withDefaults(),
		logger: slog.Default().With("component", "transport", "instance_id", instanceID),
		done:   make(chan struct{}),
	}
	s.channel = bridge.NewChannel(instanceID, delegate, s, opts...)
	return s
}

// Channel returns the session's channel. Callers must not use it directly
// while ReadLoop is running; use the session's methods instead.
func (s *Session) Channel() *bridge.Channel {
	return s.channel
}

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// ReadLoop reads frames until the connection fails, ctx is cancelled, or the
// session is closed. It always closes the session before returning.
func (s *Session) ReadLoop(ctx context.Context) {
	defer s.Close()

	s.conn.SetReadLimit(s.config.MaxMessageSize)
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		msgType, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) && !s.closed.Load() {
				s.logger.Error("read error", "error", err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			s.logger.Warn("ignoring non-binary message", "type", msgType)
			continue
		}

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.logger.Warn("frame decode error", "error", err)
			continue
		}
		s.handleFrame(ctx, frame)
	}
}

// handleFrame applies one inbound frame. Errors have already been reported
// by the channel; nothing here stops the loop.
func (s *Session) handleFrame(ctx context.Context, frame *protocol.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case frame.Op == protocol.OpMeasure:
		req, err := protocol.DecodeMeasureRequest(frame.Payload)
		if err != nil {
			s.logger.Warn("measure decode error", "error", err)
			s.writeFrameLocked(protocol.NewFrame(protocol.OpMeasureResult, protocol.EncodeMeasureResult(0)))
			return
		}
		// A failed measure was already reported by the channel and packs
		// to 0; the control layer still gets its reply.
		res, _ := s.channel.MeasureNode(ctx, *req)
		s.writeFrameLocked(protocol.NewFrame(protocol.OpMeasureResult, protocol.EncodeMeasureResult(res.Pack())))

	case frame.Op.IsInbound():
		_ = s.channel.Dispatch(ctx, frame.Op, frame.Payload)

	default:
		s.logger.Warn("unexpected frame op", "op", frame.Op)
	}
}

// SizeChanged forwards a host resize through the channel.
func (s *Session) SizeChanged(ctx context.Context, width, height float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel.SizeChanged(ctx, width, height)
}

// DispatchEvent forwards a renderer event through the channel.
func (s *Session) DispatchEvent(ctx context.Context, nodeID uint32, name string, params any, useCapture, useBubble bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel.DispatchEvent(ctx, nodeID, name, params, useCapture, useBubble)
}

// SendSizeChanged implements bridge.Transport. It is called by the channel
// with the session mutex already held.
func (s *Session) SendSizeChanged(n *protocol.SizeChanged) error {
	e := protocol.NewEncoderWithCap(16)
	protocol.EncodeSizeChangedTo(e, n)
	return s.writeFrameLocked(protocol.NewFrame(protocol.OpSizeChanged, e.Bytes()))
}

// SendEvent implements bridge.Transport. The params view is copied into the
// frame before returning, as the channel reuses its buffer.
func (s *Session) SendEvent(n *protocol.EventNotification) error {
	e := protocol.NewEncoderWithCap(n.EncodedLen())
	protocol.EncodeEventNotificationTo(e, n)
	frame := &protocol.Frame{Op: protocol.OpEvent, Flags: n.Flags(), Payload: e.Bytes()}
	return s.writeFrameLocked(frame)
}

func (s *Session) writeFrameLocked(f *protocol.Frame) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	w, err := s.conn.NextWriter(websocket.BinaryMessage)
	if err != nil {
		s.logger.Error("write error", "op", f.Op, "error", err)
		return err
	}
	if err := protocol.WriteFrame(w, f); err != nil {
		w.Close()
		s.logger.Error("write error", "op", f.Op, "error", err)
		return err
	}
	if err := w.Close(); err != nil {
		s.logger.Error("write error", "op", f.Op, "error", err)
		return err
	}
	return nil
}

// Close closes the connection and the channel. It is safe to call more than
// once and from any goroutine.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}
	close(s.done)
	s.conn.Close()

	s.mu.Lock()
	s.channel.Close()
	s.mu.Unlock()
}
