package transport

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/renderbridge/pkg/bridge"
)

// DelegateFactory builds the delegate for a new session. It is called once
// per accepted connection, before the read loop starts.
type DelegateFactory func(r *http.Request, instanceID int64) bridge.Delegate

// Handler upgrades HTTP requests to WebSocket sessions, one channel per
// connection. Instance IDs are assigned from a counter starting at 1.
type Handler struct {
	upgrader websocket.Upgrader
	config   *Config
	factory  DelegateFactory
	opts     []bridge.Option
	logger   *slog.Logger

	nextID   atomic.Int64
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewHandler creates a handler. opts are applied to every channel.
func NewHandler(config *Config, factory DelegateFactory, opts ...bridge.Option) *Handler {
	if factory == nil {
		panic("transport: NewHandler requires a delegate factory")
	}
	cfg := config.withDefaults()
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     cfg.CheckOrigin,
		},
		config:   cfg,
		factory:  factory,
		opts:     opts,
		logger:   slog.Default().With("component", "transport"),
		sessions: make(map[int64]*Session),
	}
}

// SetLogger replaces the handler's logger.
func (h *Handler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		h.logger = logger
	}
}

// ServeHTTP upgrades the connection and runs the session until it closes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response.
		h.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	id := h.nextID.Add(1)
	delegate := h.factory(r, id)
	if delegate == nil {
		h.logger.Error("delegate factory returned nil", "instance_id", id)
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "no delegate"))
		conn.Close()
		return
	}

	s := NewSession(conn, id, delegate, h.config, h.opts...)
	h.track(id, s)
	defer h.untrack(id)

	h.logger.Info("session opened", "instance_id", id, "remote", r.RemoteAddr)
	s.ReadLoop(r.Context())
	h.logger.Info("session closed", "instance_id", id)
}

// Session returns the live session for instanceID.
func (h *Handler) Session(instanceID int64) (*Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[instanceID]
	return s, ok
}

// SessionCount returns the number of live sessions.
func (h *Handler) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Shutdown closes every live session.
func (h *Handler) Shutdown() {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

func (h *Handler) track(id int64, s *Session) {
	h.mu.Lock()
	h.sessions[id] = s
	h.mu.Unlock()
}

func (h *Handler) untrack(id int64) {
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
}
