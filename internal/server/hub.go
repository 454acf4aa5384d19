package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/nao1215/harvester/internal/message"
	"github.com/nao1215/harvester/internal/metrics"
)

// ErrNoReceiver is returned by Notify when no session accepted the update.
var ErrNoReceiver = errors.New("no open session to receive the update")

const (
	// sendBuffer is the number of pushes queued per session. A session
	// whose queue is full misses pushes until it drains.
	sendBuffer = 16

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// Sessions only receive; anything they send is read and discarded.
	maxInboundMessage = 4096
)

// Hub fans updatePopup pushes out to open websocket sessions. It
// implements controller.Notifier and never blocks the caller.
type Hub struct {
	mu       sync.Mutex
	sessions map[*session]struct{}

	upgrader websocket.Upgrader
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type session struct {
	conn *websocket.Conn
	send chan []byte
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the hub logger.
func WithHubLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithHubMetrics records open session counts.
func WithHubMetrics(m *metrics.Metrics) HubOption {
	return func(h *Hub) {
		h.metrics = m
	}
}

// NewHub creates a Hub with no sessions.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		sessions: make(map[*session]struct{}),
		upgrader: websocket.Upgrader{
			// Origins are policed by the CORS configuration.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Notify queues update for every open session.
func (h *Hub) Notify(_ context.Context, update message.UpdatePopup) error {
	data, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to encode update: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for s := range h.sessions {
		select {
		case s.send <- data:
			delivered++
		default:
			h.logger.Debug("session queue full, dropping update")
		}
	}
	if delivered == 0 {
		return ErrNoReceiver
	}
	return nil
}

// Count returns the number of open sessions.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// ServeWS upgrades the request and serves the session until it closes.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already replied with an HTTP error.
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	s := &session{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(s)

	go h.writeLoop(s)
	h.readLoop(s)
}

// Close ends every open session.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := make([]*session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		h.unregister(s)
	}
}

func (h *Hub) register(s *session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	n := len(h.sessions)
	h.mu.Unlock()

	h.metrics.WSConnected(1)
	h.logger.Debug("session opened", "sessions", n)
}

// unregister removes s and closes its queue. It is safe to call twice.
func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s)
	close(s.send)
	n := len(h.sessions)
	h.mu.Unlock()

	h.metrics.WSConnected(-1)
	h.logger.Debug("session closed", "sessions", n)
}

// readLoop drains inbound frames so pongs and close frames are processed.
func (h *Hub) readLoop(s *session) {
	defer func() {
		h.unregister(s)
		_ = s.conn.Close() //nolint:errcheck // connection is done either way
	}()

	s.conn.SetReadLimit(maxInboundMessage)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck // surfaces on the next read
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop sends queued pushes and keepalive pings until the queue closes.
func (h *Hub) writeLoop(s *session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close() //nolint:errcheck // connection is done either way
	}()

	for {
		select {
		case data, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // surfaces on the write
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck // best effort goodbye
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // surfaces on the write
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
