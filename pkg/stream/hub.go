// Package stream pushes server events to WebSocket clients.
package stream

import (
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Message is the envelope written to clients.
type Message struct {
	Event     string      `json:"event"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub broadcasts events to every connected WebSocket client. New clients
// receive the last published message immediately.
type Hub struct {
	upgrader     websocket.Upgrader
	logger       *zap.Logger
	pingInterval time.Duration
	pongTimeout  time.Duration
	writeTimeout time.Duration
	bufferSize   int

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
	closed  bool
}

// Config holds hub configuration.
type Config struct {
	PingInterval time.Duration
	PongTimeout  time.Duration
	WriteTimeout time.Duration
	BufferSize   int // Pending messages per client before it is dropped
	Logger       *zap.Logger
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// New creates a hub.
func New(cfg *Config) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:       cfg.Logger,
		pingInterval: cfg.PingInterval,
		pongTimeout:  cfg.PongTimeout,
		writeTimeout: cfg.WriteTimeout,
		bufferSize:   cfg.BufferSize,
		clients:      make(map[*client]struct{}),
	}

	if h.pingInterval <= 0 {
		h.pingInterval = 30 * time.Second
	}
	if h.pongTimeout <= h.pingInterval {
		h.pongTimeout = h.pingInterval * 2
	}
	if h.writeTimeout <= 0 {
		h.writeTimeout = 10 * time.Second
	}
	if h.bufferSize <= 0 {
		h.bufferSize = 16
	}

	return h
}

// Publish sends an event to all clients. Clients whose buffer is full are
// disconnected.
func (h *Hub) Publish(event string, payload interface{}) {
	msg, err := json.Marshal(&Message{
		Event:     event,
		Data:      payload,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		h.logger.Error("stream-marshal-failed", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.last = msg

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("stream-client-too-slow", zap.String("remote", c.conn.RemoteAddr().String()))
			h.remove(c)
			DroppedClientsTotal.Inc()
		}
	}

	MessagesPublishedTotal.WithLabelValues(event).Inc()
}

// ServeHTTP upgrades the request and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("stream-upgrade-failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, h.bufferSize)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	count := len(h.clients)
	h.mu.Unlock()

	ConnectedClients.Set(float64(count))
	h.logger.Info("stream-client-connected",
		zap.String("remote", conn.RemoteAddr().String()),
		zap.Int("clients", count))

	go h.writeLoop(c)
	go h.readLoop(c)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all clients. Later publishes are ignored.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		h.remove(c)
	}

	return nil
}

// remove unregisters c. Caller holds h.mu.
func (h *Hub) remove(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	c.close()
	ConnectedClients.Set(float64(len(h.clients)))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	h.remove(c)
	h.mu.Unlock()
}

// writeLoop drains the client's queue and keeps the connection alive.
func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			err := c.conn.WriteMessage(websocket.TextMessage, msg)
			if err != nil {
				h.logger.Debug("stream-write-failed", zap.Error(err))
				h.unregister(c)
				return
			}
		case <-ticker.C:
			err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(h.writeTimeout))
			if err != nil {
				h.logger.Debug("stream-ping-failed", zap.Error(err))
				h.unregister(c)
				return
			}
		}
	}
}

// readLoop discards client frames and detects disconnects.
func (h *Hub) readLoop(c *client) {
	defer h.unregister(c)

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("stream-client-read-error", zap.Error(err))
			}
			h.logger.Info("stream-client-disconnected", zap.String("remote", c.conn.RemoteAddr().String()))
			return
		}
	}
}
