package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/steerkit/internal/core/observability/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// client is one frame subscriber. Its writer goroutine drains send until the
// hub closes it.
type client struct {
	remote string
	send   chan []byte
	once   sync.Once
}

func (c *client) close() { c.once.Do(func() { close(c.send) }) }

// Hub fans encoded frames out to every connected client. A client whose
// buffer is full is dropped rather than stalling the broadcast.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	buffer  int
	closed  bool
	log     log.Log
}

func NewHub(buffer int, logger log.Log) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		buffer:  max(buffer, 1),
		log:     logger,
	}
}

// add registers a client, queueing first when it is non-nil.
func (h *Hub) add(remote string, first []byte) (*client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrServerClosed
	}
	c := &client{remote: remote, send: make(chan []byte, h.buffer)}
	if first != nil {
		c.send <- first
	}
	h.clients[c] = struct{}{}
	return c, nil
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// Broadcast queues b on every client and returns how many were dropped.
func (h *Hub) Broadcast(b []byte) int {
	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("dropping slow client", log.String("remote", c.remote))
		h.remove(c)
	}
	return len(slow)
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.closed = true
	h.mu.Unlock()
	for c := range clients {
		c.close()
	}
}

// serveStream upgrades the request and streams frames until the peer goes
// away or the hub drops it. The latest frame, when there is one, is sent
// first so late joiners see the scene immediately.
func (s *Server) serveStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	var first []byte
	if b := s.latest.Load(); b != nil {
		first = *b
	}
	remote := conn.RemoteAddr().String()
	c, err := s.hub.add(remote, first)
	if err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, err.Error()))
		_ = conn.Close()
		return
	}
	s.log.Debug("stream client connected", log.String("remote", remote))

	// reader: only watches for the peer closing
	go func() {
		defer s.hub.remove(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		_ = conn.Close()
		s.log.Debug("stream client gone", log.String("remote", remote))
	}()
	for b := range c.send {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			s.hub.remove(c)
			return
		}
	}
	_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
