package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans cart updates out to the websockets opened for a session.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*client]struct{}
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: log.With().Str("component", "realtime").Logger(),
	}
}

// Watching reports whether any socket is subscribed to the session.
func (h *Hub) Watching(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID]) > 0
}

// Publish sends v as JSON to every socket of the session. Clients whose
// buffer is full miss the message.
func (h *Hub) Publish(sessionID string, v any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := h.sessions[sessionID]
	if len(clients) == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("marshal realtime payload")
		return
	}
	for c := range clients {
		select {
		case c.send <- data:
		default:
			h.log.Warn().Str("session_id", sessionID).Msg("dropping update for slow websocket client")
		}
	}
}

// ServeWS upgrades the request and keeps the socket subscribed to
// sessionID until the peer goes away. initial, when non-nil, is the first
// message written.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string, initial any) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if initial != nil {
		if data, err := json.Marshal(initial); err == nil {
			c.send <- data
		}
	}
	h.register(sessionID, c)

	done := make(chan struct{})
	go h.writePump(c, done)
	h.readPump(c)

	h.unregister(sessionID, c)
	close(done)
	return nil
}

// Close disconnects every socket.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sessionID, clients := range h.sessions {
		for c := range clients {
			c.conn.Close()
		}
		delete(h.sessions, sessionID)
	}
}

func (h *Hub) register(sessionID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.sessions[sessionID]
	if !ok {
		clients = make(map[*client]struct{})
		h.sessions[sessionID] = clients
	}
	clients[c] = struct{}{}
	h.log.Debug().Str("session_id", sessionID).Int("clients", len(clients)).Msg("websocket connected")
}

func (h *Hub) unregister(sessionID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := h.sessions[sessionID]
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.sessions, sessionID)
	}
	c.conn.Close()
	h.log.Debug().Str("session_id", sessionID).Msg("websocket disconnected")
}

// readPump discards client messages; it only exists to notice the close.
func (h *Hub) readPump(c *client) {
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.conn.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}
