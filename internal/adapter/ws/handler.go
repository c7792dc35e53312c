// Package ws streams agent run events to WebSocket clients.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/Strob0t/StatForge/internal/port/broadcast"
)

const (
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 32
)

// Message is the frame sent to clients.
type Message struct {
	Type    string          `json:"type"`
	RunID   string          `json:"run_id,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// client is one connection. Frames are queued on send and written by the
// client's own goroutine.
type client struct {
	ws    *websocket.Conn
	runID string // empty receives every run
	send  chan []byte

	kicked chan struct{}
	once   sync.Once
	code   websocket.StatusCode
	reason string
}

func newClient(ws *websocket.Conn, runID string) *client {
	return &client{ws: ws, runID: runID, send: make(chan []byte, sendBuffer), kicked: make(chan struct{})}
}

func (c *client) wants(runID string) bool { return c.runID == "" || c.runID == runID }

// kick asks the writer to close the connection with code.
func (c *client) kick(code websocket.StatusCode, reason string) {
	c.once.Do(func() {
		c.code, c.reason = code, reason
		close(c.kicked)
	})
}

// Hub fans run events out to connected clients.
type Hub struct {
	accept websocket.AcceptOptions
	ping   time.Duration

	mu      sync.RWMutex
	clients map[*client]struct{}
}

var _ broadcast.Broadcaster = (*Hub)(nil)

// NewHub accepts connections from origins, in websocket.AcceptOptions
// pattern syntax. No origins, or "*", accepts any origin.
func NewHub(origins ...string) *Hub {
	h := &Hub{clients: make(map[*client]struct{}), ping: pingInterval}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		h.accept.InsecureSkipVerify = true
	} else {
		h.accept.OriginPatterns = origins
	}
	return h
}

// HandleWS serves GET /ws. The optional run_id query parameter limits the
// connection to one run.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &h.accept)
	if err != nil {
		slog.Warn("websocket accept failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	c := newClient(conn, r.URL.Query().Get("run_id"))

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	slog.Info("websocket connected", "remote", r.RemoteAddr, "run_id", c.runID)

	// Clients only listen; CloseRead discards their frames and answers pings.
	go h.writeLoop(conn.CloseRead(context.Background()), c)
}

func (h *Hub) writeLoop(ctx context.Context, c *client) {
	ticker := time.NewTicker(h.ping)
	defer ticker.Stop()
	defer func() {
		h.remove(c)
		code, reason := websocket.StatusNormalClosure, ""
		select {
		case <-c.kicked:
			code, reason = c.code, c.reason
		default:
		}
		_ = c.ws.Close(code, reason)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.kicked:
			return
		case data := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.ws.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				slog.Debug("websocket write failed", "run_id", c.runID, "error", err)
				return
			}
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.ws.Ping(pctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// Broadcast queues ev for every interested client. A client whose queue is
// full is disconnected rather than waited on.
func (h *Hub) Broadcast(_ context.Context, ev broadcast.Event) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		slog.Error("marshal ws event", "type", ev.Type, "error", err)
		return
	}
	data, err := json.Marshal(Message{Type: ev.Type, RunID: ev.RunID, Payload: payload})
	if err != nil {
		slog.Error("marshal ws frame", "type", ev.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.wants(ev.RunID) {
			continue
		}
		select {
		case c.send <- data:
		default:
			slog.Warn("websocket client too slow, disconnecting", "run_id", c.runID)
			c.kick(websocket.StatusPolicyViolation, "client too slow")
		}
	}
}

// ConnectionCount returns the number of connected clients.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.kick(websocket.StatusGoingAway, "server shutting down")
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		slog.Info("websocket disconnected", "run_id", c.runID)
	}
}
