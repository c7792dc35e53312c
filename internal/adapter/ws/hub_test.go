package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/Strob0t/StatForge/internal/port/broadcast"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+query, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.CloseNow() })
	return c
}

func waitForConns(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for hub.ConnectionCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d connections, got %d", n, hub.ConnectionCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readMessage(t *testing.T, c *websocket.Conn) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := c.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	return msg
}

func TestBroadcastWithoutClients(t *testing.T) {
	hub := NewHub()
	hub.Broadcast(context.Background(), broadcast.Event{Type: "agent.step", RunID: "run-1"})
	hub.Broadcast(context.Background(), broadcast.Event{Type: "bad", Payload: make(chan int)})
	if hub.ConnectionCount() != 0 {
		t.Fatalf("connections = %d", hub.ConnectionCount())
	}
}

func TestHubRoutesEventsByRun(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()
	defer hub.Close()

	all := dial(t, srv, "")
	mine := dial(t, srv, "?run_id=run-1")
	other := dial(t, srv, "?run_id=run-2")
	waitForConns(t, hub, 3)

	hub.Broadcast(context.Background(), broadcast.Event{
		Type:    "agent.step",
		RunID:   "run-1",
		Payload: map[string]any{"iteration": 1, "tool": "rankings", "success": true},
	})

	for name, c := range map[string]*websocket.Conn{"all": all, "mine": mine} {
		msg := readMessage(t, c)
		if msg.Type != "agent.step" || msg.RunID != "run-1" || !strings.Contains(string(msg.Payload), `"tool":"rankings"`) {
			t.Errorf("%s: message = %+v", name, msg)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, _, err := other.Read(ctx); err == nil {
		t.Error("connection filtered to run-2 received a run-1 event")
	}
}

func TestSlowClientIsKicked(t *testing.T) {
	hub := NewHub()
	c := newClient(nil, "")
	hub.clients[c] = struct{}{}

	for range sendBuffer + 1 {
		hub.Broadcast(context.Background(), broadcast.Event{Type: "agent.step", RunID: "run-1"})
	}
	select {
	case <-c.kicked:
	default:
		t.Fatal("client with a full queue was not kicked")
	}
	if c.code != websocket.StatusPolicyViolation {
		t.Errorf("close code = %v", c.code)
	}
}

func TestHubCloseSendsGoingAway(t *testing.T) {
	hub := NewHub("*")
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	c := dial(t, srv, "")
	waitForConns(t, hub, 1)
	hub.Close()
	if hub.ConnectionCount() != 0 {
		t.Errorf("expected 0 connections after Close, got %d", hub.ConnectionCount())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := c.Read(ctx)
	var ce websocket.CloseError
	if !errors.As(err, &ce) || ce.Code != websocket.StatusGoingAway {
		t.Errorf("read after Close = %v, want going away", err)
	}
}
