// Package notify streams authoring notices to editors over websockets.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/pai-studio/internal/authoring"
)

const (
	writeWait     = 5 * time.Second
	defaultBuffer = 16
)

type subscriber struct {
	msgs      chan authoring.Notice
	closeSlow func()
}

// Hub fans notices out to every websocket subscribed to a session.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	buffer int
	done   chan struct{}
	closed bool
}

// NewHub creates a hub. Each subscriber may fall buffer notices behind before it is
// disconnected; buffer <= 0 uses 16.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:   make(map[string]map[*subscriber]struct{}),
		buffer: buffer,
		done:   make(chan struct{}),
	}
}

// Notify implements authoring.Notifier. It never blocks on a slow subscriber.
func (h *Hub) Notify(sessionID string, n authoring.Notice) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[sessionID] {
		select {
		case s.msgs <- n:
		default:
			go s.closeSlow()
		}
	}
}

// Subscribers returns how many websockets listen to sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[sessionID])
}

// Serve upgrades the request and streams the session's notices until the client goes
// away or the hub is closed.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, sessionID string) error {
	var (
		mu     sync.Mutex
		conn   *websocket.Conn
		closed bool
	)
	s := &subscriber{
		msgs: make(chan authoring.Notice, h.buffer),
		closeSlow: func() {
			mu.Lock()
			defer mu.Unlock()
			closed = true
			if conn != nil {
				conn.Close(websocket.StatusPolicyViolation, "connection too slow to keep up with notices")
			}
		},
	}
	if !h.add(sessionID, s) {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return nil
	}
	defer h.remove(sessionID, s)

	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		return err
	}
	mu.Lock()
	if closed {
		mu.Unlock()
		return net.ErrClosed
	}
	conn = c
	mu.Unlock()
	defer c.CloseNow()

	slog.Debug("notice stream opened", "session_id", sessionID)
	ctx := c.CloseRead(context.Background())
	for {
		select {
		case n := <-s.msgs:
			if err := writeTimeout(ctx, c, n); err != nil {
				return err
			}
		case <-h.done:
			c.Close(websocket.StatusGoingAway, "server shutting down")
			return nil
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		}
	}
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
}

func (h *Hub) add(sessionID string, s *subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[*subscriber]struct{})
	}
	h.subs[sessionID][s] = struct{}{}
	return true
}

func (h *Hub) remove(sessionID string, s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[sessionID], s)
	if len(h.subs[sessionID]) == 0 {
		delete(h.subs, sessionID)
	}
}

func writeTimeout(ctx context.Context, c *websocket.Conn, n authoring.Notice) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return wsjson.Write(ctx, c, n)
}
