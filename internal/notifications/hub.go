package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"inkwell/internal/middleware"
	"inkwell/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerPost = 500
	maxTotalConns   = 10000
)

var (
	ErrServerFull = errors.New("server connection limit reached")
	ErrPostFull   = errors.New("post connection limit reached")
	ErrHubClosed  = errors.New("hub is shutting down")
)

// CommentHub maps postID -> readers of that post's live comments.
type CommentHub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
	logger     *observability.WSLogger
}

// Name returns a human-readable identifier for this hub.
func (h *CommentHub) Name() string { return "comment hub" }

func NewCommentHub() *CommentHub {
	h := &CommentHub{conns: make(map[uint]map[*Client]struct{})}
	h.logger = observability.NewWSLogger(h.Name())
	return h
}

// Register adds a reader for postID. userID is empty for anonymous readers.
func (h *CommentHub) Register(postID uint, userID string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.totalConns >= maxTotalConns {
		return nil, ErrServerFull
	}
	m, ok := h.conns[postID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[postID] = m
	}
	if len(m) >= maxConnsPerPost {
		return nil, ErrPostFull
	}

	client := NewClient(h, conn, postID, userID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnectionsTotal.Inc()
	h.logger.LogConnect(context.Background(), userID, postID)
	return client, nil
}

// UnregisterClient removes the client and closes its send channel. Calling it
// twice is safe.
func (h *CommentHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.PostID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	if len(m) == 0 {
		delete(h.conns, client.PostID)
	}
	h.totalConns--
	close(client.Send)
	observability.WebSocketConnectionsTotal.Dec()
}

// Broadcast sends message to every reader of postID.
func (h *CommentHub) Broadcast(postID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.conns[postID]
	if !ok {
		return
	}
	data := []byte(message)
	for c := range clients {
		c.TrySend(data)
	}
}

// Count returns the number of readers of postID.
func (h *CommentHub) Count(postID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[postID])
}

// StartWiring connects the Notifier to this hub: events published for a post
// are forwarded to that post's readers.
func (h *CommentHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartCommentSubscriber(ctx, func(channel, payload string) {
		postID, ok := parsePostChannel(channel)
		if !ok {
			middleware.Logger.Warn("invalid comment channel", slog.String("channel", channel))
			return
		}
		observability.RecordWebSocketEvent("comment_event")
		h.Broadcast(postID, payload)
	})
}

// Shutdown disconnects every reader and refuses new registrations.
func (h *CommentHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	// Closing Send makes each WritePump send a close frame and exit.
	for _, clients := range h.conns {
		for client := range clients {
			close(client.Send)
			observability.WebSocketConnectionsTotal.Dec()
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
