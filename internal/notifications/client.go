package notifications

import (
	"context"
	"time"

	"inkwell/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// Readers never send payloads; this only needs to fit control frames.
	maxInboundBytes = 4096
	sendBuffer      = 64
)

// WSHub is implemented by hubs that own clients.
type WSHub interface {
	UnregisterClient(c *Client)
	Name() string
}

// Client is one websocket reader of a post's comment stream. Events flow
// out through Send; inbound frames are read only to service pings and
// detect disconnects.
type Client struct {
	Hub    WSHub
	Conn   *websocket.Conn
	Send   chan []byte
	PostID uint
	// UserID is empty for anonymous readers.
	UserID string
}

// NewClient returns a client with a buffered outbound queue.
func NewClient(hub WSHub, conn *websocket.Conn, postID uint, userID string) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		PostID: postID,
		UserID: userID,
		Send:   make(chan []byte, sendBuffer),
	}
}

func (c *Client) extendReadDeadline(string) error {
	return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
}

func (c *Client) write(messageType int, data []byte) error {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(messageType, data)
}

// ReadPump blocks until the peer disconnects or stops answering pings, then
// unregisters the client. It runs on the handler goroutine.
func (c *Client) ReadPump() {
	logger := observability.NewWSLogger(c.Hub.Name())
	reason := "closed"
	defer func() {
		c.Hub.UnregisterClient(c)
		_ = c.Conn.Close()
		logger.LogDisconnect(context.Background(), c.UserID, c.PostID, reason)
	}()

	c.Conn.SetReadLimit(maxInboundBytes)
	_ = c.extendReadDeadline("")
	c.Conn.SetPongHandler(c.extendReadDeadline)

	for {
		_, _, err := c.Conn.ReadMessage()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			reason = "error"
			logger.LogError(context.Background(), c.PostID, err, "read")
		}
		return
	}
}

// WritePump delivers queued events and keepalive pings until Send is closed
// by the hub or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		var err error
		select {
		case event, open := <-c.Send:
			if !open {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			err = c.write(websocket.TextMessage, event)
		case <-ticker.C:
			err = c.write(websocket.PingMessage, nil)
		}
		if err != nil {
			return
		}
	}
}

// TrySend queues message without blocking. A full buffer drops the message
// and queues a notice so the reader can re-fetch the thread.
func (c *Client) TrySend(message []byte) {
	defer func() {
		if r := recover(); r != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "closed").Inc()
		}
	}()

	select {
	case c.Send <- message:
	default:
		observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "full").Inc()
		select {
		case c.Send <- droppedNotice:
		default:
		}
	}
}
