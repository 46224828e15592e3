package websocket

import (
	"context"
	"errors"
	"log/slog"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

// Client is one connected UI. It receives a welcome message naming the
// current checklist, then every change notification the hub broadcasts.
type Client struct {
	hub    *Hub
	conn   *ws.Conn
	send   chan []byte
	logger *slog.Logger
}

// NewClient creates a Client tied to the given hub and connection.
func NewClient(hub *Hub, conn *ws.Conn, remote string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		logger: hub.logger.With("remote", remote),
	}
}

// Run queues the welcome message, registers the client and pumps until either
// side of the connection fails. It blocks until then and unregisters.
func (c *Client) Run(ctx context.Context) {
	if msg, err := c.hub.welcome(); err != nil {
		c.logger.Error("marshal welcome", "error", err)
	} else {
		c.send <- msg
	}

	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx, cancel)
	c.readPump(ctx)

	if err := c.conn.Close(ws.StatusNormalClosure, ""); err != nil {
		c.logger.Debug("close websocket", "error", err)
	}
}

// readPump discards incoming messages; the feed is one-way.
func (c *Client) readPump(ctx context.Context) {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			c.logEnd(ctx, "read", err)
			return
		}
	}
}

// writePump drains the send channel and pings on an interval. A failed write
// cancels ctx so the read pump stops too.
func (c *Client) writePump(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				// unregistered
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				c.logEnd(ctx, "write", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				c.logEnd(ctx, "ping", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// logEnd reports why a pump stopped. Ordinary closes are debug noise.
func (c *Client) logEnd(ctx context.Context, op string, err error) {
	status := ws.CloseStatus(err)
	if ctx.Err() != nil || errors.Is(err, context.Canceled) ||
		status == ws.StatusNormalClosure || status == ws.StatusGoingAway {
		c.logger.Debug("websocket closed", "op", op, "status", status)
		return
	}
	c.logger.Warn("websocket "+op+" failed", "error", err)
}
