// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package websocket

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/venuescout/internal/feed"
	"github.com/tomtom215/venuescout/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024 // commands only
)

// Close codes sent to clients.
const (
	CloseGoingAway    = websocket.CloseGoingAway
	CloseSessionEnded = websocket.CloseNormalClosure
)

// clientIDCounter orders clients for deterministic shutdown.
var clientIDCounter atomic.Uint64

// Feed is the part of a discovery session a connection drives.
type Feed interface {
	ID() string
	Touch()
	Subscribe(buffer int) (<-chan feed.Snapshot, func())
	Refresh(ctx context.Context) (feed.Snapshot, error)
	LoadMore(ctx context.Context) (feed.Snapshot, error)
	Retry(ctx context.Context) (feed.Snapshot, error)
}

// Client streams one session's snapshots over one connection and turns
// client commands into feed operations.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	feed Feed
	send chan Message

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	unsub  func()
	cmds   sync.WaitGroup
}

// NewClient creates a client for f on conn.
func NewClient(hub *Hub, conn *websocket.Conn, f Feed) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		id:     clientIDCounter.Add(1),
		hub:    hub,
		conn:   conn,
		feed:   f,
		send:   make(chan Message, 16),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		unsub:  func() {},
	}
}

// ID returns the client's unique identifier
func (c *Client) ID() uint64 { return c.id }

// SessionID returns the id of the streamed session.
func (c *Client) SessionID() string { return c.feed.ID() }

// Done is closed once the client has shut down.
func (c *Client) Done() <-chan struct{} { return c.done }

// Start registers the client and begins streaming. It returns false, after
// closing the connection, when the hub has shut down.
func (c *Client) Start() bool {
	snaps, unsub := c.feed.Subscribe(c.hub.buffer)
	c.unsub = unsub
	if !c.hub.Register(c) {
		c.Close(CloseGoingAway, "server shutting down")
		return false
	}
	go c.writePump(snaps)
	go c.readPump()
	return true
}

// Close sends a close frame, tears the connection down and unsubscribes.
// Safe to call more than once.
func (c *Client) Close(code int, text string) {
	c.once.Do(func() {
		c.cancel()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
		_ = c.conn.Close()
		c.unsub()
		c.hub.Unregister(c)
		close(c.done)
	})
}

// Wait blocks until running commands have returned.
func (c *Client) Wait() {
	c.cmds.Wait()
}

// readPump reads client commands until the connection fails.
func (c *Client) readPump() {
	defer c.Close(websocket.CloseNormalClosure, "")

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		c.feed.Touch()
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn().Err(err).Str("session_id", c.SessionID()).Msg("unexpected websocket close error")
				metrics.WSErrors.WithLabelValues("read").Inc()
			}
			return
		}

		switch msg.Type {
		case MessageTypePing:
			c.feed.Touch()
			c.queue(Message{Type: MessageTypePong})
		case MessageTypeRefresh, MessageTypeLoadMore, MessageTypeRetry:
			c.feed.Touch()
			c.cmds.Add(1)
			go c.runCommand(msg.Type)
		default:
			c.queue(Message{Type: MessageTypeError, Data: ErrorData{
				Code:    "UNKNOWN_MESSAGE",
				Message: "unknown message type " + msg.Type,
			}})
		}
	}
}

// runCommand applies a feed operation. The resulting snapshots reach the
// client through the subscription; only failures are answered directly.
func (c *Client) runCommand(kind string) {
	defer c.cmds.Done()

	var err error
	switch kind {
	case MessageTypeRefresh:
		_, err = c.feed.Refresh(c.ctx)
	case MessageTypeLoadMore:
		_, err = c.feed.LoadMore(c.ctx)
	case MessageTypeRetry:
		_, err = c.feed.Retry(c.ctx)
	}
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}

	code := "COMMAND_FAILED"
	if errors.Is(err, feed.ErrSessionClosed) {
		code = "SESSION_CLOSED"
	}
	c.queue(Message{Type: MessageTypeError, Data: ErrorData{Code: code, Message: err.Error()}})
}

// queue hands a message to the write pump without blocking.
func (c *Client) queue(msg Message) {
	select {
	case c.send <- msg:
	case <-c.done:
	default:
		metrics.WSErrors.WithLabelValues("send_buffer_full").Inc()
	}
}

// writePump is the only writer of data frames on the connection.
func (c *Client) writePump(snaps <-chan feed.Snapshot) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snap, ok := <-snaps:
			if !ok {
				// session closed or client unsubscribed
				c.Close(CloseSessionEnded, "session closed")
				return
			}
			if !c.write(Message{Type: MessageTypeSnapshot, Data: snap}) {
				return
			}

		case msg := <-c.send:
			if !c.write(msg) {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.Close(websocket.CloseInternalServerErr, "")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close(websocket.CloseInternalServerErr, "")
				return
			}

		case <-c.done:
			return
		}
	}
}

func (c *Client) write(msg Message) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.Close(websocket.CloseInternalServerErr, "")
		return false
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		metrics.WSErrors.WithLabelValues("write").Inc()
		c.Close(websocket.CloseInternalServerErr, "")
		return false
	}
	metrics.WSMessagesSent.Inc()
	return true
}
