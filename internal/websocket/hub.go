// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/venuescout/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline means the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication. Server-to-client: snapshot,
// pong, error. Client-to-server: ping, refresh, load_more, retry.
const (
	MessageTypeSnapshot = "snapshot"
	MessageTypePing     = "ping"
	MessageTypePong     = "pong"
	MessageTypeError    = "error"
	MessageTypeRefresh  = "refresh"
	MessageTypeLoadMore = "load_more"
	MessageTypeRetry    = "retry"
)

// DefaultSubscriberBuffer is the snapshot buffer per connection.
const DefaultSubscriberBuffer = 16

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// ErrorData is the payload of an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Hub tracks the live connections of every discovery session. Each client
// streams its own session; the hub exists for shutdown, per-session
// teardown and the connection gauge.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool

	buffer int
	logger zerolog.Logger
}

// NewHub creates a hub. buffer is the snapshot buffer each client
// subscribes with.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHub(buffer int, logger zerolog.Logger) *Hub {
	if buffer < 1 {
		buffer = DefaultSubscriberBuffer
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		buffer:  buffer,
		logger:  logger.With().Str("component", "websocket-hub").Logger(),
	}
}

// Register adds a client. It returns false once the hub has shut down.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	h.logger.Debug().Str("session_id", c.SessionID()).Int("total_clients", total).Msg("websocket client connected")
	return true
}

// Unregister removes a client. Unknown clients are ignored.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		metrics.WSConnections.Dec()
		h.logger.Debug().Str("session_id", c.SessionID()).Int("total_clients", total).Msg("websocket client disconnected")
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SessionClientCount returns the number of clients streaming sessionID.
func (h *Hub) SessionClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if c.SessionID() == sessionID {
			n++
		}
	}
	return n
}

// CloseSession disconnects every client of sessionID and returns how many
// were closed.
func (h *Hub) CloseSession(sessionID string) int {
	var matched []*Client
	h.mu.RLock()
	for c := range h.clients {
		if c.SessionID() == sessionID {
			matched = append(matched, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range matched {
		c.Close(CloseSessionEnded, "session closed")
	}
	return len(matched)
}

// RunWithContext blocks until ctx is done, then closes every client and
// refuses new ones. It is the hub's suture service body.
func (h *Hub) RunWithContext(ctx context.Context) error {
	<-ctx.Done()

	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	for _, c := range clients {
		c.Close(CloseGoingAway, "server shutting down")
	}

	h.logger.Info().
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
	return ctx.Err()
}

// Serve implements suture.Service.
func (h *Hub) Serve(ctx context.Context) error {
	return h.RunWithContext(ctx)
}

// String names the service in supervisor logs.
func (h *Hub) String() string { return "websocket-hub" }

func getShutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}
