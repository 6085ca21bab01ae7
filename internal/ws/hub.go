package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/IMICARUSS/PIXEL-NEXUS/internal/model"
)

// delivery is a routed message: scope self goes only to the origin, scope
// others goes to every joined client except the origin
type delivery struct {
	scope   model.EventScope
	origin  model.SessionID
	message []byte
}

// Hub routes presence events to connected clients. A single event loop
// serializes registration, removal, and delivery, which preserves the
// per-origin ordering of updates across the fanout.
type Hub struct {
	clients map[model.SessionID]*Client
	mu      sync.RWMutex
	logger  *slog.Logger

	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	done       chan struct{}
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[model.SessionID]*Client),
		logger:     logger.With(slog.String("component", "ws-hub")),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Info("ws hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.sessionID] = client
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws client registered",
				slog.String("session_id", string(client.sessionID)),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.sessionID]; ok {
				delete(h.clients, client.sessionID)
				close(client.send)
				clientCount := len(h.clients)
				h.mu.Unlock()
				duration := time.Since(client.connectedAt)
				h.logger.Info("ws client unregistered",
					slog.String("session_id", string(client.sessionID)),
					slog.Duration("connection_duration", duration),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case d := <-h.deliver:
			h.route(d)

		case <-h.done:
			h.mu.Lock()
			clientCount := len(h.clients)
			for id, client := range h.clients {
				close(client.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			h.logger.Info("ws hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

func (h *Hub) route(d delivery) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch d.scope {
	case model.ScopeSelf:
		client, ok := h.clients[d.origin]
		if !ok {
			return
		}
		h.send(client, d.message)

	case model.ScopeOthers:
		// Peer events go only to joined clients; a connection that has not
		// completed its join is not yet part of the session
		for id, client := range h.clients {
			if id == d.origin || !client.joined.Load() {
				continue
			}
			h.send(client, d.message)
		}
	}
}

func (h *Hub) send(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		h.logger.Warn("ws message dropped - client buffer full",
			slog.String("session_id", string(client.sessionID)))
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub and closes its send channel
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// DeliverEvent encodes a presence event and routes it by scope
func (h *Hub) DeliverEvent(ev model.Event) {
	message, err := EncodeEvent(ev)
	if err != nil {
		h.logger.Error("ws event encoding failed",
			slog.String("event_type", string(ev.Type)),
			slog.Any("error", err))
		return
	}

	select {
	case h.deliver <- delivery{scope: ev.Scope, origin: ev.Origin, message: message}:
	default:
		h.logger.Warn("ws delivery dropped - hub buffer full",
			slog.String("event_type", string(ev.Type)))
	}
}

// DeliverEvents routes a batch of events in order
func (h *Hub) DeliverEvents(events []model.Event) {
	for _, ev := range events {
		h.DeliverEvent(ev)
	}
}

// Close shuts down the hub
func (h *Hub) Close() {
	close(h.done)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
