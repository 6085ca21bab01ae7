package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/IMICARUSS/PIXEL-NEXUS/internal/model"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/services/presence"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/services/registry"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period; must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size
	maxMessageSize = 4096

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client is one connected player's transport endpoint. The read pump feeds
// inbound messages to the presence controller one at a time, so updates from
// a single connection reach the hub in the order they were applied.
type Client struct {
	hub         *Hub
	presence    *presence.Controller
	sessionID   model.SessionID
	conn        *websocket.Conn
	send        chan []byte
	logger      *slog.Logger
	connectedAt time.Time

	// joined flips once the join transition is accepted; peer broadcasts are
	// withheld until then
	joined atomic.Bool
}

// NewClient creates a client for an upgraded connection
func NewClient(hub *Hub, presence *presence.Controller, sessionID model.SessionID, conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		hub:         hub,
		presence:    presence,
		sessionID:   sessionID,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		logger:      logger.With(slog.String("session_id", string(sessionID))),
		connectedAt: time.Now(),
	}
}

// readPump reads client messages until the connection drops, then runs the
// disconnect transition. Cleanup tolerates abrupt closes and double close
// signals.
func (c *Client) readPump() {
	defer func() {
		c.hub.DeliverEvents(c.presence.Disconnect(c.sessionID))
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("ws read failed", slog.Any("error", err))
			}
			return
		}
		c.handleMessage(payload)
	}
}

// handleMessage decodes and dispatches one inbound message. Malformed
// messages are dropped without mutating state or closing the connection.
func (c *Client) handleMessage(payload []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		c.logger.Debug("ws malformed envelope dropped", slog.Any("error", err))
		return
	}

	ctx := context.Background()

	switch msg.Type {
	case MsgJoin:
		var req JoinRequest
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				c.logger.Debug("ws malformed join dropped", slog.Any("error", err))
				return
			}
		}
		params := registry.JoinParams{
			WalletID:    model.WalletID(req.WalletID),
			DisplayName: req.DisplayName,
			Skin:        req.Skin,
		}
		if req.Position != nil {
			params.Position = &model.Position{X: req.Position.X, Y: req.Position.Y}
		}
		events, err := c.presence.HandleJoin(ctx, c.sessionID, params)
		if err != nil {
			return
		}
		c.joined.Store(true)
		c.hub.DeliverEvents(events)

	case MsgMove:
		var req MoveRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil || req.Position == nil {
			c.logger.Debug("ws malformed move dropped")
			return
		}
		events, err := c.presence.HandleMovement(ctx, c.sessionID, registry.MovementParams{
			Position:    model.Position{X: req.Position.X, Y: req.Position.Y},
			Rotation:    req.Rotation,
			DisplayName: req.DisplayName,
			Skin:        req.Skin,
		})
		if err != nil {
			return
		}
		c.hub.DeliverEvents(events)

	case MsgProfile:
		var req ProfileRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil || req.DisplayName == "" {
			c.logger.Debug("ws malformed profile update dropped")
			return
		}
		events, err := c.presence.HandleProfileUpdate(ctx, c.sessionID, req.DisplayName)
		if err != nil {
			return
		}
		c.hub.DeliverEvents(events)

	case MsgIdentityQuery:
		var req IdentityQueryRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil || req.WalletID == "" {
			c.logger.Debug("ws malformed identity query dropped")
			return
		}
		events, err := c.presence.HandleIdentityQuery(ctx, c.sessionID, model.WalletID(req.WalletID))
		if err != nil {
			c.logger.Warn("identity query failed", slog.Any("error", err))
			return
		}
		c.hub.DeliverEvents(events)

	default:
		c.logger.Debug("ws unknown message type dropped", slog.String("type", msg.Type))
	}
}

// writePump drains the send channel to the connection and keeps the peer
// alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
