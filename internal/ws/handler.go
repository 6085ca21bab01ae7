package ws

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/IMICARUSS/PIXEL-NEXUS/internal/model"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/services/presence"
)

// Handler upgrades HTTP requests to WebSocket connections and attaches them
// to the hub
type Handler struct {
	hub      *Hub
	presence *presence.Controller
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a WebSocket handler. allowedOrigin restricts which
// browser origins may connect; "*" allows any.
func NewHandler(hub *Hub, presenceController *presence.Controller, allowedOrigin string, logger *slog.Logger) *Handler {
	return &Handler{
		hub:      hub,
		presence: presenceController,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigin),
		},
		logger: logger.With(slog.String("component", "ws")),
	}
}

// originChecker builds the CheckOrigin policy. Requests without an Origin
// header (non-browser clients, the CLI) are always allowed.
func originChecker(allowedOrigin string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if allowedOrigin == "" || allowedOrigin == "*" {
			return true
		}
		origin := r.Header.Get("Origin")
		return origin == "" || origin == allowedOrigin
	}
}

// ServeHTTP upgrades the connection, assigns a session id, and starts the
// read/write pumps
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", slog.Any("error", err))
		return
	}

	sessionID := model.SessionID("sess_" + uuid.NewString())
	h.presence.Connect(sessionID)

	client := NewClient(h.hub, h.presence, sessionID, conn, h.logger)
	h.hub.Register(client)

	go client.writePump()
	go client.readPump()
}
