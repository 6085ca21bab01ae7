package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/IMICARUSS/PIXEL-NEXUS/internal/api/handler"
	apimiddleware "github.com/IMICARUSS/PIXEL-NEXUS/internal/api/middleware"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/api/response"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/middleware"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/storage"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/ws"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	Logger    *slog.Logger
	Storage   storage.Storage
	Hub       *ws.Hub
	WSHandler http.Handler
}

// NewRouter creates the server's router: the JSON API under /api/v1 and the
// WebSocket endpoint at /ws
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	identityHandler := handler.NewIdentityHandler(cfg.Storage)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := apimiddleware.Recovery(cfg.Logger)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/identities", identityHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/identities/{wallet_id}", identityHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/health", healthHandler(cfg.Hub)).Methods(http.MethodGet)

	// WebSocket upgrade bypasses the API middleware; the pumps manage their
	// own deadlines and logging
	r.Handle("/ws", cfg.WSHandler)

	return r
}

func healthHandler(hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := response.Health{Status: "ok"}
		if hub != nil {
			health.ConnectedClients = hub.ClientCount()
		}
		response.JSON(w, http.StatusOK, health)
	}
}
