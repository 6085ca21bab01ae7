package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/IMICARUSS/PIXEL-NEXUS/internal/api/apierr"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/api/response"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/model"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/storage"
)

// IdentityHandler serves read-only identity lookups against the store.
// Lookups never touch live sessions and never mutate the store.
type IdentityHandler struct {
	storage storage.Storage
}

// NewIdentityHandler creates a new identity handler
func NewIdentityHandler(store storage.Storage) *IdentityHandler {
	return &IdentityHandler{
		storage: store,
	}
}

// Get handles GET /api/v1/identities/{wallet_id}
func (h *IdentityHandler) Get(w http.ResponseWriter, r *http.Request) {
	walletID := mux.Vars(r)["wallet_id"]
	if walletID == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("wallet_id is required"))
		return
	}

	rec, err := h.storage.GetIdentity(r.Context(), model.WalletID(walletID))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.IdentityFromModel(rec))
}

// List handles GET /api/v1/identities
func (h *IdentityHandler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.storage.ListIdentities(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.IdentityListFromModel(recs))
}
