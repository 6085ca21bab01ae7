package response

import (
	"time"

	"github.com/IMICARUSS/PIXEL-NEXUS/internal/model"
)

// Identity represents a stored wallet identity in API responses
type Identity struct {
	WalletID    string    `json:"wallet_id"`
	DisplayName string    `json:"display_name"`
	Skin        string    `json:"skin"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Rotation    float64   `json:"rotation"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IdentityFromModel converts a model.IdentityRecord to a response Identity
func IdentityFromModel(rec *model.IdentityRecord) Identity {
	return Identity{
		WalletID:    string(rec.WalletID),
		DisplayName: rec.DisplayName,
		Skin:        rec.Skin,
		X:           rec.Position.X,
		Y:           rec.Position.Y,
		Rotation:    rec.Rotation,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

// IdentityList wraps a list of identities
type IdentityList struct {
	Identities []Identity `json:"identities"`
}

// IdentityListFromModel converts a slice of records
func IdentityListFromModel(recs []*model.IdentityRecord) IdentityList {
	identities := make([]Identity, len(recs))
	for i, rec := range recs {
		identities[i] = IdentityFromModel(rec)
	}
	return IdentityList{Identities: identities}
}

// Health is the health check response
type Health struct {
	Status           string `json:"status"`
	ConnectedClients int    `json:"connected_clients"`
}
