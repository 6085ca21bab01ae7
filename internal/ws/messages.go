package ws

import (
	"encoding/json"
	"fmt"

	"github.com/IMICARUSS/PIXEL-NEXUS/internal/model"
)

// Client message types
const (
	MsgJoin          = "join"
	MsgMove          = "move"
	MsgProfile       = "profile"
	MsgIdentityQuery = "identity_query"
)

// ClientMessage is the envelope for all client -> server messages
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Position is the wire form of a coordinate pair
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// JoinRequest attaches an identity and initial state to the connection.
// Every field is optional; a bare join produces a guest with defaults.
type JoinRequest struct {
	WalletID    string    `json:"wallet_id,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	Skin        string    `json:"skin,omitempty"`
	Position    *Position `json:"position,omitempty"`
}

// MoveRequest updates position and rotation. The optional inline profile
// fields are honored in the same update.
type MoveRequest struct {
	Position    *Position `json:"position"`
	Rotation    float64   `json:"rotation"`
	DisplayName string    `json:"display_name,omitempty"`
	Skin        string    `json:"skin,omitempty"`
}

// ProfileRequest changes the display name
type ProfileRequest struct {
	DisplayName string `json:"display_name"`
}

// IdentityQueryRequest asks whether a wallet already has a profile
type IdentityQueryRequest struct {
	WalletID string `json:"wallet_id"`
}

// ServerMessage is the envelope for all server -> client messages. Type
// mirrors the presence event type.
type ServerMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Player is the wire form of a player's state
type Player struct {
	SessionID   string   `json:"session_id"`
	WalletID    string   `json:"wallet_id,omitempty"`
	DisplayName string   `json:"display_name"`
	Skin        string   `json:"skin"`
	Position    Position `json:"position"`
	Rotation    float64  `json:"rotation"`
}

// PlayerFromState converts a model.PlayerState to its wire form
func PlayerFromState(state *model.PlayerState) Player {
	return Player{
		SessionID:   string(state.SessionID),
		WalletID:    string(state.WalletID),
		DisplayName: state.DisplayName,
		Skin:        state.Skin,
		Position:    Position{X: state.Position.X, Y: state.Position.Y},
		Rotation:    state.Rotation,
	}
}

// SelfState is the payload of a self_state message
type SelfState struct {
	You   Player   `json:"you"`
	Peers []Player `json:"peers"`
}

// PeerLeft is the payload of a peer_left message; it carries only the
// session id
type PeerLeft struct {
	SessionID string `json:"session_id"`
}

// IdentityAnswer is the payload of an identity message
type IdentityAnswer struct {
	WalletID    string `json:"wallet_id"`
	Exists      bool   `json:"exists"`
	DisplayName string `json:"display_name,omitempty"`
}

// EncodeEvent serializes a presence event into its wire message
func EncodeEvent(ev model.Event) ([]byte, error) {
	msg := ServerMessage{Type: string(ev.Type)}

	switch payload := ev.Payload.(type) {
	case model.SelfStatePayload:
		peers := make([]Player, len(payload.Peers))
		for i, p := range payload.Peers {
			peers[i] = PlayerFromState(p)
		}
		msg.Data = SelfState{You: PlayerFromState(payload.State), Peers: peers}
	case model.PeerJoinedPayload:
		msg.Data = PlayerFromState(payload.State)
	case model.PeerUpdatedPayload:
		msg.Data = PlayerFromState(payload.State)
	case model.PeerLeftPayload:
		msg.Data = PeerLeft{SessionID: string(payload.SessionID)}
	case model.IdentityPayload:
		msg.Data = IdentityAnswer{
			WalletID:    string(payload.WalletID),
			Exists:      payload.Exists,
			DisplayName: payload.DisplayName,
		}
	default:
		return nil, fmt.Errorf("unknown event payload %T", ev.Payload)
	}

	return json.Marshal(msg)
}
