package model

import "time"

// SessionID uniquely identifies a live connection. It is assigned when the
// transport connects and is never reused while its owner is connected.
type SessionID string

// WalletID is the externally-issued wallet address attached to a session at
// join time. It is opaque to the server and immutable for the life of the
// connection once set.
type WalletID string

// Character skins the client can render
const (
	SkinDude  = "dude"
	SkinElvis = "Elvis"
	SkinElton = "Elton"
)

// Defaults applied to a session before (or absent) a join request
const (
	DefaultDisplayName = "Player"
	DefaultSkin        = SkinDude
	SpawnX             = 400.0
	SpawnY             = 300.0
)

// ValidSkin reports whether skin names a known character spritesheet
func ValidSkin(skin string) bool {
	switch skin {
	case SkinDude, SkinElvis, SkinElton:
		return true
	}
	return false
}

// NormalizeSkin returns skin if it is valid, or the default skin otherwise.
// Unknown skins are replaced rather than rejected so a stale client cannot
// break the join path.
func NormalizeSkin(skin string) string {
	if ValidSkin(skin) {
		return skin
	}
	return DefaultSkin
}

// Position is a client-authoritative 2D coordinate pair. The server enforces
// no bounds.
type Position struct {
	X float64
	Y float64
}

// SessionPhase is the lifecycle phase of a connection
type SessionPhase string

const (
	// PhaseConnected means the transport is open but no join has been processed
	PhaseConnected SessionPhase = "connected"
	// PhaseJoined means the join request was accepted and the session is
	// visible to other connections
	PhaseJoined SessionPhase = "joined"
)

// PlayerState is the live state of one connected player
type PlayerState struct {
	SessionID   SessionID
	WalletID    WalletID // empty for guest sessions
	Phase       SessionPhase
	DisplayName string
	Skin        string
	Position    Position
	Rotation    float64
	ConnectedAt time.Time
}

// NewPlayerState returns placeholder state for a freshly-opened connection
func NewPlayerState(id SessionID, now time.Time) *PlayerState {
	return &PlayerState{
		SessionID:   id,
		Phase:       PhaseConnected,
		DisplayName: DefaultDisplayName,
		Skin:        DefaultSkin,
		Position:    Position{X: SpawnX, Y: SpawnY},
		ConnectedAt: now,
	}
}

// Snapshot returns a copy of the state safe to hand to other goroutines
func (p *PlayerState) Snapshot() *PlayerState {
	cp := *p
	return &cp
}

// IsGuest reports whether the session has no durable identity
func (p *PlayerState) IsGuest() bool {
	return p.WalletID == ""
}

// IdentityRecord is the durable, wallet-keyed snapshot of a player's
// last-known state. Created the first time a wallet joins, updated on every
// accepted movement or profile change from a session holding that wallet,
// never deleted.
type IdentityRecord struct {
	WalletID    WalletID
	DisplayName string
	Skin        string
	Position    Position
	Rotation    float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RecordFromState projects a live session onto its durable record
func RecordFromState(state *PlayerState, createdAt, now time.Time) *IdentityRecord {
	return &IdentityRecord{
		WalletID:    state.WalletID,
		DisplayName: state.DisplayName,
		Skin:        state.Skin,
		Position:    state.Position,
		Rotation:    state.Rotation,
		CreatedAt:   createdAt,
		UpdatedAt:   now,
	}
}
