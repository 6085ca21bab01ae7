package model

import "time"

// EventType identifies the type of presence event
type EventType string

const (
	// EventSelfState carries the session's own resolved state back to it
	// after a join, so the client can reconcile optimistic defaults with
	// hydrated identity
	EventSelfState EventType = "self_state"

	// EventPeerJoined announces a newly-joined session to everyone else
	EventPeerJoined EventType = "peer_joined"

	// EventPeerUpdated announces a movement or profile change to everyone
	// except the originating session
	EventPeerUpdated EventType = "peer_updated"

	// EventPeerLeft announces a disconnect; it carries only the session id
	EventPeerLeft EventType = "peer_left"

	// EventIdentity answers an identity query for the requesting session only
	EventIdentity EventType = "identity"
)

// EventScope says which connections receive an event
type EventScope string

const (
	// ScopeSelf delivers only to the originating session
	ScopeSelf EventScope = "self"
	// ScopeOthers delivers to every joined session except the origin
	ScopeOthers EventScope = "others"
)

// Event is the base structure for all presence events
type Event struct {
	Type      EventType
	Scope     EventScope
	Origin    SessionID // the session whose message produced the event
	Timestamp time.Time
	Payload   any // type-specific data
}

// SelfStatePayload contains data for self state events
type SelfStatePayload struct {
	State *PlayerState
	// Peers is the set of other currently-joined players, so a late joiner
	// can render the room without waiting for per-peer events
	Peers []*PlayerState
}

// PeerJoinedPayload contains data for peer joined events
type PeerJoinedPayload struct {
	State *PlayerState
}

// PeerUpdatedPayload contains data for peer updated events
type PeerUpdatedPayload struct {
	State *PlayerState
}

// PeerLeftPayload contains data for peer left events
type PeerLeftPayload struct {
	SessionID SessionID
}

// IdentityPayload contains data for identity query answers
type IdentityPayload struct {
	WalletID    WalletID
	Exists      bool
	DisplayName string
}
