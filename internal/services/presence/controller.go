package presence

import (
	"context"
	"errors"
	"log/slog"

	"github.com/IMICARUSS/PIXEL-NEXUS/internal/dependencies/clock"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/model"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/services/registry"
)

// Controller drives the connection lifecycle state machine
// (connected -> joined -> closed). Each inbound message is dispatched to a
// registry mutation plus a list of outbound events; the transport decides
// only how to deliver them. This keeps the protocol unit-testable without a
// live socket.
type Controller struct {
	registry *registry.Controller
	clock    clock.Clock
	logger   *slog.Logger
}

// NewController creates a new presence controller
func NewController(reg *registry.Controller, clock clock.Clock, logger *slog.Logger) *Controller {
	return &Controller{
		registry: reg,
		clock:    clock,
		logger:   logger.With(slog.String("component", "presence")),
	}
}

// Connect registers placeholder state for a new connection. No events are
// emitted: the session is invisible to peers until it joins.
func (c *Controller) Connect(id model.SessionID) *model.PlayerState {
	state := c.registry.CreateSession(id)
	c.logger.Info("session connected",
		slog.String("session_id", string(id)),
		slog.Int("live_sessions", c.registry.Count()))
	return state
}

// HandleJoin runs the join transition. On success it emits the resolved self
// state (with a snapshot of current peers) back to the origin, and announces
// the new player to everyone else. A repeated join is ignored:
// model.ErrAlreadyJoined is returned and nothing is mutated or emitted.
func (c *Controller) HandleJoin(ctx context.Context, id model.SessionID, params registry.JoinParams) ([]model.Event, error) {
	state, err := c.registry.Join(ctx, id, params)
	if err != nil {
		if errors.Is(err, model.ErrAlreadyJoined) {
			c.logger.Debug("repeated join ignored", slog.String("session_id", string(id)))
		}
		return nil, err
	}

	c.logger.Info("session joined",
		slog.String("session_id", string(id)),
		slog.String("display_name", state.DisplayName),
		slog.Bool("guest", state.IsGuest()))

	now := c.clock.Now()
	return []model.Event{
		{
			Type:      model.EventSelfState,
			Scope:     model.ScopeSelf,
			Origin:    id,
			Timestamp: now,
			Payload: model.SelfStatePayload{
				State: state,
				Peers: c.registry.JoinedPeers(id),
			},
		},
		{
			Type:      model.EventPeerJoined,
			Scope:     model.ScopeOthers,
			Origin:    id,
			Timestamp: now,
			Payload:   model.PeerJoinedPayload{State: state},
		},
	}, nil
}

// HandleMovement applies a movement update and announces the new state to
// every other joined session. Movement for an unknown session (e.g. arriving
// after disconnect) returns model.ErrSessionNotFound; callers drop it.
func (c *Controller) HandleMovement(ctx context.Context, id model.SessionID, params registry.MovementParams) ([]model.Event, error) {
	state, err := c.registry.ApplyMovement(ctx, id, params)
	if err != nil {
		return nil, err
	}

	return []model.Event{{
		Type:      model.EventPeerUpdated,
		Scope:     model.ScopeOthers,
		Origin:    id,
		Timestamp: c.clock.Now(),
		Payload:   model.PeerUpdatedPayload{State: state},
	}}, nil
}

// HandleProfileUpdate applies a display name change with the same guard and
// fanout as movement
func (c *Controller) HandleProfileUpdate(ctx context.Context, id model.SessionID, displayName string) ([]model.Event, error) {
	state, err := c.registry.ApplyProfileUpdate(ctx, id, displayName)
	if err != nil {
		return nil, err
	}

	return []model.Event{{
		Type:      model.EventPeerUpdated,
		Scope:     model.ScopeOthers,
		Origin:    id,
		Timestamp: c.clock.Now(),
		Payload:   model.PeerUpdatedPayload{State: state},
	}}, nil
}

// HandleIdentityQuery answers "does this wallet already have a profile"
// without creating or touching any session
func (c *Controller) HandleIdentityQuery(ctx context.Context, id model.SessionID, walletID model.WalletID) ([]model.Event, error) {
	exists, displayName, err := c.registry.IdentityExists(ctx, walletID)
	if err != nil {
		return nil, err
	}

	return []model.Event{{
		Type:      model.EventIdentity,
		Scope:     model.ScopeSelf,
		Origin:    id,
		Timestamp: c.clock.Now(),
		Payload: model.IdentityPayload{
			WalletID:    walletID,
			Exists:      exists,
			DisplayName: displayName,
		},
	}}, nil
}

// Disconnect runs the closed transition: the session is removed and its
// departure announced with only the session id, so peers can drop the remote
// representation. Safe to call more than once; repeated closes emit nothing.
func (c *Controller) Disconnect(id model.SessionID) []model.Event {
	state, ok := c.registry.Remove(id)
	if !ok {
		return nil
	}

	c.logger.Info("session closed",
		slog.String("session_id", string(id)),
		slog.Bool("was_joined", state.Phase == model.PhaseJoined),
		slog.Int("live_sessions", c.registry.Count()))

	return []model.Event{{
		Type:      model.EventPeerLeft,
		Scope:     model.ScopeOthers,
		Origin:    id,
		Timestamp: c.clock.Now(),
		Payload:   model.PeerLeftPayload{SessionID: id},
	}}
}
