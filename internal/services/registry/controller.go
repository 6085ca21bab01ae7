package registry

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/IMICARUSS/PIXEL-NEXUS/internal/dependencies/clock"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/dependencies/random"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/model"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/storage"
)

const (
	// GuestNameSuffixLength is the length of the random suffix appended to
	// placeholder display names so concurrent guests are distinguishable
	GuestNameSuffixLength = 4
	// GuestNameSuffixAlphabet is the characters used in the suffix
	GuestNameSuffixAlphabet = "0123456789"
)

// session pairs live player state with the creation time of its durable
// record, so updates can be persisted without re-reading the store
type session struct {
	state             *model.PlayerState
	identityCreatedAt time.Time
}

// Controller owns all live sessions, keyed by session id. It is the single
// writer for player state: every mutation goes through it, and wallet-bound
// mutations are forwarded to the identity store.
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[model.SessionID]*session
}

// NewController creates a new session registry
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:  storage,
		clock:    clock,
		random:   random,
		logger:   logger.With(slog.String("component", "registry")),
		sessions: make(map[model.SessionID]*session),
	}
}

// CreateSession registers placeholder state for a freshly-opened connection,
// before any join message has arrived
func (c *Controller) CreateSession(id model.SessionID) *model.PlayerState {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := model.NewPlayerState(id, c.clock.Now())
	c.sessions[id] = &session{state: state}
	return state.Snapshot()
}

// JoinParams carries the client-supplied fields of a join request. All fields
// are optional; zero values fall back to defaults or stored identity.
type JoinParams struct {
	WalletID    model.WalletID
	DisplayName string
	Skin        string
	Position    *model.Position
}

// Join attaches identity and initial state to a session. If the wallet has a
// stored record, the session is hydrated from it and the request's supplied
// values are ignored (stored identity wins). Otherwise the session is
// initialized from the supplied values, and if a wallet was given, a record
// is created and flushed immediately so a profile exists before the first
// movement. A second join on an already-joined session returns
// model.ErrAlreadyJoined without mutating anything.
func (c *Controller) Join(ctx context.Context, id model.SessionID, params JoinParams) (*model.PlayerState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	if sess.state.Phase == model.PhaseJoined {
		return nil, model.ErrAlreadyJoined
	}

	now := c.clock.Now()
	state := sess.state

	if params.WalletID != "" {
		rec, err := c.storage.GetIdentity(ctx, params.WalletID)
		switch {
		case err == nil:
			// Returning player: durable identity wins over the
			// request's transient defaults
			state.WalletID = rec.WalletID
			state.DisplayName = rec.DisplayName
			state.Skin = model.NormalizeSkin(rec.Skin)
			state.Position = rec.Position
			state.Rotation = rec.Rotation
			state.Phase = model.PhaseJoined
			sess.identityCreatedAt = rec.CreatedAt
			return state.Snapshot(), nil

		case !errors.Is(err, model.ErrIdentityNotFound):
			c.logger.Error("identity lookup failed, joining with supplied values",
				slog.String("wallet_id", string(params.WalletID)),
				slog.Any("error", err))
		}

		// First time this wallet joins
		c.applyJoinValues(state, params)
		state.WalletID = params.WalletID
		state.Phase = model.PhaseJoined
		sess.identityCreatedAt = now
		c.persist(ctx, sess)
		return state.Snapshot(), nil
	}

	// Guest session: no durable counterpart
	c.applyJoinValues(state, params)
	state.Phase = model.PhaseJoined
	return state.Snapshot(), nil
}

// applyJoinValues sets the session fields from a join request, falling back
// to defaults for anything unset
func (c *Controller) applyJoinValues(state *model.PlayerState, params JoinParams) {
	if params.DisplayName != "" {
		state.DisplayName = params.DisplayName
	} else {
		state.DisplayName = model.DefaultDisplayName + "-" +
			c.random.String(GuestNameSuffixLength, GuestNameSuffixAlphabet)
	}
	state.Skin = model.NormalizeSkin(params.Skin)
	if params.Position != nil {
		state.Position = *params.Position
	}
}

// MovementParams carries a movement update. DisplayName and Skin are optional
// inline profile fields.
type MovementParams struct {
	Position    model.Position
	Rotation    float64
	DisplayName string
	Skin        string
}

// ApplyMovement updates a session's position and rotation, honoring optional
// inline profile fields, and forwards the new snapshot to the identity store
// for wallet-bound sessions. A missing session is reported with
// model.ErrSessionNotFound; callers treat that as a no-op since movement
// messages can legitimately arrive after disconnect.
func (c *Controller) ApplyMovement(ctx context.Context, id model.SessionID, params MovementParams) (*model.PlayerState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[id]
	if !ok || sess.state.Phase != model.PhaseJoined {
		return nil, model.ErrSessionNotFound
	}

	state := sess.state
	state.Position = params.Position
	state.Rotation = params.Rotation
	if params.DisplayName != "" {
		state.DisplayName = params.DisplayName
	}
	if params.Skin != "" {
		state.Skin = model.NormalizeSkin(params.Skin)
	}

	if !state.IsGuest() {
		c.persist(ctx, sess)
	}
	return state.Snapshot(), nil
}

// ApplyProfileUpdate changes a session's display name, with the same
// missing-session guard and persistence behavior as ApplyMovement
func (c *Controller) ApplyProfileUpdate(ctx context.Context, id model.SessionID, displayName string) (*model.PlayerState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[id]
	if !ok || sess.state.Phase != model.PhaseJoined {
		return nil, model.ErrSessionNotFound
	}

	sess.state.DisplayName = displayName

	if !sess.state.IsGuest() {
		c.persist(ctx, sess)
	}
	return sess.state.Snapshot(), nil
}

// Remove deletes a session and returns its final state for the disconnect
// broadcast. Removing an unknown session returns ok=false; disconnect
// handling must be idempotent.
func (c *Controller) Remove(id model.SessionID) (*model.PlayerState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[id]
	if !ok {
		return nil, false
	}
	delete(c.sessions, id)
	return sess.state.Snapshot(), true
}

// Get returns a snapshot of a single session's state
func (c *Controller) Get(id model.SessionID) (*model.PlayerState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sess, ok := c.sessions[id]
	if !ok {
		return nil, false
	}
	return sess.state.Snapshot(), true
}

// JoinedPeers returns snapshots of every joined session except the given one,
// ordered by connect time for stable output
func (c *Controller) JoinedPeers(except model.SessionID) []*model.PlayerState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	peers := make([]*model.PlayerState, 0, len(c.sessions))
	for id, sess := range c.sessions {
		if id == except || sess.state.Phase != model.PhaseJoined {
			continue
		}
		peers = append(peers, sess.state.Snapshot())
	}
	sort.Slice(peers, func(i, j int) bool {
		if peers[i].ConnectedAt.Equal(peers[j].ConnectedAt) {
			return peers[i].SessionID < peers[j].SessionID
		}
		return peers[i].ConnectedAt.Before(peers[j].ConnectedAt)
	})
	return peers
}

// Count returns the number of live sessions. It equals the number of open
// connections that have reached at least created state.
func (c *Controller) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

// IdentityExists answers the stateless "returning player?" query against the
// identity store without creating or mutating any session
func (c *Controller) IdentityExists(ctx context.Context, id model.WalletID) (bool, string, error) {
	rec, err := c.storage.GetIdentity(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrIdentityNotFound) {
			return false, "", nil
		}
		return false, "", err
	}
	return true, rec.DisplayName, nil
}

// persist forwards the session's current snapshot to the identity store.
// Flush failures are logged and swallowed: the in-memory state stays
// authoritative and the next successful flush carries this data.
// Caller must hold the write lock.
func (c *Controller) persist(ctx context.Context, sess *session) {
	rec := model.RecordFromState(sess.state, sess.identityCreatedAt, c.clock.Now())
	if err := c.storage.SaveIdentity(ctx, rec); err != nil {
		c.logger.Warn("identity flush failed, keeping in-memory state",
			slog.String("wallet_id", string(sess.state.WalletID)),
			slog.Any("error", err))
	}
}
