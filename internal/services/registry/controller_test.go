package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/IMICARUSS/PIXEL-NEXUS/internal/dependencies/mocks"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/model"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/storage/memory"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.controller = NewController(s.storage, s.clock, s.random, testutil.NopLogger())
	s.ctx = context.Background()
}

// CreateSession tests

func (s *ControllerSuite) TestCreateSessionHasDefaults() {
	state := s.controller.CreateSession("sess-1")

	s.Equal(model.SessionID("sess-1"), state.SessionID)
	s.Equal(model.PhaseConnected, state.Phase)
	s.Equal(model.DefaultDisplayName, state.DisplayName)
	s.Equal(model.DefaultSkin, state.Skin)
	s.Equal(model.Position{X: model.SpawnX, Y: model.SpawnY}, state.Position)
	s.True(state.IsGuest())
	s.Equal(1, s.controller.Count())
}

// Join tests

func (s *ControllerSuite) TestJoinGuestUsesSuppliedValues() {
	s.controller.CreateSession("sess-1")

	pos := &model.Position{X: 10, Y: 20}
	state, err := s.controller.Join(s.ctx, "sess-1", JoinParams{
		DisplayName: "Ada",
		Skin:        model.SkinElvis,
		Position:    pos,
	})
	s.Require().NoError(err)

	s.Equal(model.PhaseJoined, state.Phase)
	s.Equal("Ada", state.DisplayName)
	s.Equal(model.SkinElvis, state.Skin)
	s.Equal(model.Position{X: 10, Y: 20}, state.Position)
	s.True(state.IsGuest())
}

func (s *ControllerSuite) TestJoinGuestWithoutNameGetsPlaceholder() {
	s.random.QueueString("4821")
	s.controller.CreateSession("sess-1")

	state, err := s.controller.Join(s.ctx, "sess-1", JoinParams{})
	s.Require().NoError(err)

	s.Equal("Player-4821", state.DisplayName)
}

func (s *ControllerSuite) TestJoinNormalizesUnknownSkin() {
	s.controller.CreateSession("sess-1")

	state, err := s.controller.Join(s.ctx, "sess-1", JoinParams{
		DisplayName: "Ada",
		Skin:        "not-a-skin",
	})
	s.Require().NoError(err)

	s.Equal(model.DefaultSkin, state.Skin)
}

func (s *ControllerSuite) TestJoinUnknownSessionFails() {
	_, err := s.controller.Join(s.ctx, "nope", JoinParams{})
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *ControllerSuite) TestSecondJoinRejected() {
	s.controller.CreateSession("sess-1")
	_, err := s.controller.Join(s.ctx, "sess-1", JoinParams{DisplayName: "Ada", WalletID: "W1"})
	s.Require().NoError(err)

	_, err = s.controller.Join(s.ctx, "sess-1", JoinParams{DisplayName: "Eve", WalletID: "W2"})
	s.ErrorIs(err, model.ErrAlreadyJoined)

	// No duplicate identity association was created
	exists, _, err := s.controller.IdentityExists(s.ctx, "W2")
	s.Require().NoError(err)
	s.False(exists)

	state, ok := s.controller.Get("sess-1")
	s.Require().True(ok)
	s.Equal(model.WalletID("W1"), state.WalletID)
	s.Equal("Ada", state.DisplayName)
}

func (s *ControllerSuite) TestJoinNewWalletCreatesRecordImmediately() {
	s.controller.CreateSession("sess-1")

	_, err := s.controller.Join(s.ctx, "sess-1", JoinParams{
		WalletID:    "W1",
		DisplayName: "Ada",
	})
	s.Require().NoError(err)

	// A profile exists before the player's first movement
	rec, err := s.storage.GetIdentity(s.ctx, "W1")
	s.Require().NoError(err)
	s.Equal("Ada", rec.DisplayName)
	s.Equal(model.Position{X: model.SpawnX, Y: model.SpawnY}, rec.Position)
	s.Equal(s.clock.Now(), rec.CreatedAt)
}

func (s *ControllerSuite) TestJoinReturningWalletHydratesFromStore() {
	stored := &model.IdentityRecord{
		WalletID:    "W1",
		DisplayName: "Ada",
		Skin:        model.SkinElton,
		Position:    model.Position{X: 410, Y: 300},
		Rotation:    1.5,
		CreatedAt:   s.clock.Now().Add(-time.Hour),
		UpdatedAt:   s.clock.Now().Add(-time.Hour),
	}
	s.Require().NoError(s.storage.SaveIdentity(s.ctx, stored))

	s.controller.CreateSession("sess-1")
	state, err := s.controller.Join(s.ctx, "sess-1", JoinParams{
		WalletID:    "W1",
		DisplayName: "ignored",
		Skin:        model.SkinDude,
		Position:    &model.Position{X: 1, Y: 1},
	})
	s.Require().NoError(err)

	// Stored identity wins over the request's transient values
	s.Equal("Ada", state.DisplayName)
	s.Equal(model.SkinElton, state.Skin)
	s.Equal(model.Position{X: 410, Y: 300}, state.Position)
	s.Equal(1.5, state.Rotation)
}

// Movement tests

func (s *ControllerSuite) TestApplyMovementUpdatesState() {
	s.controller.CreateSession("sess-1")
	_, _ = s.controller.Join(s.ctx, "sess-1", JoinParams{DisplayName: "Ada"})

	state, err := s.controller.ApplyMovement(s.ctx, "sess-1", MovementParams{
		Position: model.Position{X: 410, Y: 300},
		Rotation: 0.5,
	})
	s.Require().NoError(err)

	s.Equal(model.Position{X: 410, Y: 300}, state.Position)
	s.Equal(0.5, state.Rotation)
}

func (s *ControllerSuite) TestApplyMovementPersistsWalletSessions() {
	s.controller.CreateSession("sess-1")
	_, _ = s.controller.Join(s.ctx, "sess-1", JoinParams{WalletID: "W1", DisplayName: "Ada"})

	created := s.clock.Now()
	s.clock.Advance(time.Minute)

	_, err := s.controller.ApplyMovement(s.ctx, "sess-1", MovementParams{
		Position: model.Position{X: 410, Y: 300},
	})
	s.Require().NoError(err)

	rec, err := s.storage.GetIdentity(s.ctx, "W1")
	s.Require().NoError(err)
	s.Equal(model.Position{X: 410, Y: 300}, rec.Position)
	s.Equal(created, rec.CreatedAt, "CreatedAt survives updates")
	s.Equal(s.clock.Now(), rec.UpdatedAt)
}

func (s *ControllerSuite) TestApplyMovementGuestNotPersisted() {
	s.controller.CreateSession("sess-1")
	_, _ = s.controller.Join(s.ctx, "sess-1", JoinParams{DisplayName: "Ada"})

	_, err := s.controller.ApplyMovement(s.ctx, "sess-1", MovementParams{
		Position: model.Position{X: 1, Y: 2},
	})
	s.Require().NoError(err)

	records, err := s.storage.ListIdentities(s.ctx)
	s.Require().NoError(err)
	s.Empty(records)
}

func (s *ControllerSuite) TestApplyMovementInlineProfileFields() {
	s.controller.CreateSession("sess-1")
	_, _ = s.controller.Join(s.ctx, "sess-1", JoinParams{WalletID: "W1", DisplayName: "Ada"})

	state, err := s.controller.ApplyMovement(s.ctx, "sess-1", MovementParams{
		Position:    model.Position{X: 5, Y: 5},
		DisplayName: "Countess",
		Skin:        model.SkinElvis,
	})
	s.Require().NoError(err)

	s.Equal("Countess", state.DisplayName)
	s.Equal(model.SkinElvis, state.Skin)

	rec, _ := s.storage.GetIdentity(s.ctx, "W1")
	s.Equal("Countess", rec.DisplayName)
	s.Equal(model.SkinElvis, rec.Skin)
}

func (s *ControllerSuite) TestApplyMovementUnknownSessionIsNoOp() {
	_, err := s.controller.ApplyMovement(s.ctx, "gone", MovementParams{
		Position: model.Position{X: 1, Y: 1},
	})
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *ControllerSuite) TestApplyMovementBeforeJoinIsNoOp() {
	s.controller.CreateSession("sess-1")

	_, err := s.controller.ApplyMovement(s.ctx, "sess-1", MovementParams{
		Position: model.Position{X: 1, Y: 1},
	})
	s.ErrorIs(err, model.ErrSessionNotFound)
}

// Profile update tests

func (s *ControllerSuite) TestApplyProfileUpdate() {
	s.controller.CreateSession("sess-1")
	_, _ = s.controller.Join(s.ctx, "sess-1", JoinParams{WalletID: "W1", DisplayName: "Ada"})

	state, err := s.controller.ApplyProfileUpdate(s.ctx, "sess-1", "Countess")
	s.Require().NoError(err)
	s.Equal("Countess", state.DisplayName)

	rec, err := s.storage.GetIdentity(s.ctx, "W1")
	s.Require().NoError(err)
	s.Equal("Countess", rec.DisplayName)
}

// Remove tests

func (s *ControllerSuite) TestRemoveReturnsFinalState() {
	s.controller.CreateSession("sess-1")
	_, _ = s.controller.Join(s.ctx, "sess-1", JoinParams{DisplayName: "Ada"})

	state, ok := s.controller.Remove("sess-1")
	s.True(ok)
	s.Equal("Ada", state.DisplayName)
	s.Equal(0, s.controller.Count())
}

func (s *ControllerSuite) TestRemoveIsIdempotent() {
	s.controller.CreateSession("sess-1")

	_, ok := s.controller.Remove("sess-1")
	s.True(ok)

	_, ok = s.controller.Remove("sess-1")
	s.False(ok)
}

func (s *ControllerSuite) TestGuestLeavesNoTrace() {
	s.controller.CreateSession("sess-1")
	_, _ = s.controller.Join(s.ctx, "sess-1", JoinParams{DisplayName: "Ada"})
	_, _ = s.controller.ApplyMovement(s.ctx, "sess-1", MovementParams{
		Position: model.Position{X: 50, Y: 60},
	})
	_, _ = s.controller.Remove("sess-1")

	records, err := s.storage.ListIdentities(s.ctx)
	s.Require().NoError(err)
	s.Empty(records)
}

// JoinedPeers tests

func (s *ControllerSuite) TestJoinedPeersExcludesSelfAndUnjoined() {
	s.controller.CreateSession("sess-1")
	_, _ = s.controller.Join(s.ctx, "sess-1", JoinParams{DisplayName: "Ada"})

	s.clock.Advance(time.Second)
	s.controller.CreateSession("sess-2")
	_, _ = s.controller.Join(s.ctx, "sess-2", JoinParams{DisplayName: "Grace"})

	// Connected but never joined: invisible to peers
	s.controller.CreateSession("sess-3")

	peers := s.controller.JoinedPeers("sess-1")
	s.Require().Len(peers, 1)
	s.Equal(model.SessionID("sess-2"), peers[0].SessionID)
}

func (s *ControllerSuite) TestJoinedPeersOrderedByConnectTime() {
	s.controller.CreateSession("sess-b")
	_, _ = s.controller.Join(s.ctx, "sess-b", JoinParams{DisplayName: "B"})

	s.clock.Advance(time.Second)
	s.controller.CreateSession("sess-a")
	_, _ = s.controller.Join(s.ctx, "sess-a", JoinParams{DisplayName: "A"})

	peers := s.controller.JoinedPeers("none")
	s.Require().Len(peers, 2)
	s.Equal(model.SessionID("sess-b"), peers[0].SessionID)
	s.Equal(model.SessionID("sess-a"), peers[1].SessionID)
}

// Identity query tests

func (s *ControllerSuite) TestIdentityExistsDoesNotMutate() {
	exists, name, err := s.controller.IdentityExists(s.ctx, "W1")
	s.Require().NoError(err)
	s.False(exists)
	s.Empty(name)

	s.controller.CreateSession("sess-1")
	_, _ = s.controller.Join(s.ctx, "sess-1", JoinParams{WalletID: "W1", DisplayName: "Ada"})

	exists, name, err = s.controller.IdentityExists(s.ctx, "W1")
	s.Require().NoError(err)
	s.True(exists)
	s.Equal("Ada", name)
	s.Equal(1, s.controller.Count(), "query must not create sessions")
}

// Full lifecycle

func (s *ControllerSuite) TestWalletLifecyclePersistsLastAcceptedState() {
	s.controller.CreateSession("sess-1")
	_, _ = s.controller.Join(s.ctx, "sess-1", JoinParams{WalletID: "W1", DisplayName: "Ada"})

	for i := 1; i <= 3; i++ {
		_, err := s.controller.ApplyMovement(s.ctx, "sess-1", MovementParams{
			Position: model.Position{X: 400 + float64(i)*10, Y: 300},
			Rotation: float64(i),
		})
		s.Require().NoError(err)
	}
	_, _ = s.controller.Remove("sess-1")

	rec, err := s.storage.GetIdentity(s.ctx, "W1")
	s.Require().NoError(err)
	s.Equal(model.Position{X: 430, Y: 300}, rec.Position)
	s.Equal(3.0, rec.Rotation)

	// Returning with a different requested name keeps the stored identity
	s.controller.CreateSession("sess-2")
	state, err := s.controller.Join(s.ctx, "sess-2", JoinParams{WalletID: "W1", DisplayName: "ignored"})
	s.Require().NoError(err)
	s.Equal("Ada", state.DisplayName)
	s.Equal(model.Position{X: 430, Y: 300}, state.Position)
}
