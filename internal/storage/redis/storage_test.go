package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/IMICARUSS/PIXEL-NEXUS/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	s.storage = NewWithClient(client, DefaultConfig())
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) record(wallet string, name string) *model.IdentityRecord {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	return &model.IdentityRecord{
		WalletID:    model.WalletID(wallet),
		DisplayName: name,
		Skin:        model.SkinElvis,
		Position:    model.Position{X: 410, Y: 300},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *StorageSuite) TestSaveAndGetIdentity() {
	rec := s.record("W1", "Ada")

	err := s.storage.SaveIdentity(s.ctx, rec)
	s.Require().NoError(err)

	got, err := s.storage.GetIdentity(s.ctx, "W1")
	s.Require().NoError(err)
	s.Equal(rec.WalletID, got.WalletID)
	s.Equal(rec.DisplayName, got.DisplayName)
	s.Equal(rec.Position, got.Position)
}

func (s *StorageSuite) TestGetIdentityNotFound() {
	_, err := s.storage.GetIdentity(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *StorageSuite) TestIdentityHasNoTTL() {
	_ = s.storage.SaveIdentity(s.ctx, s.record("W1", "Ada"))

	ttl := s.mini.TTL(identityKey("W1"))
	s.Equal(time.Duration(0), ttl, "identity records should never expire")
}

func (s *StorageSuite) TestIdentityExists() {
	_ = s.storage.SaveIdentity(s.ctx, s.record("W1", "Ada"))

	exists, err := s.storage.IdentityExists(s.ctx, "W1")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.storage.IdentityExists(s.ctx, "W2")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *StorageSuite) TestSaveUpsertsExistingRecord() {
	_ = s.storage.SaveIdentity(s.ctx, s.record("W1", "Ada"))

	updated := s.record("W1", "Ada")
	updated.Position = model.Position{X: 99, Y: 7}
	s.Require().NoError(s.storage.SaveIdentity(s.ctx, updated))

	got, err := s.storage.GetIdentity(s.ctx, "W1")
	s.Require().NoError(err)
	s.Equal(model.Position{X: 99, Y: 7}, got.Position)

	records, err := s.storage.ListIdentities(s.ctx)
	s.Require().NoError(err)
	s.Len(records, 1)
}

func (s *StorageSuite) TestListIdentitiesOrderedByWallet() {
	_ = s.storage.SaveIdentity(s.ctx, s.record("W3", "c"))
	_ = s.storage.SaveIdentity(s.ctx, s.record("W1", "a"))
	_ = s.storage.SaveIdentity(s.ctx, s.record("W2", "b"))

	records, err := s.storage.ListIdentities(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 3)
	s.Equal(model.WalletID("W1"), records[0].WalletID)
	s.Equal(model.WalletID("W2"), records[1].WalletID)
	s.Equal(model.WalletID("W3"), records[2].WalletID)
}

func (s *StorageSuite) TestListIdentitiesEmpty() {
	records, err := s.storage.ListIdentities(s.ctx)
	s.Require().NoError(err)
	s.Empty(records)
}
