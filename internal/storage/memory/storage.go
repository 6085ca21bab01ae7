package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/IMICARUSS/PIXEL-NEXUS/internal/model"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu         sync.RWMutex
	identities map[model.WalletID]*model.IdentityRecord
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		identities: make(map[model.WalletID]*model.IdentityRecord),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveIdentity(ctx context.Context, rec *model.IdentityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.identities[rec.WalletID] = &cp
	return nil
}

func (s *Storage) GetIdentity(ctx context.Context, id model.WalletID) (*model.IdentityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.identities[id]
	if !ok {
		return nil, model.ErrIdentityNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *Storage) IdentityExists(ctx context.Context, id model.WalletID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.identities[id]
	return ok, nil
}

func (s *Storage) ListIdentities(ctx context.Context) ([]*model.IdentityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]*model.IdentityRecord, 0, len(s.identities))
	for _, rec := range s.identities {
		cp := *rec
		records = append(records, &cp)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].WalletID < records[j].WalletID
	})
	return records, nil
}
