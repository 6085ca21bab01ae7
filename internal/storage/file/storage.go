package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/IMICARUSS/PIXEL-NEXUS/internal/model"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/storage"
)

// document is the on-disk layout: a single JSON object holding the full
// wallet -> record mapping. It is rewritten in full on every save; record
// counts are small and write volume is bounded by player movement.
type document struct {
	Identities map[model.WalletID]*model.IdentityRecord `json:"identities"`
}

// Storage persists identity records in a single human-readable JSON file
type Storage struct {
	path   string
	logger *slog.Logger

	mu         sync.RWMutex
	identities map[model.WalletID]*model.IdentityRecord

	// degraded is set when the file existed at startup but could not be
	// parsed. The in-memory mapping starts empty and the artifact is left
	// untouched on disk until the next save.
	degraded bool
}

// New creates a file storage instance and loads the full mapping from path.
// A missing file is benign: an empty artifact is created. An unreadable or
// unparseable file is surfaced via logging and Degraded; the process
// continues with an empty in-memory mapping.
func New(path string, logger *slog.Logger) (*Storage, error) {
	s := &Storage{
		path:       path,
		logger:     logger.With(slog.String("component", "file-storage")),
		identities: make(map[model.WalletID]*model.IdentityRecord),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Degraded reports whether the artifact was present but unreadable at load
// time. Callers use this to distinguish "first run" from masked data loss.
func (s *Storage) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// Path returns the location of the durable artifact
func (s *Storage) Path() string {
	return s.path
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create the artifact so later failures are
			// distinguishable from a missing file
			s.logger.Info("identity file absent, creating empty artifact",
				slog.String("path", s.path))
			return s.flush()
		}
		s.degraded = true
		s.logger.Error("identity file unreadable, continuing with empty store",
			slog.String("path", s.path),
			slog.Any("error", err))
		return nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.degraded = true
		s.logger.Error("identity file corrupt, continuing with empty store",
			slog.String("path", s.path),
			slog.Any("error", err))
		return nil
	}

	if doc.Identities != nil {
		s.identities = doc.Identities
	}
	s.logger.Info("identity file loaded",
		slog.String("path", s.path),
		slog.Int("records", len(s.identities)))
	return nil
}

// flush rewrites the whole artifact. Written to a temp file and renamed into
// place so a crash mid-write cannot truncate the existing artifact.
// Caller must hold the write lock (or be the only owner, during load).
func (s *Storage) flush() error {
	data, err := json.MarshalIndent(document{Identities: s.identities}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding identity file: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("writing identity file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing identity file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing identity file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing identity file: %w", err)
	}
	return nil
}

func (s *Storage) SaveIdentity(ctx context.Context, rec *model.IdentityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.identities[rec.WalletID] = &cp
	// Flush failures leave the in-memory mapping authoritative; the next
	// successful flush includes this write's data
	return s.flush()
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
