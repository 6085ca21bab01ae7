package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/IMICARUSS/PIXEL-NEXUS/internal/model"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Identity records carry no TTL: wallets are never forgotten.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveIdentity(ctx context.Context, rec *model.IdentityRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, identityKey(rec.WalletID), data, 0)
	pipe.SAdd(ctx, identityIndexKey(), string(rec.WalletID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetIdentity(ctx context.Context, id model.WalletID) (*model.IdentityRecord, error) {
	data, err := s.client.Get(ctx, identityKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrIdentityNotFound
		}
		return nil, err
	}

	var rec model.IdentityRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Storage) IdentityExists(ctx context.Context, id model.WalletID) (bool, error) {
	exists, err := s.client.Exists(ctx, identityKey(id)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (s *Storage) ListIdentities(ctx context.Context) ([]*model.IdentityRecord, error) {
	wallets, err := s.client.SMembers(ctx, identityIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	if len(wallets) == 0 {
		return []*model.IdentityRecord{}, nil
	}

	keys := make([]string, len(wallets))
	for i, w := range wallets {
		keys[i] = identityKey(model.WalletID(w))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*model.IdentityRecord, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue // index entry without a record
		}
		var rec model.IdentityRecord
		if err := json.Unmarshal([]byte(val.(string)), &rec); err != nil {
			continue // skip invalid data
		}
		records = append(records, &rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].WalletID < records[j].WalletID
	})
	return records, nil
}
