package storage

import (
	"context"

	"github.com/IMICARUSS/PIXEL-NEXUS/internal/model"
)

// Storage defines the interface for identity persistence. Records are
// wallet-keyed snapshots of last-known player state; they are upserted on
// every accepted update and never deleted.
type Storage interface {
	// SaveIdentity upserts a record and flushes it to the backend
	SaveIdentity(ctx context.Context, rec *model.IdentityRecord) error

	// GetIdentity returns the record for a wallet, or model.ErrIdentityNotFound
	GetIdentity(ctx context.Context, id model.WalletID) (*model.IdentityRecord, error)

	// IdentityExists reports whether a wallet has a record without returning it
	IdentityExists(ctx context.Context, id model.WalletID) (bool, error)

	// ListIdentities returns every record, ordered by wallet id
	ListIdentities(ctx context.Context) ([]*model.IdentityRecord, error)
}
