package redis

import (
	"fmt"

	"github.com/IMICARUSS/PIXEL-NEXUS/internal/model"
)

// Key prefix for all presence-related data
const keyPrefix = "pxnexus"

// identityKey returns the Redis key for an IdentityRecord
func identityKey(id model.WalletID) string {
	return fmt.Sprintf("%s:identity:%s", keyPrefix, id)
}

// identityIndexKey returns the Redis key for the SET of known wallet ids
func identityIndexKey() string {
	return fmt.Sprintf("%s:idx:identities", keyPrefix)
}
